// Package scheduler runs the background notification dispatcher. It
// lives on its own goroutine, independent of the webhook request path,
// and shares only the repositories and the outbound sender with it.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/claudel/offrebot/internal/domain"
	"github.com/claudel/offrebot/internal/logger"
	"github.com/claudel/offrebot/internal/phone"
	"github.com/claudel/offrebot/internal/wa"
)

const (
	// DefaultInterval is the baseline cycle period.
	DefaultInterval = 60 * time.Second
	// DefaultBackoff replaces the baseline after a failed cycle; the
	// baseline resumes after the next clean cycle.
	DefaultBackoff = 5 * time.Minute
	// DefaultSendDelay paces per-subscriber sends to respect the
	// provider's outbound rate limits.
	DefaultSendDelay = 750 * time.Millisecond
)

// JobSource is the posting side of the dispatcher.
type JobSource interface {
	FindUnnotified(ctx context.Context) ([]domain.Posting, error)
	MarkNotified(ctx context.Context, id string) error
}

// SubscriberSource resolves which users subscribed to a category.
type SubscriberSource interface {
	SubscribersFor(ctx context.Context, category string) ([]string, error)
}

// Notifier sweeps un-notified postings and alerts subscribers.
type Notifier struct {
	jobs      JobSource
	subs      SubscriberSource
	sender    wa.Sender
	log       logger.Logger
	interval  time.Duration
	backoff   time.Duration
	sendDelay time.Duration
	stopCh    chan struct{}
}

func NewNotifier(
	jobs JobSource,
	subs SubscriberSource,
	sender wa.Sender,
	log logger.Logger,
	interval, backoff, sendDelay time.Duration,
) *Notifier {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	if sendDelay < 0 {
		sendDelay = DefaultSendDelay
	}
	return &Notifier{
		jobs:      jobs,
		subs:      subs,
		sender:    sender,
		log:       log,
		interval:  interval,
		backoff:   backoff,
		sendDelay: sendDelay,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the dispatch loop. The first cycle runs immediately
// so fresh postings are not stuck waiting for the first tick. A cycle
// error never terminates the loop; it stretches the wait to the
// backoff interval until a cycle completes cleanly again.
func (n *Notifier) Start(ctx context.Context) error {
	go func() {
		wait := n.interval
		if err := n.RunCycle(ctx); err != nil {
			n.log.Error("notification cycle failed", logger.Error(err))
			wait = n.backoff
		}

		for {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
				if err := n.RunCycle(ctx); err != nil {
					n.log.Error("notification cycle failed", logger.Error(err))
					wait = n.backoff
				} else {
					wait = n.interval
				}
			case <-n.stopCh:
				timer.Stop()
				return
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
	return nil
}

// Stop halts the dispatch loop.
func (n *Notifier) Stop() {
	close(n.stopCh)
}

// RunCycle processes every un-notified posting once. Per-subscriber
// send failures are logged and do not block the posting from being
// marked notified: delivery is at-most-once per posting. A posting
// whose subscriber set cannot be resolved at all is left un-notified
// for the next cycle.
func (n *Notifier) RunCycle(ctx context.Context) error {
	postings, err := n.jobs.FindUnnotified(ctx)
	if err != nil {
		return fmt.Errorf("failed to load unnotified postings: %w", err)
	}
	if len(postings) == 0 {
		n.log.Debug("no postings to notify")
		return nil
	}

	n.log.Info("dispatching notifications", logger.Int("postings", len(postings)))

	var cycleErr error
	for _, p := range postings {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		users, err := n.subs.SubscribersFor(ctx, p.Category)
		if err != nil {
			n.log.Error("failed to resolve subscribers",
				logger.String("posting", p.ID),
				logger.String("category", p.Category),
				logger.Error(err))
			cycleErr = err
			continue
		}

		sent, failed := n.notifySubscribers(ctx, p, users)

		if err := n.jobs.MarkNotified(ctx, p.ID); err != nil {
			n.log.Error("failed to mark posting notified",
				logger.String("posting", p.ID),
				logger.Error(err))
			cycleErr = err
			continue
		}

		n.log.Info("posting processed",
			logger.String("posting", p.ID),
			logger.String("category", p.Category),
			logger.Int("sent", sent),
			logger.Int("failed", failed))
	}
	return cycleErr
}

func (n *Notifier) notifySubscribers(ctx context.Context, p domain.Posting, users []string) (sent, failed int) {
	for i, user := range users {
		if i > 0 {
			if !sleepCtx(ctx, n.sendDelay) {
				return sent, failed
			}
		}

		to, err := phone.Normalize(user)
		if err != nil {
			n.log.Warn("skipping subscriber with invalid identifier",
				logger.String("user", user),
				logger.Error(err))
			failed++
			continue
		}

		if err := n.sender.Send(ctx, alertPayload(to, p)); err != nil {
			n.log.Warn("alert send failed",
				logger.String("user", to),
				logger.String("posting", p.ID),
				logger.Error(err))
			failed++
			continue
		}
		sent++
	}
	return sent, failed
}

// alertPayload formats one posting alert. Postings with a URL carry a
// link-out button; the rest are plain text.
func alertPayload(to string, p domain.Posting) wa.Payload {
	body := fmt.Sprintf("📢 Nouvelle offre — %s\n\n%s\n🏢 %s\n📍 %s",
		p.Category,
		orPlaceholder(p.Title),
		orPlaceholder(p.Company),
		orPlaceholder(p.Location))

	if p.URL == "" {
		return wa.Text(to, body)
	}
	return wa.Buttons(to, body, []wa.Button{
		{Title: "Voir l'offre", URL: p.URL},
	})
}

func orPlaceholder(v string) string {
	if v == "" {
		return "Non précisé"
	}
	return v
}

// sleepCtx waits d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
