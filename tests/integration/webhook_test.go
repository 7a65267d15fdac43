package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claudel/offrebot/internal/bot"
	"github.com/claudel/offrebot/internal/catalog"
	"github.com/claudel/offrebot/internal/domain"
	"github.com/claudel/offrebot/internal/httpserver/deps"
	"github.com/claudel/offrebot/internal/httpserver/routes"
	"github.com/claudel/offrebot/internal/logger"
	"github.com/claudel/offrebot/internal/session"
	"github.com/claudel/offrebot/internal/signature"
	"github.com/claudel/offrebot/internal/wa"
)

const testAppSecret = "integration-secret"

// --- fakes wired under the real engine and HTTP surface

type stubJobs struct {
	byCategory map[string][]domain.Posting
}

func (s *stubJobs) FindByCategory(_ context.Context, category string, page, pageSize int) ([]domain.Posting, int64, error) {
	all := s.byCategory[category]
	total := int64(len(all))
	start := page * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

type stubFavs struct {
	favorites map[string]domain.Favorite
}

func (s *stubFavs) Get(_ context.Context, user string) (domain.Favorite, error) {
	return s.favorites[user], nil
}

func (s *stubFavs) Toggle(_ context.Context, user, category string) (domain.Favorite, error) {
	f := s.favorites[user]
	f.UserID = user
	for i, c := range f.Categories {
		if c == category {
			f.Categories = append(f.Categories[:i], f.Categories[i+1:]...)
			s.favorites[user] = f
			return f, nil
		}
	}
	f.Categories = append(f.Categories, category)
	s.favorites[user] = f
	return f, nil
}

type captureSender struct {
	sent []wa.Payload
}

func (c *captureSender) Send(_ context.Context, p wa.Payload) error {
	c.sent = append(c.sent, p)
	return nil
}

type stubPinger struct{ err error }

func (s *stubPinger) Ping(context.Context) error { return s.err }

// --- harness

type harness struct {
	server   *httptest.Server
	verifier *signature.Verifier
	sender   *captureSender
}

func newHarness(t *testing.T, jobs *stubJobs, pingErr error) *harness {
	t.Helper()

	sender := &captureSender{}
	verifier := signature.NewVerifier(testAppSecret)
	engine := bot.NewEngine(
		jobs,
		&stubFavs{favorites: map[string]domain.Favorite{}},
		session.NewMemoryStore(),
		sender,
		catalog.Default(),
		logger.NewNop(),
	)

	d := deps.Deps{
		Logger:      logger.NewNop(),
		StartTime:   time.Now(),
		TimeNow:     time.Now,
		VerifyToken: "integration-verify",
		Verifier:    verifier,
		Engine:      engine,
		DB:          &stubPinger{err: pingErr},
	}

	r := chi.NewRouter()
	routes.RegisterAll(r, d)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &harness{server: srv, verifier: verifier, sender: sender}
}

func textEnvelope(from, body string) string {
	return fmt.Sprintf(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":%q,"id":"wamid.t","type":"text","text":{"body":%q}}]}}]}]}`, from, body)
}

func selectionEnvelope(from, selectionID string) string {
	return fmt.Sprintf(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":%q,"id":"wamid.s","type":"interactive","interactive":{"type":"list_reply","list_reply":{"id":%q,"title":"x"}}}]}}]}]}`, from, selectionID)
}

func (h *harness) post(t *testing.T, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/webhook", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", h.verifier.Sign([]byte(body)))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// A fresh user sends "start" over the wire and walks into category
// browsing, all through the real router, handlers, engine and session
// store.
func TestConversationFlowOverHTTP(t *testing.T) {
	jobs := &stubJobs{byCategory: map[string][]domain.Posting{
		"Informatique": {
			{ID: "p1", Title: "Développeur Go", Company: "Acme", Location: "Paris", Category: "Informatique"},
		},
	}}
	h := newHarness(t, jobs, nil)

	// Step 1: greeting shows the main menu buttons.
	resp := h.post(t, textEnvelope("33612345678", "start"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(h.sender.sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(h.sender.sent))
	}
	menu := h.sender.sent[0]
	if menu.To != "+33612345678" {
		t.Fatalf("reply went to %q", menu.To)
	}
	if menu.Interactive == nil || menu.Interactive.Type != "button" {
		t.Fatalf("expected button menu, got %+v", menu)
	}

	// Step 2: picking "browse" yields the category list.
	h.post(t, selectionEnvelope("33612345678", "menu_browse"))
	if len(h.sender.sent) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(h.sender.sent))
	}
	list := h.sender.sent[1]
	if list.Interactive == nil || list.Interactive.Type != "list" {
		t.Fatalf("expected category list, got %+v", list)
	}

	// Step 3: selecting the first category shows its postings.
	h.post(t, selectionEnvelope("33612345678", "cat_0"))
	if len(h.sender.sent) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(h.sender.sent))
	}
	postings := h.sender.sent[2]
	var joined string
	if postings.Interactive != nil {
		joined = postings.Interactive.Body.Body
	} else if postings.Text != nil {
		joined = postings.Text.Body
	}
	if !strings.Contains(joined, "Développeur Go") {
		t.Fatalf("posting title missing from reply: %q", joined)
	}
}

func TestTamperedBodyNeverReachesEngine(t *testing.T) {
	h := newHarness(t, &stubJobs{}, nil)

	body := textEnvelope("33612345678", "start")
	sig := h.verifier.Sign([]byte(body))
	tampered := strings.Replace(body, "start", "sta4t", 1)

	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/webhook", bytes.NewReader([]byte(tampered)))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Hub-Signature-256", sig)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if len(h.sender.sent) != 0 {
		t.Fatalf("engine replied to tampered request: %d sends", len(h.sender.sent))
	}
}

func TestVerificationHandshakeOverHTTP(t *testing.T) {
	h := newHarness(t, &stubJobs{}, nil)

	resp, err := http.Get(h.server.URL +
		"/webhook?hub.mode=subscribe&hub.verify_token=integration-verify&hub.challenge=987654")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "987654" {
		t.Fatalf("challenge = %q", body)
	}
}

func TestHealthReflectsStoreState(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := newHarness(t, &stubJobs{}, nil)
		resp, err := http.Get(h.server.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("store down", func(t *testing.T) {
		h := newHarness(t, &stubJobs{}, fmt.Errorf("no reachable servers"))
		resp, err := http.Get(h.server.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", resp.StatusCode)
		}
	})
}
