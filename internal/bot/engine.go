// Package bot implements the conversation engine: a per-user state
// machine that turns extracted intents into state transitions and
// outbound messages. All storage and delivery goes through injected
// interfaces so the engine stays free of provider and database code.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/claudel/offrebot/internal/catalog"
	"github.com/claudel/offrebot/internal/domain"
	"github.com/claudel/offrebot/internal/logger"
	"github.com/claudel/offrebot/internal/session"
	"github.com/claudel/offrebot/internal/wa"
)

// Page sizes for the two paginated views.
const (
	CategoryPageSize = 5
	JobPageSize      = 5
)

// Selection ids. Category and favorite ids encode the catalog index
// of the entry at send time; indices are never persisted.
const (
	idMenuBrowse    = "menu_browse"
	idMenuFavorites = "menu_favorites"
	idMenuHome      = "menu_home"

	prefixCategoryPage = "cat_page_"
	prefixCategory     = "cat_"
	prefixJobPage      = "job_page_"
	prefixFavorite     = "fav_"
)

// User-facing copy. Single language, no i18n layer.
const (
	msgGreeting     = "Bienvenue ! Que souhaitez-vous faire ?"
	msgPickCategory = "Choisissez une catégorie d'offres :"
	msgOpenList     = "Voir les catégories"
	msgNoPostings   = "Aucune offre disponible pour cette catégorie pour le moment."
	msgNoSuchPage   = "Cette page n'est pas disponible."
	msgNoFavorites  = "Vous n'avez aucune alerte active. Sélectionnez une catégorie pour en créer une."
	msgFavorites    = "Vos alertes actives sont cochées. Sélectionnez une catégorie pour l'activer ou la désactiver :"
	msgGenericError = "Une erreur est survenue. Veuillez réessayer."

	fieldPlaceholder = "Non précisé"
)

// JobRepo is the posting query surface the engine needs.
type JobRepo interface {
	FindByCategory(ctx context.Context, category string, page, pageSize int) ([]domain.Posting, int64, error)
}

// FavoriteRepo is the subscription surface the engine needs.
type FavoriteRepo interface {
	Get(ctx context.Context, user string) (domain.Favorite, error)
	Toggle(ctx context.Context, user, category string) (domain.Favorite, error)
}

// Engine drives one user's conversation per inbound intent.
type Engine struct {
	jobs     JobRepo
	favs     FavoriteRepo
	sessions session.Store
	sender   wa.Sender
	catalog  *catalog.Catalog
	log      logger.Logger
}

func NewEngine(
	jobs JobRepo,
	favs FavoriteRepo,
	sessions session.Store,
	sender wa.Sender,
	cat *catalog.Catalog,
	log logger.Logger,
) *Engine {
	return &Engine{
		jobs:     jobs,
		favs:     favs,
		sessions: sessions,
		sender:   sender,
		catalog:  cat,
		log:      log,
	}
}

// Handle processes one intent for a normalized user. It never returns
// an error to the caller: any failure is logged and answered with a
// generic error reply, leaving the session untouched so the user can
// retry the same action.
func (e *Engine) Handle(ctx context.Context, user string, intent wa.Intent) error {
	sess, ok, err := e.sessions.Get(ctx, user)
	if err != nil {
		e.log.Error("session lookup failed",
			logger.String("user", user),
			logger.Error(err))
		e.sendErrorReply(ctx, user)
		return err
	}
	if !ok {
		sess = domain.Session{}
	}

	if err := e.dispatch(ctx, user, sess, intent); err != nil {
		e.log.Error("conversation step failed",
			logger.String("user", user),
			logger.String("state", string(sess.State)),
			logger.Error(err))
		e.sendErrorReply(ctx, user)
		return err
	}
	return nil
}

func (e *Engine) dispatch(ctx context.Context, user string, sess domain.Session, intent wa.Intent) error {
	switch intent.Kind {
	case wa.IntentFreeText:
		switch intent.Text {
		case "/START", "START", "MENU":
			return e.showMainMenu(ctx, user)
		}
		if sess.State == domain.StateNone {
			return e.showMainMenu(ctx, user)
		}
		return e.rerender(ctx, user, sess)

	case wa.IntentSelection:
		return e.dispatchSelection(ctx, user, sess, intent.SelectionID)

	default:
		if sess.State == domain.StateNone {
			return e.showMainMenu(ctx, user)
		}
		return e.rerender(ctx, user, sess)
	}
}

func (e *Engine) dispatchSelection(ctx context.Context, user string, sess domain.Session, id string) error {
	switch id {
	case idMenuHome:
		return e.showMainMenu(ctx, user)
	case idMenuBrowse:
		return e.showCategories(ctx, user, 0)
	case idMenuFavorites:
		return e.showFavorites(ctx, user)
	}

	// Prefix order matters: "cat_page_" is itself prefixed by "cat_".
	if raw, ok := strings.CutPrefix(id, prefixCategoryPage); ok {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return e.rerender(ctx, user, sess)
		}
		return e.showCategories(ctx, user, page)
	}

	if raw, ok := strings.CutPrefix(id, prefixCategory); ok {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return e.rerender(ctx, user, sess)
		}
		name, ok := e.catalog.Name(idx)
		if !ok {
			return e.rerender(ctx, user, sess)
		}
		return e.showJobs(ctx, user, name, 0)
	}

	if raw, ok := strings.CutPrefix(id, prefixJobPage); ok {
		if sess.State != domain.StateBrowsing || sess.Category == "" {
			return e.rerender(ctx, user, sess)
		}
		page, err := strconv.Atoi(raw)
		if err != nil {
			return e.rerender(ctx, user, sess)
		}
		return e.showJobs(ctx, user, sess.Category, page)
	}

	if raw, ok := strings.CutPrefix(id, prefixFavorite); ok {
		if sess.State != domain.StateFavorites {
			return e.rerender(ctx, user, sess)
		}
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return e.rerender(ctx, user, sess)
		}
		name, ok := e.catalog.Name(idx)
		if !ok {
			return e.rerender(ctx, user, sess)
		}
		if _, err := e.favs.Toggle(ctx, user, name); err != nil {
			return fmt.Errorf("failed to toggle favorite: %w", err)
		}
		return e.showFavorites(ctx, user)
	}

	return e.rerender(ctx, user, sess)
}

// rerender answers unrecognized input by re-sending the current view
// instead of erroring; unknown states degrade to the main menu.
func (e *Engine) rerender(ctx context.Context, user string, sess domain.Session) error {
	switch sess.State {
	case domain.StateCategorySelect:
		return e.showCategories(ctx, user, sess.Page)
	case domain.StateBrowsing:
		if sess.Category != "" {
			return e.showJobs(ctx, user, sess.Category, sess.Page)
		}
		return e.showMainMenu(ctx, user)
	case domain.StateFavorites:
		return e.showFavorites(ctx, user)
	default:
		return e.showMainMenu(ctx, user)
	}
}

func (e *Engine) showMainMenu(ctx context.Context, user string) error {
	p := wa.Buttons(user, msgGreeting, []wa.Button{
		{ID: idMenuBrowse, Title: "Voir les offres"},
		{ID: idMenuFavorites, Title: "Mes alertes"},
	})
	if err := e.sender.Send(ctx, p); err != nil {
		return fmt.Errorf("failed to send main menu: %w", err)
	}
	return e.sessions.Set(ctx, user, domain.Session{State: domain.StateMainMenu})
}

func (e *Engine) showCategories(ctx context.Context, user string, page int) error {
	totalPages := e.catalog.TotalPages(CategoryPageSize)
	if totalPages == 0 {
		return e.showMainMenu(ctx, user)
	}
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	var rows []wa.Row
	for _, entry := range e.catalog.Page(page, CategoryPageSize) {
		rows = append(rows, wa.Row{
			ID:    prefixCategory + strconv.Itoa(entry.Index),
			Title: entry.Name,
		})
	}
	if page > 0 {
		rows = append(rows, wa.Row{
			ID:    prefixCategoryPage + strconv.Itoa(page-1),
			Title: "◀ Page précédente",
		})
	}
	if page < totalPages-1 {
		rows = append(rows, wa.Row{
			ID:    prefixCategoryPage + strconv.Itoa(page+1),
			Title: "Page suivante ▶",
		})
	}
	rows = append(rows, wa.Row{ID: idMenuHome, Title: "Retour au menu"})

	body := msgPickCategory
	if totalPages > 1 {
		body = fmt.Sprintf("%s (page %d/%d)", msgPickCategory, page+1, totalPages)
	}
	if err := e.sender.Send(ctx, wa.List(user, body, msgOpenList, rows)); err != nil {
		return fmt.Errorf("failed to send category list: %w", err)
	}
	return e.sessions.Set(ctx, user, domain.Session{
		State: domain.StateCategorySelect,
		Page:  page,
	})
}

func (e *Engine) showJobs(ctx context.Context, user, category string, page int) error {
	postings, total, err := e.jobs.FindByCategory(ctx, category, page, JobPageSize)
	if err != nil {
		return fmt.Errorf("failed to fetch postings: %w", err)
	}

	if total == 0 {
		if err := e.sender.Send(ctx, wa.Text(user, msgNoPostings)); err != nil {
			return fmt.Errorf("failed to send empty listing: %w", err)
		}
		return e.sessions.Set(ctx, user, domain.Session{
			State:    domain.StateBrowsing,
			Category: category,
		})
	}

	totalPages := int((total + JobPageSize - 1) / JobPageSize)
	if page < 0 || page > totalPages-1 {
		// Out-of-range requests are refused, not wrapped. Session
		// stays where it was so the user keeps their place.
		if err := e.sender.Send(ctx, wa.Text(user, msgNoSuchPage)); err != nil {
			return fmt.Errorf("failed to send page refusal: %w", err)
		}
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Offres — %s (page %d/%d)\n", category, page+1, totalPages)
	for i, p := range postings {
		fmt.Fprintf(&b, "\n%d. %s\n", page*JobPageSize+i+1, orPlaceholder(p.Title))
		fmt.Fprintf(&b, "🏢 %s\n", orPlaceholder(p.Company))
		fmt.Fprintf(&b, "📍 %s\n", orPlaceholder(p.Location))
		fmt.Fprintf(&b, "🔗 %s\n", orPlaceholder(p.URL))
	}

	var buttons []wa.Button
	if page > 0 {
		buttons = append(buttons, wa.Button{
			ID:    prefixJobPage + strconv.Itoa(page-1),
			Title: "◀ Précédent",
		})
	}
	if page < totalPages-1 {
		buttons = append(buttons, wa.Button{
			ID:    prefixJobPage + strconv.Itoa(page+1),
			Title: "Suivant ▶",
		})
	}
	buttons = append(buttons, wa.Button{ID: idMenuHome, Title: "Menu"})

	if err := e.sender.Send(ctx, wa.Buttons(user, b.String(), buttons)); err != nil {
		return fmt.Errorf("failed to send job listing: %w", err)
	}
	return e.sessions.Set(ctx, user, domain.Session{
		State:    domain.StateBrowsing,
		Category: category,
		Page:     page,
	})
}

func (e *Engine) showFavorites(ctx context.Context, user string) error {
	fav, err := e.favs.Get(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}

	body := msgFavorites
	if len(fav.Categories) == 0 {
		body = msgNoFavorites
	}

	var rows []wa.Row
	for _, entry := range e.catalog.Page(0, e.catalog.Len()) {
		title := entry.Name
		if fav.Subscribed(entry.Name) {
			title = "✓ " + title
		}
		rows = append(rows, wa.Row{
			ID:    prefixFavorite + strconv.Itoa(entry.Index),
			Title: title,
		})
	}
	rows = append(rows, wa.Row{ID: idMenuHome, Title: "Retour au menu"})

	if err := e.sender.Send(ctx, wa.List(user, body, "Gérer mes alertes", rows)); err != nil {
		return fmt.Errorf("failed to send favorites list: %w", err)
	}
	return e.sessions.Set(ctx, user, domain.Session{State: domain.StateFavorites})
}

// sendErrorReply is the user-safe fallback; its own failure is only
// logged, there is nothing further to degrade to.
func (e *Engine) sendErrorReply(ctx context.Context, user string) {
	if err := e.sender.Send(ctx, wa.Text(user, msgGenericError)); err != nil {
		e.log.Warn("failed to send error reply",
			logger.String("user", user),
			logger.Error(err))
	}
}

func orPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return fieldPlaceholder
	}
	return v
}
