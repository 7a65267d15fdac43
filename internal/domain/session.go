package domain

// State identifies where a user currently is in the conversation.
type State string

const (
	StateNone           State = ""
	StateMainMenu       State = "main_menu"
	StateCategorySelect State = "category_select"
	StateBrowsing       State = "browsing"
	StateFavorites      State = "favorites"
)

// Session is the ephemeral per-user conversational state, keyed by
// normalized phone number. It is overwritten on every transition and
// carries no persistence guarantee: with the default in-memory store a
// process restart silently resets all sessions, which is accepted
// behavior (the user lands back on the main menu).
type Session struct {
	State State `json:"state"`

	// Category is the active filter while browsing.
	Category string `json:"category,omitempty"`

	// Page is the zero-based page index while browsing or selecting
	// a category.
	Page int `json:"page"`
}
