package domain

import "time"

// Favorite is a per-user set of categories subscribed for alerts.
// One record per user; toggling a category adds or removes it from
// Categories. The record is created on first toggle and only ever
// emptied, never deleted.
type Favorite struct {
	// UserID is the normalized phone number ("+<digits>").
	UserID string

	// Categories the user wants alerts for.
	Categories []string

	// UpdatedAt is updated on any toggle.
	UpdatedAt time.Time
}

// Subscribed reports whether the favorite contains the given category.
func (f Favorite) Subscribed(category string) bool {
	for _, c := range f.Categories {
		if c == category {
			return true
		}
	}
	return false
}
