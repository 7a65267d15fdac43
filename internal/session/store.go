// Package session stores the per-user conversational state. The
// upstream channel delivers one user's messages sequentially, so no
// per-user write races are expected; the implementations only have to
// be safe for concurrent access across different users.
package session

import (
	"context"

	"github.com/claudel/offrebot/internal/domain"
)

// Store is the conversation state store. Keys are normalized phone
// numbers.
type Store interface {
	// Get returns the session for user and whether one exists.
	Get(ctx context.Context, user string) (domain.Session, bool, error)
	// Set overwrites the session for user.
	Set(ctx context.Context, user string, s domain.Session) error
	// Clear removes the session for user.
	Clear(ctx context.Context, user string) error
}
