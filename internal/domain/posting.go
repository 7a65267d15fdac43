package domain

import "time"

// Posting represents a single job listing.
type Posting struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier (document id, hex-encoded).
	ID string

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Title is the job title as published.
	Title string

	// Company is the hiring company name.
	Company string

	// Location is the workplace location (city, region or "remote").
	Location string

	// Description is the free-form posting body.
	Description string

	// URL points to the original posting.
	URL string

	// Category is the catalog category this posting belongs to.
	Category string

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt orders postings (newest first in every listing).
	CreatedAt time.Time

	// ─────────────────────────────
	// Notification tracking
	// ─────────────────────────────

	// IsNotified flips to true exactly once, after the dispatcher
	// has processed the posting. It is never reset.
	IsNotified bool

	// NotifiedAt is set when IsNotified flips to true.
	NotifiedAt time.Time
}
