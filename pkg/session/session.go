// Package session remembers interactive viewer state across runs.
//
// A session records which directory was being viewed, the scan
// options in effect, and which node had keyboard focus. Reopening the
// same root restores focus instead of starting back at the root node.
//
// Sessions are stored as JSON files under the user's config
// directory and expire after [DefaultTTL] of inactivity.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mkoelbl/treescope/pkg/tree"
)

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 30 * 24 * time.Hour

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// Session is the persisted viewer state for one root directory.
type Session struct {
	ID          string       `json:"id"`
	RootPath    string       `json:"root_path"`
	FocusedPath string       `json:"focused_path,omitempty"`
	Options     tree.Options `json:"options"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// New creates a session for the given root with a fresh ID.
func New(rootPath string, opts tree.Options, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		RootPath:  rootPath,
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Touch records activity, extending the session's life by ttl.
func (s *Session) Touch(ttl time.Duration) {
	now := time.Now()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// IsExpired reports whether the session has passed its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. Returns nil, nil when the
	// session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Find retrieves the most recently updated live session for a
	// root path. Returns nil, nil when none exists.
	Find(ctx context.Context, rootPath string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}
