// Package session parks template builder drafts between HTTP requests.
//
// A builder edits one [draft.Draft] over many requests. The server keeps the
// draft in a Session under a random id and hands the id to the client.
// Sessions expire after a TTL; an expired session reads as not found.
//
// Backends:
//   - memory: in-process map, for a single server instance and tests
//   - file: one JSON file per session, for local use
//   - redis: shared by several server instances, expiry handled by Redis
//
// # Usage
//
//	sess, err := session.New(draft.Open(base), session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err = store.Get(ctx, id)
//	if errors.IsNotFound(err) {
//	    // gone or expired
//	}
//	d := sess.Draft()
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/matzehuels/cardsmith/pkg/draft"
	"github.com/matzehuels/cardsmith/pkg/errors"
)

// DefaultTTL is how long an untouched draft session lives.
const DefaultTTL = 24 * time.Hour

// Session holds one parked draft.
type Session struct {
	ID        string         `json:"id"`
	Snapshot  draft.Snapshot `json:"draft"`
	ExpiresAt time.Time      `json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Draft restores the parked draft.
func (s *Session) Draft(opts ...draft.Option) draft.Draft {
	return draft.Restore(s.Snapshot, opts...)
}

// Update stores d and pushes the expiry ttl into the future.
func (s *Session) Update(d draft.Draft, ttl time.Duration) {
	s.Snapshot = d.Snapshot()
	s.ExpiresAt = time.Now().Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. A missing or expired session is a
	// NOT_FOUND error.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any with the same ID.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (may be a no-op for Redis).
	Cleanup(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New creates a session holding d.
func New(d draft.Draft, ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "generate session id")
	}

	now := time.Now()
	return &Session{
		ID:        id,
		Snapshot:  d.Snapshot(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

func errNotFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "draft session %q not found or expired", id)
}

// validID rejects ids that could not have come from GenerateID, so file
// backends never see path separators.
func validID(id string) error {
	if id == "" {
		return errors.New(errors.ErrCodeInvalidInput, "session id is empty")
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return errors.New(errors.ErrCodeInvalidInput, "session id %q has invalid characters", id)
		}
	}
	return nil
}
