package directory

import (
	"context"
	"crypto/subtle"
	"fmt"

	dErrors "biogate/pkg/domain-errors"
	"biogate/pkg/platform/sentinel"
)

// InMemoryStore is immutable after construction, so reads need no locking.
type InMemoryStore struct {
	identities map[string]Identity
}

// NewInMemoryStore indexes identities by exact email. Duplicate emails and
// invalid records are rejected.
func NewInMemoryStore(identities ...Identity) (*InMemoryStore, error) {
	s := &InMemoryStore{identities: make(map[string]Identity, len(identities))}
	for _, ident := range identities {
		if err := ident.validate(); err != nil {
			return nil, err
		}
		if _, exists := s.identities[ident.Email]; exists {
			return nil, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict,
				fmt.Sprintf("duplicate identity %q", ident.Email))
		}
		s.identities[ident.Email] = ident
	}
	return s, nil
}

// FindByEmail returns a copy of the identity or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	ident, ok := s.identities[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ident, nil
}

// CheckSecret reports whether email exists and candidate equals its secret.
// Unknown emails are simply false.
func (s *InMemoryStore) CheckSecret(_ context.Context, email, candidate string) bool {
	ident, ok := s.identities[email]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(ident.Secret), []byte(candidate)) == 1
}

// Count returns the number of identities.
func (s *InMemoryStore) Count() int {
	return len(s.identities)
}
