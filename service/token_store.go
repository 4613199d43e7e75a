package service

import (
	"context"
	"sync"
	"time"
)

// RevocationStore tracks issued JTIs per user and the set of revoked JTIs.
// A revoked JTI stays revoked at least until the token it names expires.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Track(ctx context.Context, userID, jti string, expiresAt time.Time) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// MemoryRevocationStore keeps revocations in process memory behind one mutex.
// Entries are never evicted; a restart forgets everything. Use the Redis
// store when more than one instance serves traffic.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]struct{}
	byUser  map[string]map[string]struct{}
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		revoked: make(map[string]struct{}),
		byUser:  make(map[string]map[string]struct{}),
	}
}

// Revoke is idempotent.
func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = struct{}{}
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}

func (s *MemoryRevocationStore) Track(_ context.Context, userID, jti string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	jtis, ok := s.byUser[userID]
	if !ok {
		jtis = make(map[string]struct{})
		s.byUser[userID] = jtis
	}
	jtis[jti] = struct{}{}
	return nil
}

// RevokeAllForUser revokes every JTI tracked for userID and forgets the
// user's index. Untracked users are a no-op.
func (s *MemoryRevocationStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti := range s.byUser[userID] {
		s.revoked[jti] = struct{}{}
	}
	delete(s.byUser, userID)
	return nil
}

// Tracked returns how many JTIs are indexed for userID.
func (s *MemoryRevocationStore) Tracked(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser[userID])
}
