package store

import (
	"sync"

	"github.com/soyeahso/botbridge/internal/domain"
)

// MemoryStore is an in-process Store for hosts that do not need persistence
// across restarts.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	authorized map[string]AuthRecord // keyed by object id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		authorized: make(map[string]AuthRecord),
	}
}

func (s *MemoryStore) UpsertUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) User(id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) UserByName(name string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Name == name {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) Users() ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, nil
}

func (s *MemoryStore) Authorize(rec AuthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized[rec.ObjectID] = rec
	return nil
}

func (s *MemoryStore) SeedAuthorized(recs []AuthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		if _, ok := s.authorized[rec.ObjectID]; ok {
			continue
		}
		s.authorized[rec.ObjectID] = rec
	}
	return nil
}

func (s *MemoryStore) IsAuthorized(objectID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.authorized[objectID]
	return ok, nil
}

func (s *MemoryStore) Admins() ([]AuthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var admins []AuthRecord
	for _, rec := range s.authorized {
		if rec.Admin {
			admins = append(admins, rec)
		}
	}
	return admins, nil
}

func (s *MemoryStore) Close() error { return nil }
