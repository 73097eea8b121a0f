package wizard

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates an in-memory store whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, w Wizard) (Session, error) {
	s := newSession(w, m.now())
	m.cache.Set(s.ID, s, m.ttl)
	return s, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	if !validID(id) {
		return Session{}, ErrSessionNotFound
	}
	v, ok := m.cache.Get(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return v.(Session), nil
}

func (m *MemoryStore) Save(ctx context.Context, s Session) error {
	if _, ok := m.cache.Get(s.ID); !ok {
		return ErrSessionNotFound
	}
	s.UpdatedAt = m.now()
	m.cache.Set(s.ID, s, m.ttl)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.cache.Get(id); !ok {
		return ErrSessionNotFound
	}
	m.cache.Delete(id)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.ItemCount()
}
