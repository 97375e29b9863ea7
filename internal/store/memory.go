package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tripforge/trip-planner/internal/model"
)

// MemoryStore keeps records in process with a sliding TTL.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates an in-memory store. Records expire ttl after their
// last save; expired entries are purged every ttl/6.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		cache: cache.New(ttl, ttl/6),
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*model.Record, bool, error) {
	if x, found := s.cache.Get(sessionID); found {
		return x.(*model.Record).Clone(), true, nil
	}
	return nil, false, nil
}

func (s *MemoryStore) Save(_ context.Context, rec *model.Record) error {
	s.cache.Set(rec.SessionID, rec.Clone(), cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
