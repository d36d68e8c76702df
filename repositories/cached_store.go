package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/hackathon-portal/cache"
	"github.com/Dosada05/hackathon-portal/models"
)

const eventsCacheKey = "events"

// cachedStore is a read-through cache in front of another Store. Collection
// loads are cached under "<event>:<collection>"; every save deletes the key
// it touched. Cache failures fall back to the underlying store.
//
// Each key has a generation that every invalidation bumps. A load that
// started before an invalidation does not write its result back, so a slow
// reader cannot resurrect data a writer has just replaced.
type cachedStore struct {
	Store
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

func NewCachedStore(store Store, c cache.Cache, ttl time.Duration, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &cachedStore{Store: store, cache: c, ttl: ttl, logger: logger, gens: make(map[string]uint64)}
}

func (s *cachedStore) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key]
}

func collectionKey(event, collection string) string {
	return event + ":" + collection
}

func eventKey(name string) string {
	return "event:" + name
}

// readThrough returns the cached value for key or calls load and caches it.
func readThrough[T any](ctx context.Context, s *cachedStore, key string, load func() (T, error)) (T, error) {
	if data, err := s.cache.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		s.logger.Warn("dropping undecodable cache entry", "key", key)
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("cache read failed", "key", key, "error", err)
	}

	gen := s.generation(key)
	v, err := load()
	if err != nil {
		return v, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}

	// Проверка поколения и Set под одним замком с invalidate.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[key] != gen {
		return v, nil
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return v, nil
}

func (s *cachedStore) invalidate(ctx context.Context, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.gens[k]++
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

func (s *cachedStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	return readThrough(ctx, s, eventsCacheKey, func() ([]models.Event, error) {
		return s.Store.ListEvents(ctx)
	})
}

func (s *cachedStore) GetEvent(ctx context.Context, name string) (*models.Event, error) {
	return readThrough(ctx, s, eventKey(name), func() (*models.Event, error) {
		return s.Store.GetEvent(ctx, name)
	})
}

func (s *cachedStore) SaveEvent(ctx context.Context, event *models.Event) error {
	err := s.Store.SaveEvent(ctx, event)
	s.invalidate(ctx, eventsCacheKey, eventKey(event.Name),
		collectionKey(event.Name, CollectionSubmissions),
		collectionKey(event.Name, CollectionParticipants),
		collectionKey(event.Name, CollectionTeams),
		collectionKey(event.Name, CollectionWinners),
	)
	return err
}

func (s *cachedStore) LoadSubmissions(ctx context.Context, event string) ([]models.Submission, error) {
	return readThrough(ctx, s, collectionKey(event, CollectionSubmissions), func() ([]models.Submission, error) {
		return s.Store.LoadSubmissions(ctx, event)
	})
}

func (s *cachedStore) SaveSubmissions(ctx context.Context, event string, submissions []models.Submission) error {
	err := s.Store.SaveSubmissions(ctx, event, submissions)
	s.invalidate(ctx, collectionKey(event, CollectionSubmissions))
	return err
}

func (s *cachedStore) LoadParticipants(ctx context.Context, event string) ([]models.Participant, error) {
	return readThrough(ctx, s, collectionKey(event, CollectionParticipants), func() ([]models.Participant, error) {
		return s.Store.LoadParticipants(ctx, event)
	})
}

func (s *cachedStore) SaveParticipants(ctx context.Context, event string, participants []models.Participant) error {
	err := s.Store.SaveParticipants(ctx, event, participants)
	s.invalidate(ctx, collectionKey(event, CollectionParticipants))
	return err
}

func (s *cachedStore) LoadTeams(ctx context.Context, event string) ([]models.Team, error) {
	return readThrough(ctx, s, collectionKey(event, CollectionTeams), func() ([]models.Team, error) {
		return s.Store.LoadTeams(ctx, event)
	})
}

func (s *cachedStore) SaveTeams(ctx context.Context, event string, teams []models.Team) error {
	err := s.Store.SaveTeams(ctx, event, teams)
	s.invalidate(ctx, collectionKey(event, CollectionTeams))
	return err
}

func (s *cachedStore) LoadWinners(ctx context.Context, event string) ([]models.Winner, error) {
	return readThrough(ctx, s, collectionKey(event, CollectionWinners), func() ([]models.Winner, error) {
		return s.Store.LoadWinners(ctx, event)
	})
}

func (s *cachedStore) SaveWinners(ctx context.Context, event string, winners []models.Winner) error {
	err := s.Store.SaveWinners(ctx, event, winners)
	s.invalidate(ctx, collectionKey(event, CollectionWinners))
	return err
}
