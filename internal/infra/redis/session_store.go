package redis

import (
	"context"
	"sync"
	"time"

	"trivia-game-service/internal/app"
	"trivia-game-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionStore.
// Notes:
//   - Coordinators are in-process actors, so the map of live sessions stays
//     local; Redis marks session liveness across instances.
//   - For true distribution you'd pair this with a pub/sub projector that
//     fans out events, and route players to the owning instance.
type SessionStore struct {
	client  *redis.Client
	ttl     time.Duration
	timing  app.Timing
	gateway app.PersistenceGateway

	mu       sync.RWMutex
	sessions map[string]*app.Coordinator
}

func NewSessionStore(client *redis.Client, ttl time.Duration, timing app.Timing, gateway app.PersistenceGateway) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		timing:   timing,
		gateway:  gateway,
		sessions: make(map[string]*app.Coordinator),
	}
}

func (s *SessionStore) GetOrCreate(code string, questions []domain.Question) *app.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[code]; ok {
		return session
	}
	session := app.NewCoordinator(code, questions, s.timing, s.gateway)
	s.sessions[code] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(code), "1", s.ttl).Err()
	return session
}

func (s *SessionStore) Get(code string) (*app.Coordinator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) DeleteIfIdle(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[code]
	if !ok {
		return
	}
	if session.Idle() {
		session.Shutdown()
		delete(s.sessions, code)
		_ = s.client.Del(context.Background(), s.key(code)).Err()
	}
}

func (s *SessionStore) key(code string) string {
	return "game:session:" + code
}
