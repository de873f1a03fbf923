package memory

import (
	"sync"

	"trivia-game-service/internal/app"
	"trivia-game-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. Timing
// and gateway wiring are fixed at construction; every created coordinator
// shares them.
type SessionStore struct {
	timing  app.Timing
	gateway app.PersistenceGateway

	mu       sync.RWMutex
	sessions map[string]*app.Coordinator
}

func NewSessionStore(timing app.Timing, gateway app.PersistenceGateway) *SessionStore {
	return &SessionStore{
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
	}
}
