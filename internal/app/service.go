package app

import (
	"context"

	"trivia-game-service/internal/domain"
)

// SessionStore abstracts how live sessions are held (in-memory, Redis-marked, etc).
type SessionStore interface {
	GetOrCreate(code string, questions []domain.Question) *Coordinator
	Get(code string) (*Coordinator, bool)
	DeleteIfIdle(code string)
}

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// GameService contains the session-facing use cases consumed by the transport.
type GameService struct {
	sessions  SessionStore
	questions QuestionRepository
}

func NewGameService(sessions SessionStore, questions QuestionRepository) *GameService {
	return &GameService{sessions: sessions, questions: questions}
}

// Join connects a player to the session identified by code, creating it from
// the named question set on first use. The outbox receives all events for
// this player until disconnect.
func (s *GameService) Join(ctx context.Context, code, setID, playerID string, outbox chan Event) error {
	set, err := s.questions.GetQuestionSet(ctx, setID)
	if err != nil {
		return err
	}
	if len(set.Questions) == 0 {
		return domain.ErrEmptyQuestionSet
	}
	session := s.sessions.GetOrCreate(code, set.Questions)
	session.Connect(playerID, outbox)
	return nil
}

// Submit forwards a player's answer to the session. Within a live session
// out-of-turn or duplicate answers are silently absorbed; only a session that
// no longer exists is reported back.
func (s *GameService) Submit(code, playerID string, choiceIndex int) error {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Submit(playerID, choiceIndex)
	return nil
}

// Leave disconnects a player and drops the session once it is fully idle.
func (s *GameService) Leave(code, playerID string) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return
	}
	session.Disconnect(playerID)
	s.sessions.DeleteIfIdle(code)
}
