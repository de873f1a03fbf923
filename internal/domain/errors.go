package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session has not been created yet.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrQuestionSetNotFound indicates the question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrEmptyQuestionSet indicates a set with no questions, which cannot back a game.
	ErrEmptyQuestionSet = errors.New("question set has no questions")
	// ErrRecordNotFound is returned by persistence reads for unknown IDs.
	ErrRecordNotFound = errors.New("record not found")
)
