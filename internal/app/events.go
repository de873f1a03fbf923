package app

// Event is an outbound message published to connected players. EventType is
// the wire-level type tag used by the websocket envelope.
type Event interface {
	EventType() string
}

// GameStart announces that a game is beginning, with the current roster.
type GameStart struct {
	PlayerIDs []string `json:"players"`
}

func (GameStart) EventType() string { return "gameStart" }

// NewQuestion carries a question to all players. The correct choice index is
// deliberately withheld until the reveal.
type NewQuestion struct {
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
	Prompt         string   `json:"question"`
	Choices        []string `json:"choices"`
}

func (NewQuestion) EventType() string { return "newQuestion" }

// PlayerAnswered notifies everyone that a player locked in an answer. It is
// sent once per player per round and never includes the chosen option.
type PlayerAnswered struct {
	PlayerID string `json:"playerId"`
}

func (PlayerAnswered) EventType() string { return "playerAnswered" }

// RoundResults is delivered per recipient: Scores and CorrectIndex are shared,
// PointsEarned is the recipient's own round score.
type RoundResults struct {
	CorrectIndex int            `json:"correctAnswer"`
	Scores       map[string]int `json:"scores"`
	PointsEarned int            `json:"pointsEarned"`
}

func (RoundResults) EventType() string { return "roundResults" }

// GameEnd carries the final cumulative scores.
type GameEnd struct {
	FinalScores map[string]int `json:"scores"`
}

func (GameEnd) EventType() string { return "gameEnd" }
