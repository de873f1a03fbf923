package domain

import "time"

// Question is a single multiple-choice prompt. CorrectIndex points into
// Choices and is never sent to clients before the reveal.
type Question struct {
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuestionSet is the fixed, ordered list of questions a session runs through.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// SessionRecord is the persisted summary of one completed game session.
type SessionRecord struct {
	SessionID     string    `json:"sessionId"`
	JoinCode      string    `json:"joinCode"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	PlayerIDs     []string  `json:"playerIds"`
	QuestionCount int       `json:"questionCount"`
}

// PlayerResult is one player's ranked outcome within a session.
type PlayerResult struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Score     int    `json:"score"`
	Rank      int    `json:"rank"`
}

// PlayerStats aggregates a player's results across sessions.
type PlayerStats struct {
	PlayerID    string `json:"playerId"`
	TotalScore  int    `json:"totalScore"`
	GamesPlayed int    `json:"gamesPlayed"`
	AvgScore    int    `json:"avgScore"`
	BestRank    int    `json:"bestRank"`
}

// StatsSummary is the service-wide aggregate exposed by the stats endpoint.
type StatsSummary struct {
	TotalSessions   int `json:"totalSessions"`
	TotalPlayers    int `json:"totalPlayers"`
	TotalGames      int `json:"totalGamesPlayed"`
	AvgScoreOverall int `json:"avgScoreOverall"`
}
