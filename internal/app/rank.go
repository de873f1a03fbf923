package app

import (
	"sort"

	"trivia-game-service/internal/domain"
)

// RankScores orders final scores descending and assigns 1-based ranks. Ties
// receive distinct sequential ranks; equal scores are ordered by player ID so
// the assignment is stable.
func RankScores(sessionID string, finalScores map[string]int) []domain.PlayerResult {
	results := make([]domain.PlayerResult, 0, len(finalScores))
	for playerID, score := range finalScores {
		results = append(results, domain.PlayerResult{
			SessionID: sessionID,
			PlayerID:  playerID,
			Score:     score,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PlayerID < results[j].PlayerID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
