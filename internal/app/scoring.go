package app

import "sort"

const (
	basePoints        = 10
	allCorrectBonus   = 5
	firstCorrectBonus = 5
)

// RoundResult is the outcome of scoring one round. Players who never answered
// have no entry in PerPlayerPoints; callers treat a missing entry as zero.
type RoundResult struct {
	CorrectIndex    int
	PerPlayerPoints map[string]int
	AllCorrect      bool
	FirstCorrectID  string
}

// Score computes per-player points for a round. It is a pure function of the
// submitted answers and the correct choice:
//
//   - incorrect answers earn 0
//   - correct answers earn 10 base points
//   - +5 for everyone when all submitted answers were correct (players who
//     never answered are not counted against this)
//   - +5 for the fastest correct player, but only when more than one player
//     was correct; a lone correct guess gets no speed bonus
//
// Identical timestamps are broken by submission sequence, so the bonus
// assignment is deterministic.
func Score(answers []Answer, correctIndex int) RoundResult {
	result := RoundResult{
		CorrectIndex:    correctIndex,
		PerPlayerPoints: make(map[string]int, len(answers)),
	}

	correct := make([]Answer, 0, len(answers))
	for _, a := range answers {
		if a.ChoiceIndex == correctIndex {
			correct = append(correct, a)
		}
	}
	result.AllCorrect = len(answers) > 0 && len(correct) == len(answers)

	sort.Slice(correct, func(i, j int) bool {
		if !correct[i].SubmittedAt.Equal(correct[j].SubmittedAt) {
			return correct[i].SubmittedAt.Before(correct[j].SubmittedAt)
		}
		return correct[i].Seq < correct[j].Seq
	})
	if len(correct) > 0 {
		result.FirstCorrectID = correct[0].PlayerID
	}

	for _, a := range answers {
		points := 0
		if a.ChoiceIndex == correctIndex {
			points = basePoints
			if result.AllCorrect {
				points += allCorrectBonus
			}
			if a.PlayerID == result.FirstCorrectID && len(correct) > 1 {
				points += firstCorrectBonus
			}
		}
		result.PerPlayerPoints[a.PlayerID] = points
	}
	return result
}
