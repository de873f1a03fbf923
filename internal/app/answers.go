package app

import (
	"sort"
	"time"
)

// Answer is a player's recorded choice for the current round.
type Answer struct {
	PlayerID    string
	ChoiceIndex int
	SubmittedAt time.Time
	// Seq is a monotonic per-round submission counter. It breaks timestamp
	// ties deterministically when picking the fastest correct player.
	Seq int
}

// AnswerCollector holds the answers of a single round. Like Roster it is
// owned by the coordinator loop and needs no locking. Reset at the start of
// every question.
type AnswerCollector struct {
	answers map[string]Answer
	nextSeq int
}

func NewAnswerCollector() *AnswerCollector {
	return &AnswerCollector{answers: make(map[string]Answer)}
}

// Submit records the answer unless the player already answered this round.
// It reports whether this call was the one recorded; duplicates return false
// so callers do not re-broadcast a "player answered" notification.
func (c *AnswerCollector) Submit(playerID string, choiceIndex int, now time.Time) bool {
	if _, ok := c.answers[playerID]; ok {
		return false
	}
	c.answers[playerID] = Answer{
		PlayerID:    playerID,
		ChoiceIndex: choiceIndex,
		SubmittedAt: now,
		Seq:         c.nextSeq,
	}
	c.nextSeq++
	return true
}

// Remove discards an in-flight answer, used when a player disconnects mid-round.
func (c *AnswerCollector) Remove(playerID string) {
	delete(c.answers, playerID)
}

// IsComplete reports whether every expected player has a recorded answer.
// An empty expected set counts as complete.
func (c *AnswerCollector) IsComplete(expected []string) bool {
	for _, id := range expected {
		if _, ok := c.answers[id]; !ok {
			return false
		}
	}
	return true
}

// All returns the recorded answers in submission order.
func (c *AnswerCollector) All() []Answer {
	out := make([]Answer, 0, len(c.answers))
	for _, a := range c.answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Reset clears all answers for a new round.
func (c *AnswerCollector) Reset() {
	c.answers = make(map[string]Answer)
	c.nextSeq = 0
}
