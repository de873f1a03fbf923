package app

// Roster tracks the currently-connected players of one session and their
// cumulative scores. It is the single source of truth consulted both for
// round-completion checks and for scoring; it is only ever touched from the
// coordinator loop, so it carries no locking of its own.
type Roster struct {
	scores map[string]int
	joined []string
}

func NewRoster() *Roster {
	return &Roster{scores: make(map[string]int)}
}

// Add registers a player with score 0. Adding an already-present ID is a
// no-op; the existing score is kept.
func (r *Roster) Add(id string) bool {
	if _, ok := r.scores[id]; ok {
		return false
	}
	r.scores[id] = 0
	r.joined = append(r.joined, id)
	return true
}

// Remove deletes the player and their score. Absent IDs are ignored.
func (r *Roster) Remove(id string) {
	if _, ok := r.scores[id]; !ok {
		return
	}
	delete(r.scores, id)
	for i, j := range r.joined {
		if j == id {
			r.joined = append(r.joined[:i], r.joined[i+1:]...)
			break
		}
	}
}

// Has reports whether the player is currently registered.
func (r *Roster) Has(id string) bool {
	_, ok := r.scores[id]
	return ok
}

// ApplyPoints adds delta to the player's cumulative score. A player who
// disconnected mid-round simply no longer exists here, so this is a no-op
// for absent IDs.
func (r *Roster) ApplyPoints(id string, delta int) {
	if delta < 0 {
		return
	}
	if _, ok := r.scores[id]; ok {
		r.scores[id] += delta
	}
}

// SnapshotScores returns a copy of the current playerID -> score mapping.
func (r *Roster) SnapshotScores() map[string]int {
	out := make(map[string]int, len(r.scores))
	for id, score := range r.scores {
		out[id] = score
	}
	return out
}

// IDs returns the registered player IDs in join order.
func (r *Roster) IDs() []string {
	out := make([]string, len(r.joined))
	copy(out, r.joined)
	return out
}

// Count returns the number of currently-registered players.
func (r *Roster) Count() int {
	return len(r.scores)
}

// ResetScores zeroes every score while keeping the players registered.
func (r *Roster) ResetScores() {
	for id := range r.scores {
		r.scores[id] = 0
	}
}
