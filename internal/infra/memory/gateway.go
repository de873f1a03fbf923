package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-game-service/internal/app"
	"trivia-game-service/internal/domain"
)

// Gateway is an in-memory persistence gateway, used when Postgres is not
// configured and as the backing store in tests. It keeps the same shapes the
// Postgres gateway writes: sessions, ranked per-player results, and running
// per-player aggregates.
type Gateway struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionRecord
	order    []string
	results  map[string][]domain.PlayerResult
	stats    map[string]domain.PlayerStats
}

func NewGateway() *Gateway {
	return &Gateway{
		sessions: make(map[string]domain.SessionRecord),
		results:  make(map[string][]domain.PlayerResult),
		stats:    make(map[string]domain.PlayerStats),
	}
}

func (g *Gateway) SaveSession(_ context.Context, record domain.SessionRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[record.SessionID]; !ok {
		g.order = append(g.order, record.SessionID)
	}
	g.sessions[record.SessionID] = record
	return nil
}

func (g *Gateway) SaveResults(_ context.Context, sessionID string, finalScores map[string]int) ([]domain.PlayerResult, error) {
	ranked := app.RankScores(sessionID, finalScores)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[sessionID] = ranked
	for _, result := range ranked {
		stats, ok := g.stats[result.PlayerID]
		if !ok {
			g.stats[result.PlayerID] = domain.PlayerStats{
				PlayerID:    result.PlayerID,
				TotalScore:  result.Score,
				GamesPlayed: 1,
				AvgScore:    result.Score,
				BestRank:    result.Rank,
			}
			continue
		}
		stats.TotalScore += result.Score
		stats.GamesPlayed++
		stats.AvgScore = roundDiv(stats.TotalScore, stats.GamesPlayed)
		if result.Rank < stats.BestRank {
			stats.BestRank = result.Rank
		}
		g.stats[result.PlayerID] = stats
	}
	return ranked, nil
}

func (g *Gateway) ListSessions(_ context.Context, limit int) ([]domain.SessionRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.SessionRecord, 0, len(g.order))
	for i := len(g.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, g.sessions[g.order[i]])
	}
	return out, nil
}

func (g *Gateway) GetSession(_ context.Context, sessionID string) (domain.SessionRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	record, ok := g.sessions[sessionID]
	if !ok {
		return domain.SessionRecord{}, domain.ErrRecordNotFound
	}
	return record, nil
}

func (g *Gateway) SessionResults(_ context.Context, sessionID string) ([]domain.PlayerResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ranked, ok := g.results[sessionID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	out := make([]domain.PlayerResult, len(ranked))
	copy(out, ranked)
	return out, nil
}

func (g *Gateway) Leaderboard(_ context.Context, limit int) ([]domain.PlayerStats, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.PlayerStats, 0, len(g.stats))
	for _, stats := range g.stats {
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *Gateway) Stats(_ context.Context) (domain.StatsSummary, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	summary := domain.StatsSummary{
		TotalSessions: len(g.sessions),
		TotalPlayers:  len(g.stats),
	}
	totalScore := 0
	for _, stats := range g.stats {
		summary.TotalGames += stats.GamesPlayed
		totalScore += stats.TotalScore
	}
	if summary.TotalPlayers > 0 {
		summary.AvgScoreOverall = roundDiv(totalScore, summary.TotalPlayers)
	}
	return summary, nil
}

func roundDiv(total, count int) int {
	if count == 0 {
		return 0
	}
	return (total + count/2) / count
}
