package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trivia-game-service/internal/app"
	"trivia-game-service/internal/domain"
	"github.com/uptrace/bun"
)

// Gateway persists finished sessions, ranked results and per-player
// aggregates to Postgres through bun.
type Gateway struct {
	db *bun.DB
}

func NewGateway(db *bun.DB) *Gateway {
	return &Gateway{db: db}
}

type sessionRow struct {
	bun.BaseModel `bun:"table:game_sessions"`

	SessionID     string    `bun:"session_id,pk"`
	JoinCode      string    `bun:"join_code"`
	Status        string    `bun:"status"`
	StartTime     time.Time `bun:"start_time"`
	EndTime       time.Time `bun:"end_time"`
	PlayerIDs     []string  `bun:"player_ids,array"`
	QuestionCount int       `bun:"question_count"`
	CreatedAt     time.Time `bun:"created_at"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:game_results"`

	ResultID  string    `bun:"result_id,pk"`
	SessionID string    `bun:"session_id"`
	PlayerID  string    `bun:"player_id"`
	Score     int       `bun:"score"`
	Rank      int       `bun:"rank"`
	CreatedAt time.Time `bun:"created_at"`
}

type statsRow struct {
	bun.BaseModel `bun:"table:user_stats"`

	PlayerID    string    `bun:"player_id,pk"`
	TotalScore  int       `bun:"total_score"`
	GamesPlayed int       `bun:"games_played"`
	AvgScore    int       `bun:"avg_score"`
	BestRank    int       `bun:"best_rank"`
	CreatedAt   time.Time `bun:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at"`
}

func (g *Gateway) SaveSession(ctx context.Context, record domain.SessionRecord) error {
	row := sessionRow{
		SessionID:     record.SessionID,
		JoinCode:      record.JoinCode,
		Status:        record.Status,
		StartTime:     record.StartTime,
		EndTime:       record.EndTime,
		PlayerIDs:     record.PlayerIDs,
		QuestionCount: record.QuestionCount,
		CreatedAt:     time.Now().UTC(),
	}
	_, err := g.db.NewInsert().Model(&row).
		On("CONFLICT (session_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("end_time = EXCLUDED.end_time").
		Set("player_ids = EXCLUDED.player_ids").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (g *Gateway) SaveResults(ctx context.Context, sessionID string, finalScores map[string]int) ([]domain.PlayerResult, error) {
	ranked := app.RankScores(sessionID, finalScores)
	now := time.Now().UTC()

	err := g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, result := range ranked {
			row := resultRow{
				ResultID:  sessionID + "-" + result.PlayerID,
				SessionID: sessionID,
				PlayerID:  result.PlayerID,
				Score:     result.Score,
				Rank:      result.Rank,
				CreatedAt: now,
			}
			if _, err := tx.NewInsert().Model(&row).
				On("CONFLICT (result_id) DO UPDATE").
				Set("score = EXCLUDED.score").
				Set(`rank = EXCLUDED.rank`).
				Exec(ctx); err != nil {
				return fmt.Errorf("save result %s: %w", row.ResultID, err)
			}

			stats := statsRow{
				PlayerID:    result.PlayerID,
				TotalScore:  result.Score,
				GamesPlayed: 1,
				AvgScore:    result.Score,
				BestRank:    result.Rank,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if _, err := tx.NewInsert().Model(&stats).
				On("CONFLICT (player_id) DO UPDATE").
				Set("total_score = user_stats.total_score + EXCLUDED.total_score").
				Set("games_played = user_stats.games_played + 1").
				Set("avg_score = ROUND((user_stats.total_score + EXCLUDED.total_score)::numeric / (user_stats.games_played + 1))::int").
				Set("best_rank = LEAST(user_stats.best_rank, EXCLUDED.best_rank)").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx); err != nil {
				return fmt.Errorf("update stats %s: %w", result.PlayerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ranked, nil
}

func (g *Gateway) ListSessions(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	var rows []sessionRow
	err := g.db.NewSelect().Model(&rows).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]domain.SessionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out, nil
}

func (g *Gateway) GetSession(ctx context.Context, sessionID string) (domain.SessionRecord, error) {
	var row sessionRow
	err := g.db.NewSelect().Model(&row).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionRecord{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	return row.toRecord(), nil
}

func (g *Gateway) SessionResults(ctx context.Context, sessionID string) ([]domain.PlayerResult, error) {
	var rows []resultRow
	err := g.db.NewSelect().Model(&rows).
		Where("session_id = ?", sessionID).
		OrderExpr(`rank ASC`).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("session results: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	out := make([]domain.PlayerResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.PlayerResult{
			SessionID: row.SessionID,
			PlayerID:  row.PlayerID,
			Score:     row.Score,
			Rank:      row.Rank,
		})
	}
	return out, nil
}

func (g *Gateway) Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	var rows []statsRow
	err := g.db.NewSelect().Model(&rows).
		OrderExpr("total_score DESC, player_id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	out := make([]domain.PlayerStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.PlayerStats{
			PlayerID:    row.PlayerID,
			TotalScore:  row.TotalScore,
			GamesPlayed: row.GamesPlayed,
			AvgScore:    row.AvgScore,
			BestRank:    row.BestRank,
		})
	}
	return out, nil
}

func (g *Gateway) Stats(ctx context.Context) (domain.StatsSummary, error) {
	summary := domain.StatsSummary{}

	count, err := g.db.NewSelect().Model((*sessionRow)(nil)).Count(ctx)
	if err != nil {
		return summary, fmt.Errorf("stats sessions: %w", err)
	}
	summary.TotalSessions = count

	var players, games, totalScore int
	err = g.db.NewSelect().Model((*statsRow)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("COALESCE(SUM(games_played), 0)").
		ColumnExpr("COALESCE(SUM(total_score), 0)").
		Scan(ctx, &players, &games, &totalScore)
	if err != nil {
		return summary, fmt.Errorf("stats players: %w", err)
	}
	summary.TotalPlayers = players
	summary.TotalGames = games
	if players > 0 {
		summary.AvgScoreOverall = (totalScore + players/2) / players
	}
	return summary, nil
}

func (r sessionRow) toRecord() domain.SessionRecord {
	return domain.SessionRecord{
		SessionID:     r.SessionID,
		JoinCode:      r.JoinCode,
		Status:        r.Status,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		PlayerIDs:     r.PlayerIDs,
		QuestionCount: r.QuestionCount,
	}
}
