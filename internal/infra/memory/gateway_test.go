package memory

import (
	"context"
	"testing"
	"time"

	"trivia-game-service/internal/domain"
)

func TestGatewaySaveResultsRanks(t *testing.T) {
	g := NewGateway()
	ctx := context.Background()

	ranked, err := g.SaveResults(ctx, "s1", map[string]int{"A": 30, "B": 20, "C": 25})
	if err != nil {
		t.Fatalf("save results: %v", err)
	}
	if ranked[0].PlayerID != "A" || ranked[0].Rank != 1 {
		t.Fatalf("expected A rank 1, got %+v", ranked[0])
	}
	if ranked[1].PlayerID != "C" || ranked[1].Rank != 2 {
		t.Fatalf("expected C rank 2, got %+v", ranked[1])
	}
	if ranked[2].PlayerID != "B" || ranked[2].Rank != 3 {
		t.Fatalf("expected B rank 3, got %+v", ranked[2])
	}

	results, err := g.SessionResults(ctx, "s1")
	if err != nil {
		t.Fatalf("session results: %v", err)
	}
	if len(results) != 3 || results[0].PlayerID != "A" {
		t.Fatalf("stored results mismatch: %+v", results)
	}
}

func TestGatewayStatsAggregation(t *testing.T) {
	g := NewGateway()
	ctx := context.Background()

	if _, err := g.SaveResults(ctx, "s1", map[string]int{"A": 30, "B": 25}); err != nil {
		t.Fatalf("save s1: %v", err)
	}
	if _, err := g.SaveResults(ctx, "s2", map[string]int{"A": 15, "B": 40}); err != nil {
		t.Fatalf("save s2: %v", err)
	}

	board, err := g.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if board[0].PlayerID != "B" || board[0].TotalScore != 65 {
		t.Fatalf("expected B leading with 65, got %+v", board[0])
	}

	var a domain.PlayerStats
	for _, stats := range board {
		if stats.PlayerID == "A" {
			a = stats
		}
	}
	if a.GamesPlayed != 2 || a.TotalScore != 45 {
		t.Fatalf("unexpected aggregates for A: %+v", a)
	}
	// round(45/2) = 23 with half rounded up
	if a.AvgScore != 23 {
		t.Fatalf("expected avg 23, got %d", a.AvgScore)
	}
	// A ranked 1st in s1 and 2nd in s2; best rank sticks at 1.
	if a.BestRank != 1 {
		t.Fatalf("expected best rank 1, got %d", a.BestRank)
	}
}

func TestGatewaySessionsAndSummary(t *testing.T) {
	g := NewGateway()
	ctx := context.Background()

	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, id := range []string{"s1", "s2", "s3"} {
		record := domain.SessionRecord{
			SessionID:     id,
			JoinCode:      "main",
			Status:        "completed",
			StartTime:     start,
			EndTime:       start.Add(5 * time.Minute),
			PlayerIDs:     []string{"A", "B"},
			QuestionCount: 3,
		}
		if err := g.SaveSession(ctx, record); err != nil {
			t.Fatalf("save session %s: %v", id, err)
		}
	}
	if _, err := g.SaveResults(ctx, "s1", map[string]int{"A": 30, "B": 20}); err != nil {
		t.Fatalf("save results: %v", err)
	}

	sessions, err := g.ListSessions(ctx, 2)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].SessionID != "s3" {
		t.Fatalf("expected newest-first limited list, got %+v", sessions)
	}

	if _, err := g.GetSession(ctx, "missing"); err != domain.ErrRecordNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}

	summary, err := g.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if summary.TotalSessions != 3 || summary.TotalPlayers != 2 || summary.TotalGames != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// (30+20)/2 players
	if summary.AvgScoreOverall != 25 {
		t.Fatalf("expected overall avg 25, got %d", summary.AvgScoreOverall)
	}
}
