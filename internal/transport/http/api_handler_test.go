package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trivia-game-service/internal/domain"
	"trivia-game-service/internal/infra/memory"
)

func newAPIServer(t *testing.T) (*httptest.Server, *memory.Gateway) {
	t.Helper()
	gateway := memory.NewGateway()
	mux := http.NewServeMux()
	NewAPIHandler(gateway).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, gateway
}

func seed(t *testing.T, gateway *memory.Gateway) {
	t.Helper()
	ctx := context.Background()
	record := domain.SessionRecord{
		SessionID:     "s1",
		JoinCode:      "main",
		Status:        "completed",
		StartTime:     time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 6, 1, 10, 5, 0, 0, time.UTC),
		PlayerIDs:     []string{"A", "B", "C"},
		QuestionCount: 3,
	}
	if err := gateway.SaveSession(ctx, record); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if _, err := gateway.SaveResults(ctx, "s1", map[string]int{"A": 30, "B": 20, "C": 25}); err != nil {
		t.Fatalf("seed results: %v", err)
	}
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("get %s: expected %d, got %d", url, wantStatus, resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return body
}

func TestSessionEndpoints(t *testing.T) {
	server, gateway := newAPIServer(t)
	seed(t, gateway)

	list := getJSON(t, server.URL+"/api/sessions", http.StatusOK)
	if list["count"].(float64) != 1 {
		t.Fatalf("expected 1 session, got %v", list["count"])
	}

	session := getJSON(t, server.URL+"/api/sessions/s1", http.StatusOK)
	if session["questionCount"].(float64) != 3 {
		t.Fatalf("unexpected session: %v", session)
	}

	results := getJSON(t, server.URL+"/api/sessions/s1/results", http.StatusOK)
	ranked := results["results"].([]any)
	first := ranked[0].(map[string]any)
	if first["playerId"] != "A" || first["rank"].(float64) != 1 {
		t.Fatalf("expected A ranked first, got %v", first)
	}

	getJSON(t, server.URL+"/api/sessions/nope", http.StatusNotFound)
	getJSON(t, server.URL+"/api/sessions/nope/results", http.StatusNotFound)
}

func TestLeaderboardAndStatsEndpoints(t *testing.T) {
	server, gateway := newAPIServer(t)
	seed(t, gateway)

	board := getJSON(t, server.URL+"/api/leaderboard?limit=2", http.StatusOK)
	entries := board["leaderboard"].([]any)
	if len(entries) != 2 {
		t.Fatalf("expected limit to apply, got %d entries", len(entries))
	}
	top := entries[0].(map[string]any)
	if top["playerId"] != "A" || top["totalScore"].(float64) != 30 {
		t.Fatalf("expected A on top with 30, got %v", top)
	}

	stats := getJSON(t, server.URL+"/api/stats", http.StatusOK)
	if stats["totalSessions"].(float64) != 1 || stats["totalPlayers"].(float64) != 3 {
		t.Fatalf("unexpected summary: %v", stats)
	}
	// (30+20+25)/3 players
	if stats["avgScoreOverall"].(float64) != 25 {
		t.Fatalf("expected overall avg 25, got %v", stats["avgScoreOverall"])
	}
}
