package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"trivia-game-service/internal/domain"
	pgstore "trivia-game-service/internal/infra/postgres"
	pgmigrations "trivia-game-service/internal/infra/postgres/migrations"
	infraredis "trivia-game-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestPersistenceEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateDB(t, ctx, db)
	seedQuestionSet(t, ctx, db, sampleQuestionSet())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := pgstore.NewQuestionLoader(pool)
	repo := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute)

	set, err := repo.GetQuestionSet(ctx, "default")
	if err != nil {
		t.Fatalf("get question set: %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].CorrectIndex != 2 {
		t.Fatalf("unexpected question set: %+v", set)
	}
	// Second read must come from the redis cache.
	if _, err := repo.GetQuestionSet(ctx, "default"); err != nil {
		t.Fatalf("cached get: %v", err)
	}

	gateway := pgstore.NewGateway(db)
	record := domain.SessionRecord{
		SessionID:     "s1",
		JoinCode:      "main",
		Status:        "completed",
		StartTime:     time.Now().UTC().Add(-time.Minute),
		EndTime:       time.Now().UTC(),
		PlayerIDs:     []string{"x", "y"},
		QuestionCount: 1,
	}
	if err := gateway.SaveSession(ctx, record); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if _, err := gateway.SaveResults(ctx, "s1", map[string]int{"x": 20, "y": 15}); err != nil {
		t.Fatalf("save results: %v", err)
	}
	// A second game for the same players exercises the aggregate update path.
	record.SessionID = "s2"
	if err := gateway.SaveSession(ctx, record); err != nil {
		t.Fatalf("save session 2: %v", err)
	}
	if _, err := gateway.SaveResults(ctx, "s2", map[string]int{"x": 10, "y": 35}); err != nil {
		t.Fatalf("save results 2: %v", err)
	}

	results, err := gateway.SessionResults(ctx, "s1")
	if err != nil {
		t.Fatalf("session results: %v", err)
	}
	if results[0].PlayerID != "x" || results[0].Rank != 1 || results[1].PlayerID != "y" || results[1].Rank != 2 {
		t.Fatalf("unexpected ranking: %+v", results)
	}

	board, err := gateway.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if board[0].PlayerID != "y" || board[0].TotalScore != 50 {
		t.Fatalf("expected y leading with 50, got %+v", board[0])
	}
	for _, stats := range board {
		if stats.PlayerID == "x" {
			if stats.GamesPlayed != 2 || stats.TotalScore != 30 || stats.AvgScore != 15 || stats.BestRank != 1 {
				t.Fatalf("unexpected aggregates for x: %+v", stats)
			}
		}
	}

	summary, err := gateway.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if summary.TotalSessions != 2 || summary.TotalPlayers != 2 || summary.TotalGames != 4 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func migrateDB(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func seedQuestionSet(t *testing.T, ctx context.Context, db *bun.DB, set domain.QuestionSet) {
	t.Helper()
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal question set: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_sets (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, set.ID, string(data)); err != nil {
		t.Fatalf("insert question set: %v", err)
	}
}

func sampleQuestionSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "default",
		Questions: []domain.Question{
			{
				Prompt:       "What is the capital of France?",
				Choices:      []string{"London", "Berlin", "Paris", "Madrid"},
				CorrectIndex: 2,
			},
		},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
