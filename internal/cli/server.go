package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-game-service/internal/app"
	"trivia-game-service/internal/config"
	"trivia-game-service/internal/domain"
	"trivia-game-service/internal/infra/memory"
	pgstore "trivia-game-service/internal/infra/postgres"
	redisstore "trivia-game-service/internal/infra/redis"
	transport "trivia-game-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	var bunDB *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
	}

	questionTTL := config.Duration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisstore.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, questionTTL)
	}

	timing := gameTiming(cfg)

	memGateway := memory.NewGateway()
	var gateway app.PersistenceGateway = memGateway
	var statsStore transport.StatsStore = memGateway
	if bunDB != nil {
		pg := pgstore.NewGateway(bunDB)
		gateway = pg
		statsStore = pg
	}

	var sessions app.SessionStore
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL, timing, gateway)
	} else {
		sessions = memory.NewSessionStore(timing, gateway)
	}

	service := app.NewGameService(sessions, questionRepo)
	wsHandler := transport.NewWSHandler(service)
	apiHandler := transport.NewAPIHandler(statsStore)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func gameTiming(cfg config.Config) app.Timing {
	timing := app.DefaultTiming()
	if cfg.Game.MinPlayers > 0 {
		timing.MinPlayers = cfg.Game.MinPlayers
	}
	timing.LobbyWait = config.Duration(cfg.Game.LobbyWait, timing.LobbyWait)
	timing.StartDelay = config.Duration(cfg.Game.StartDelay, timing.StartDelay)
	timing.AnswerWindow = config.Duration(cfg.Game.AnswerWindow, timing.AnswerWindow)
	timing.RevealDelay = config.Duration(cfg.Game.RevealDelay, timing.RevealDelay)
	timing.EndCooldown = config.Duration(cfg.Game.EndCooldown, timing.EndCooldown)
	return timing
}

// sampleQuestionSets provides a minimal built-in set; swap the loader for the
// Postgres-backed one in production.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"default": {
			ID: "default",
			Questions: []domain.Question{
				{
					Prompt:       "What is the capital of France?",
					Choices:      []string{"London", "Berlin", "Paris", "Madrid"},
					CorrectIndex: 2,
				},
				{
					Prompt:       "Which planet is known as the Red Planet?",
					Choices:      []string{"Venus", "Mars", "Jupiter", "Saturn"},
					CorrectIndex: 1,
				},
				{
					Prompt:       "What is 2 + 2?",
					Choices:      []string{"3", "4", "5", "6"},
					CorrectIndex: 1,
				},
			},
		},
	}
}
