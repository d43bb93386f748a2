package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"practice-quiz-service/internal/app"
	"practice-quiz-service/internal/config"
	"practice-quiz-service/internal/domain"
	"practice-quiz-service/internal/explain"
	"practice-quiz-service/internal/infra/memory"
	pgloader "practice-quiz-service/internal/infra/postgres"
	redisinfra "practice-quiz-service/internal/infra/redis"
	"practice-quiz-service/internal/relay"
	transport "practice-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the practice-quiz server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBanks())
	if pool != nil {
		loader = pgloader.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var banks app.BankRepository
	if redisClient != nil {
		banks = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	bankID := cfg.Quiz.Bank
	if bankID == "" {
		bankID = "bank-1"
	}
	duration := config.TTLDuration(cfg.Quiz.Duration, time.Duration(app.DefaultTotalSeconds)*time.Second)

	apiKey := os.Getenv("EXPLAIN_API_KEY")

	var sink app.ResultSink
	if cfg.Sheets.Endpoint != "" {
		sink = relay.NewWebhookSink(cfg.Sheets.Endpoint, nil)
	} else {
		log.Printf("sheets endpoint not configured; result delivery disabled")
	}
	var explainer app.Explainer
	if cfg.Explain.Endpoint != "" {
		explainer = explain.NewClient(cfg.Explain.Endpoint, apiKey, nil)
	}

	service := app.NewPracticeService(store, banks, app.ServiceConfig{
		BankID:       bankID,
		TotalSeconds: int(duration / time.Second),
		Sink:         sink,
		Explainer:    explainer,
	})
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/relay/sheets", transport.NewSheetsRelay(cfg.Sheets.Endpoint, nil))
	mux.Handle("/relay/explain", transport.NewExplainRelay(cfg.Explain.Endpoint, apiKey, nil))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting practice-quiz service on :%s", finalPort)
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

// sampleBanks provides a small demo bank; production swaps this loader for
// the Postgres-backed one.
func sampleBanks() map[string][]domain.RawQuestion {
	return map[string][]domain.RawQuestion{
		"bank-1": {
			{
				"id":            "q1",
				"text":          "What is 2 + 2?",
				"options":       []any{"3", "4", "5"},
				"correctAnswer": "4",
				"subject":       "Math",
			},
			{
				"id":           "q2",
				"question":     "Which planet is known as the Red Planet?",
				"options":      []any{"Venus", "Mars", "Jupiter"},
				"correctIndex": 1,
				"topic":        "Science",
			},
			{
				"id":            "q3",
				"text":          "Which gas do plants absorb from the atmosphere?",
				"options":       []any{"Oxygen", "Nitrogen", "Carbon dioxide"},
				"correctAnswer": 2,
				"Subject":       "Biology",
			},
		},
	}
}
