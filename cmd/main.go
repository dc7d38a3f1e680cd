/**
 * @description
 * This is the main entry point for the account-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the banking API client, the dispatch bus and its workers, and the
 * HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Optional transfer rate limiting backend.
 * - internal/api, internal/app, internal/bus, internal/config, internal/store,
 *   internal/worker: Internal packages for the service.
 * - pkg/fabrickclient: Client for the Fabrick banking API.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/contodemo/account-service/internal/api"
	"github.com/contodemo/account-service/internal/app"
	"github.com/contodemo/account-service/internal/bus"
	"github.com/contodemo/account-service/internal/config"
	"github.com/contodemo/account-service/internal/store"
	"github.com/contodemo/account-service/internal/worker"
	"github.com/contodemo/account-service/pkg/fabrickclient"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.FabrickAccountID) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"account id must be configured\" env=FABRICK_ACCOUNT_ID")
	}
	if strings.TrimSpace(cfg.FabrickAPIKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"api key must be configured\" env=FABRICK_API_KEY")
	}

	log.Printf("level=info component=bootstrap msg=\"starting account-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Persistence traffic is light (one batch per transaction list read), so
	// the pool stays small.
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Optional Redis connection for transfer rate limiting. A missing or
	// unreachable Redis only disables the limiter.
	var redisClient *redis.Client
	if cfg.TransferRateLimitPerMinute > 0 {
		if cfg.RedisURL == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; transfer rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; transfer rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; transfer rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the client for the Fabrick banking API.
	fabrick := fabrickclient.NewClient(cfg.FabrickAPIBaseURL, cfg.FabrickAPIKey, cfg.FabrickAuthSchema)

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Bring up the dispatch bus and register one worker per topic.
	dispatchBus := bus.New(time.Duration(cfg.BusRequestTimeoutSeconds) * time.Second)
	workers := []interface {
		Register(*bus.Bus) error
	}{
		worker.NewBalanceWorker(fabrick),
		worker.NewTransactionsWorker(fabrick),
		worker.NewTransferExecutor(fabrick),
		worker.NewPersistenceWorker(repository),
	}
	for _, w := range workers {
		if err := w.Register(dispatchBus); err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"worker registration failed\" err=%v", err)
		}
	}
	log.Println("level=info component=bootstrap msg=\"dispatch bus ready\"")

	// Initialize the core dispatch service with its dependencies.
	var limiter app.RateLimiter
	if redisClient != nil {
		limiter = app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}
	accountService := app.NewService(dispatchBus, fabrick, cfg.FabrickAccountID, limiter, cfg.TransferRateLimitPerMinute)

	// Initialize the API handlers and router.
	accountHandlers := api.NewAccountHandlers(accountService)
	router := api.AccountRoutes(accountHandlers)

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
