// Package main is the entry point for the LunaTap authoritative server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelia-studio/lunatap-server/internal/domain/catalog"
	"github.com/avelia-studio/lunatap-server/internal/engine"
	"github.com/avelia-studio/lunatap-server/internal/events"
	"github.com/avelia-studio/lunatap-server/internal/infra/cache"
	"github.com/avelia-studio/lunatap-server/internal/infra/storage"
	"github.com/avelia-studio/lunatap-server/internal/network"
	"github.com/avelia-studio/lunatap-server/internal/platform/config"
	"github.com/avelia-studio/lunatap-server/internal/platform/logger"
	"github.com/avelia-studio/lunatap-server/internal/platform/metrics"
	"github.com/avelia-studio/lunatap-server/internal/platform/optimization"
)

// LedgerPersisterAdapter translates domain ledger entries to storage rows.
type LedgerPersisterAdapter struct {
	repo storage.LedgerRepository
}

func (a *LedgerPersisterAdapter) Append(ctx context.Context, e events.Entry) error {
	payloadMap := map[string]interface{}{}
	if e.Payload != nil {
		payloadBytes, _ := json.Marshal(e.Payload)
		json.Unmarshal(payloadBytes, &payloadMap)
	}

	err := a.repo.Append(ctx, storage.LedgerEntry{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		EntryType: string(e.Type),
		PlayerID:  e.PlayerID,
		Payload:   payloadMap,
	})
	metrics.Get().RecordLedgerAppend(err)
	return err
}

// loadCatalog picks the shipped catalog or a JSON file from config.
// Any validation failure aborts startup.
func loadCatalog(cfg config.Server, appLogger *logger.Logger) *catalog.Catalog {
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		appLogger.Info("Loading catalog from " + cfg.CatalogPath)
		data, err := os.ReadFile(cfg.CatalogPath)
		if err != nil {
			appLogger.Error("Failed to read catalog file: " + err.Error())
			os.Exit(1)
		}
		var fileCat catalog.Catalog
		if err := json.Unmarshal(data, &fileCat); err != nil {
			appLogger.Error("Failed to parse catalog file: " + err.Error())
			os.Exit(1)
		}
		cat = &fileCat
	}

	if err := cat.Validate(); err != nil {
		appLogger.Error("Invalid catalog: " + err.Error())
		os.Exit(1)
	}
	return cat
}

func main() {
	log.Println("[LUNATAP] Initializing LunaTap Authoritative Server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		appLogger.Error("Failed to load server config: " + err.Error())
		os.Exit(1)
	}
	balance, err := config.LoadBalance()
	if err != nil {
		appLogger.Error("Failed to load balance config: " + err.Error())
		os.Exit(1)
	}
	tuning := optimization.ForProfile(cfg.Profile)

	appLogger.Info("Initializing storage driver '" + cfg.Driver + "'...")
	var (
		playerRepo storage.PlayerRepository
		ledgerRepo storage.LedgerRepository
	)
	switch cfg.Driver {
	case "postgres":
		db, err := storage.InitPostgres(cfg.PostgresDSN, tuning.DBMaxOpenConns, tuning.DBMaxIdleConns)
		if err != nil {
			appLogger.Error("Failed to initialize Postgres: " + err.Error())
			os.Exit(1)
		}
		playerRepo = storage.NewPostgresPlayerRepository(db)
		ledgerRepo = storage.NewPostgresLedgerRepository(db)
	default:
		db, err := storage.InitSQLite(cfg.SQLitePath, tuning.DBMaxOpenConns, tuning.DBMaxIdleConns)
		if err != nil {
			appLogger.Error("Failed to initialize SQLite: " + err.Error())
			os.Exit(1)
		}
		playerRepo = storage.NewSQLitePlayerRepository(db)
		ledgerRepo = storage.NewSQLiteLedgerRepository(db)
	}

	appLogger.Info("Bootstrapping economy ledger...")
	ledger := events.NewLedger(&LedgerPersisterAdapter{repo: ledgerRepo}, func(err error) {
		appLogger.Error("Ledger write-through failed: " + err.Error())
	})

	holder := catalog.NewHolder(loadCatalog(cfg, appLogger))

	appLogger.Info("Bootstrapping engine...")
	eng := engine.NewEngine(playerRepo, ledger, holder, balance, engine.SystemClock{}, appLogger)

	var statsCache *cache.StatsCache
	if cfg.RedisAddr != "" {
		client := cache.NewGoRedisClient(cfg.RedisAddr, tuning.RedisPoolSize)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.Ping(pingCtx); err != nil {
			appLogger.Warn("Redis unreachable at " + cfg.RedisAddr + ", continuing without stats cache: " + err.Error())
		} else {
			statsCache = cache.NewStatsCache(client)
			appLogger.Info("Stats cache enabled via Redis at " + cfg.RedisAddr)
		}
		pingCancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(eng, appLogger, tuning)
	go hub.Run(ctx)
	hub.StartLedgerPoller(ctx, ledger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		network.ServeWS(hub, w, r)
	})
	network.NewAPIBridge(eng, statsCache, appLogger).RegisterRoutes(mux)
	network.NewAdminBridge(eng, storage.NewReconstructor(ledgerRepo, playerRepo), tuning, appLogger).RegisterRoutes(mux)
	network.NewLedgerReplayHandler(ledgerRepo, appLogger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Println("[LUNATAP] HTTP API & WS Server listening on " + cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[LUNATAP] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[LUNATAP] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown error: " + err.Error())
	}
}
