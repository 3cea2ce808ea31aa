package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solar_planner/internal/api"
	"solar_planner/internal/config"
	"solar_planner/internal/repository"
	"solar_planner/internal/service"
	"solar_planner/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn("Warning: .env file not found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(logger.Options{
		Level:     cfg.LogLevel,
		Directory: cfg.LogDir,
		MaxAge:    cfg.LogMaxAge,
	}); err != nil {
		logger.Fatal("Failed to initialize logger: " + err.Error())
	}
	logger.Info("Starting Solar Planner")

	// Initialize project store
	db, err := config.InitDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database: " + err.Error())
	}
	defer db.Close()

	store, err := repository.NewStore(db, cfg.StoreSlot)
	if err != nil {
		logger.Fatal("Failed to initialize store: " + err.Error())
	}

	// Optional sizing snapshots
	var sink repository.SnapshotSink
	influx, err := config.InitSnapshotDatabase(cfg)
	if err != nil {
		logger.Warnf("Sizing snapshots disabled: %v", err)
	} else if influx != nil {
		defer influx.Close()
		sink = repository.NewInfluxSnapshotSink(influx)
	}

	// Initialize services
	svc := service.NewService(context.Background(), store, sink, clockwork.NewRealClock(), cfg.DebounceWindow())

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(svc)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server listening on %s (store=%s, slot=%s)", cfg.Addr(), store.Type(), cfg.StoreSlot)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error: " + err.Error())
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdown(srv, svc, 5*time.Second, 10*time.Second)

	logger.Info("Server stopped gracefully")
}

type flusher interface {
	Close(ctx context.Context)
}

// shutdown drains HTTP within grace, then writes pending autosaves under
// their own flush deadline
func shutdown(srv *http.Server, svc flusher, grace, flush time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced shutdown: %v", err)
	}

	// pending autosaves are written before the store closes
	flushCtx, flushCancel := context.WithTimeout(context.Background(), flush)
	defer flushCancel()
	svc.Close(flushCtx)
}
