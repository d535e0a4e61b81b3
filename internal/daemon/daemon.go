package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/momentum-app/momentum/internal/api"
	"github.com/momentum-app/momentum/internal/app/progress"
	"github.com/momentum-app/momentum/internal/domain"
	"github.com/momentum-app/momentum/internal/infra/remote"
	"github.com/momentum-app/momentum/internal/infra/sqlite"
	"github.com/momentum-app/momentum/internal/infra/syncer"
)

// Daemon is the Momentum runtime. It wires together all services.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Store  *progress.Store
	Engine *progress.Engine
	Syncer *syncer.Syncer
	Server *api.Server
	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(momentumHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	session := domain.UserSession{
		UserID:      cfg.User.ID,
		JourneyName: cfg.User.Journey,
	}

	store := progress.NewStore(db, session)
	engine := progress.NewEngine(store)

	if _, err := store.Init(cfg.User.StartDate); err != nil {
		db.Close()
		return nil, fmt.Errorf("init progress state: %w", err)
	}

	d := &Daemon{
		Config: cfg,
		DB:     db,
		Store:  store,
		Engine: engine,
	}

	if !cfg.Remote.Disabled && cfg.Remote.BaseURL != "" {
		backend := remote.NewClient(
			cfg.Remote.BaseURL,
			cfg.Remote.AuthToken,
			time.Duration(cfg.Remote.TimeoutSecs)*time.Second,
		)
		d.Syncer = syncer.New(store, backend, db, syncer.Config{
			Debounce: time.Duration(cfg.Sync.DebounceMS) * time.Millisecond,
			Retry: syncer.RetryConfig{
				MaxAttempts: cfg.Sync.MaxAttempts,
				BaseDelay:   time.Duration(cfg.Sync.BaseDelayMS) * time.Millisecond,
				MaxDelay:    time.Duration(cfg.Sync.MaxDelayMS) * time.Millisecond,
			},
		})
		store.SetPusher(d.Syncer)
	}

	srv := api.NewServer(engine, d.Syncer, db)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if cfg.API.EnableMetrics {
		srv.EnableMetrics()
	}
	if cfg.Logging.Level == "debug" {
		srv.EnableRequestLogging()
	}
	d.Server = srv

	return d, nil
}

// applyLogging tees the standard logger into the configured log file.
// Returns a restore func that closes the file and reverts to stderr.
func applyLogging(cfg LoggingConfig) (func(), error) {
	if cfg.File == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	restoreLog, err := applyLogging(d.Config.Logging)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer restoreLog()

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if d.Syncer != nil {
			d.Syncer.Close()
		}
		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Momentum serving on http://%s\n", addr)
	if d.Config.API.EnableMetrics {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}
	if d.Syncer != nil {
		fmt.Printf("  Remote: %s\n", d.Config.Remote.BaseURL)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Syncer != nil {
		d.Syncer.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
