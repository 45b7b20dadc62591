package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"lumigente/internal/domain/audit"
	"lumigente/internal/domain/auth"
	"lumigente/internal/domain/employee"
	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
	"lumigente/internal/domain/usersync"
	"lumigente/internal/platform/config"
	"lumigente/internal/platform/db"
	"lumigente/internal/platform/jobs"
	"lumigente/internal/platform/logger"
	"lumigente/internal/platform/metrics"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Jobs   *jobs.Service
	Router http.Handler

	syncAll jobs.RunFunc
}

// New connects to the database, applies migrations and wires every service
// behind the router. Call Close when done.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	collector := metrics.New()
	rules := make([]hierarchy.LevelRule, 0, len(cfg.LevelOverrides))
	for _, o := range cfg.LevelOverrides {
		rules = append(rules, hierarchy.LevelRule{Pattern: o.Pattern, MinLevel: o.MinLevel})
	}
	levels := hierarchy.NewCalculator(cfg.HierarchyDelimiter, rules)
	access := hierarchy.NewAccessTable(cfg.FullAccessDepartments)

	org := hierarchy.NewStore(pool)
	accounts := users.NewStore(pool)
	auditSvc := audit.New(pool)
	employees := employee.NewService(employee.NewStore(pool))
	resolver := hierarchy.NewResolver(employees, org, levels, collector)
	classifier := hierarchy.NewClassifier(org, levels, access)

	authSvc := auth.NewService(employees, accounts, org, resolver, levels, auth.NewStore(pool), auditSvc, auth.Settings{
		Secret:      cfg.SessionSecret,
		SessionTTL:  cfg.SessionTTL,
		SpecialCPFs: cfg.SpecialUserCPFs,
	})
	syncer := usersync.New(employees, accounts, org, resolver, auditSvc, usersync.Settings{
		Concurrency: cfg.SyncConcurrency,
		SpecialCPFs: cfg.SpecialUserCPFs,
	})

	jobSvc := jobs.New(jobs.NewStore(pool))
	syncAll := func(ctx context.Context) (any, error) {
		result, err := syncer.SyncAll(ctx)
		collector.ObserveSync(err)
		if err != nil {
			return result, err
		}
		if cfg.RunSeed {
			if err := db.Seed(ctx, pool, cfg); err != nil {
				return result, fmt.Errorf("seed: %w", err)
			}
		}
		return result, nil
	}

	router := NewRouter(Deps{
		Config:     cfg,
		Auth:       authSvc,
		Directory:  users.NewService(accounts, org, classifier, levels),
		Classifier: classifier,
		Resolver:   resolver,
		Access:     access,
		Jobs:       jobSvc,
		SyncAll:    syncAll,
		Syncer:     syncer,
		Audit:      auditSvc,
		Metrics:    collector,
		Ready:      pool.Ping,
	})

	return &App{Config: cfg, DB: pool, Jobs: jobSvc, Router: router, syncAll: syncAll}, nil
}

// Start launches the job worker and the periodic user sync.
func (a *App) Start(ctx context.Context) {
	a.Jobs.Start(ctx)
	a.Jobs.Schedule(ctx, jobs.JobUserSync, a.Config.SyncInterval, true, a.syncAll)
}

// SyncNow runs a full user sync through the job runner and waits for it.
func (a *App) SyncNow(ctx context.Context) (any, error) {
	return a.Jobs.RunNow(ctx, jobs.JobUserSync, a.syncAll)
}

func (a *App) Close() {
	a.DB.Close()
}

func Run() {
	cfg := config.Load()
	base := logger.New(logger.Config{Env: cfg.Environment, Level: cfg.LogLevel})
	if err := cfg.Validate(); err != nil {
		base.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.With(ctx, base)

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer app.Close()
	app.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Addr).Str("env", cfg.Environment).Msg("LumiGente server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
