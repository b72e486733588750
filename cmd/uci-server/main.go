package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/uci-core/uci-server/internal/config"
	"github.com/uci-core/uci-server/internal/domain/census"
	"github.com/uci-core/uci-server/internal/domain/handoff"
	"github.com/uci-core/uci-server/internal/domain/labs"
	"github.com/uci-core/uci-server/internal/domain/patientview"
	"github.com/uci-core/uci-server/internal/domain/staff"
	"github.com/uci-core/uci-server/internal/platform/db"
	"github.com/uci-core/uci-server/internal/platform/httperr"
	"github.com/uci-core/uci-server/internal/platform/listcache"
	"github.com/uci-core/uci-server/internal/platform/middleware"
)

// PassReaderAdapter adapts the handoff service to the
// patientview.PassReader interface, avoiding circular imports between
// the patientview and handoff packages.
type PassReaderAdapter struct {
	svc *handoff.Service
}

func (a *PassReaderAdapter) LatestPass(ctx context.Context, patientID uuid.UUID) (*handoff.ClinicalPass, error) {
	return a.svc.LatestForPatient(ctx, patientID)
}

// CultureReaderAdapter adapts the labs service to
// patientview.CultureReader.
type CultureReaderAdapter struct {
	svc *labs.Service
}

func (a *CultureReaderAdapter) LatestCulture(ctx context.Context, patientID uuid.UUID) (*labs.Culture, error) {
	return a.svc.LatestForPatient(ctx, patientID)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "uci-server",
		Short: "ICU patient management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	// migrate down - keep as warning
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Roll back by restoring a backup or applying a corrective forward migration.")
			return nil
		},
	})

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// List cache: Redis when configured, in-process otherwise.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	var store listcache.Store
	if cfg.RedisURL != "" {
		redisStore, err := listcache.NewRedis(ctx, cfg.RedisURL, "uci")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info().Msg("list cache backed by redis")
	} else {
		mem := listcache.NewMemory()
		cleanupCtx, cleanupCancel := context.WithCancel(ctx)
		defer cleanupCancel()
		mem.StartCleanup(cleanupCtx, time.Minute)
		store = mem
	}
	cache := listcache.New(store, ttl)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httperr.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")

	// -- Register Domain Handlers --

	txRunner := db.PoolRunner{Pool: pool}

	// Census domain (patients and beds)
	patientRepo := census.NewPatientRepo(pool)
	bedRepo := census.NewBedRepo(pool)
	censusSvc := census.NewService(patientRepo, bedRepo, txRunner, cache)
	census.NewHandler(censusSvc).RegisterRoutes(apiV1)

	// Staff domain (physicians and roles)
	physicianRepo := staff.NewPhysicianRepo(pool)
	roleRepo := staff.NewRoleRepo(pool)
	staffSvc := staff.NewService(physicianRepo, roleRepo, cache)
	staff.NewHandler(staffSvc).RegisterRoutes(apiV1)

	// Handoff domain (clinical passes)
	passRepo := handoff.NewPassRepo(pool)
	handoffSvc := handoff.NewService(passRepo, cache)
	handoff.NewHandler(handoffSvc).RegisterRoutes(apiV1)

	// Labs domain (cultures)
	cultureRepo := labs.NewCultureRepo(pool)
	labsSvc := labs.NewService(cultureRepo, cache)
	labs.NewHandler(labsSvc).RegisterRoutes(apiV1)

	// Patient detail aggregation
	viewSvc := patientview.NewService(
		censusSvc,
		censusSvc,
		&PassReaderAdapter{svc: handoffSvc},
		&CultureReaderAdapter{svc: labsSvc},
	)
	patientview.NewHandler(viewSvc).RegisterRoutes(apiV1)

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.StartServer(srv); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
