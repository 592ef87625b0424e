package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medinotes/notes-api/internal/config"
	"github.com/medinotes/notes-api/internal/domain/identity"
	"github.com/medinotes/notes-api/internal/domain/insights"
	"github.com/medinotes/notes-api/internal/domain/notes"
	"github.com/medinotes/notes-api/internal/domain/scheduling"
	"github.com/medinotes/notes-api/internal/platform/ai"
	"github.com/medinotes/notes-api/internal/platform/auth"
	"github.com/medinotes/notes-api/internal/platform/cache"
	"github.com/medinotes/notes-api/internal/platform/db"
	"github.com/medinotes/notes-api/internal/platform/middleware"
	"github.com/medinotes/notes-api/internal/platform/summarize"
	"github.com/medinotes/notes-api/internal/platform/telemetry"
	"github.com/medinotes/notes-api/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "notes-server",
		Short:        "Secure medical notes API server",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(summarizeCmd())
	root.AddCommand(userCmd())
	return root
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the notes API server",
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

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(dir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printMigrationStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func withMigrator(dir string, fn func(ctx context.Context, m *db.Migrator) error) error {
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

	return fn(ctx, db.NewMigrator(pool, migrationFiles(dir)))
}

func migrationFiles(dir string) fs.FS {
	if dir == "" {
		return migrations.Files
	}
	return os.DirFS(dir)
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func summarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print the deterministic summary of a note as JSON",
		Long:  "Reads note text from --file (or stdin when --file is empty or \"-\") and prints the structured summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			noteType, _ := cmd.Flags().GetString("type")

			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			content, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read note: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summarize.Summarize(string(content), noteType))
		},
	}
	cmd.Flags().StringP("file", "f", "", "Note file to summarize (\"-\" for stdin)")
	cmd.Flags().StringP("type", "t", notes.TypeGeneral, "Note type")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := identity.RegisterRequest{}
			req.Email, _ = cmd.Flags().GetString("email")
			req.Password, _ = cmd.Flags().GetString("password")
			req.FullName, _ = cmd.Flags().GetString("name")
			req.Role, _ = cmd.Flags().GetString("role")

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

			svc := identity.NewService(identity.NewUserRepo(pool), identity.NewPatientRepo(pool), nil, nil)
			u, err := svc.Register(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("password", "", "Password")
	createCmd.Flags().String("name", "", "Full name")
	createCmd.Flags().String("role", auth.RoleNurse, "Role: admin, doctor or nurse")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")
	_ = createCmd.MarkFlagRequired("name")

	cmd.AddCommand(createCmd)
	return cmd
}

func loadServeConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServer() error {
	// Config
	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()

	// Tracing
	shutdownTracing, err := telemetry.Init(ctx, logger, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "notes-api",
		Version:     version,
		Environment: cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    !cfg.IsProduction(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise tracing")
	}

	// Database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	applied, err := db.NewMigrator(pool, migrations.Files).Up(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}
	logger.Info().Int("applied", applied).Msg("migrations up to date")

	// Redis is optional: token revocation falls back to memory and
	// summaries go uncached.
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, continuing without it")
		} else {
			defer rdb.Close()
			logger.Info().Msg("connected to redis")
		}
	}

	var revocations interface {
		auth.RevocationChecker
		identity.Revoker
	}
	if rdb != nil {
		revocations = auth.NewRedisRevocationStore(rdb, logger)
	} else {
		mem := auth.NewMemoryRevocationStore()
		defer mem.Close()
		revocations = mem
	}

	// AI
	metrics := telemetry.NewRegistry()
	primary := ai.FromConfig(cfg, logger)
	if _, det := primary.(*ai.Deterministic); !det && rdb != nil {
		primary = ai.NewCachedSummarizer(primary, cache.NewJSON(rdb, "notesum:", cfg.SummaryCacheTTL), logger)
	}
	aiSvc := ai.NewService(primary, logger, ai.WithTimeout(cfg.AITimeout), ai.WithRecorder(metrics))
	logger.Info().Str("provider", aiSvc.Provider()).Bool("enabled", aiSvc.Enabled()).Msg("ai service ready")

	// Domains
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	patientRepo := identity.NewPatientRepo(pool)
	noteRepo := notes.NewRepo(pool)

	identitySvc := identity.NewService(identity.NewUserRepo(pool), patientRepo, tokens, revocations)
	notesSvc := notes.NewService(noteRepo, aiSvc)
	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepo(pool))
	insightsSvc := insights.NewService(noteRepo, patientRepo, aiSvc)

	e := newRouter(routerDeps{
		cfg:         cfg,
		logger:      logger,
		tokens:      tokens,
		revocations: revocations,
		probe:       db.NewProbe(pool),
		metrics:     metrics,
		audit:       []middleware.AuditRecorder{middleware.NewPGAuditRecorder(pool)},
		handlers: []routeRegistrar{
			identity.NewHandler(identitySvc),
			notes.NewHandler(notesSvc),
			scheduling.NewHandler(schedulingSvc),
			insights.NewHandler(insightsSvc),
		},
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	return shutdown(e, shutdownTracing, logger)
}

func shutdown(e *echo.Echo, shutdownTracing telemetry.ShutdownFunc, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn().Err(err).Msg("flush traces")
	}
	logger.Info().Msg("server stopped")
	return nil
}
