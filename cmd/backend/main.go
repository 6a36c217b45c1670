package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	completionimpl "github.com/foxseedlab/mensetsu/external/completion"
	configloader "github.com/foxseedlab/mensetsu/external/config"
	"github.com/foxseedlab/mensetsu/external/discord"
	eventsimpl "github.com/foxseedlab/mensetsu/external/events"
	"github.com/foxseedlab/mensetsu/external/httpserver"
	repositoryimpl "github.com/foxseedlab/mensetsu/external/repository"
	storageimpl "github.com/foxseedlab/mensetsu/external/storage"
	textextractimpl "github.com/foxseedlab/mensetsu/external/textextract"
	transcriberimpl "github.com/foxseedlab/mensetsu/external/transcriber"
	webhookimpl "github.com/foxseedlab/mensetsu/external/webhook"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/foxseedlab/mensetsu/internal/events"
	"github.com/foxseedlab/mensetsu/internal/guidelines"
	"github.com/foxseedlab/mensetsu/internal/resume"
	"github.com/foxseedlab/mensetsu/internal/session"
	"github.com/foxseedlab/mensetsu/internal/transcriber"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout  = 15 * time.Second
	migrationTimeout = 30 * time.Second
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mensetsu",
		Short:         "AI mock-interview backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context())
		},
	})
	return root
}

func runServe(ctx context.Context) error {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "completion_provider", cfg.CompletionProvider)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)
	defer closeResources(injector)

	server, err := do.Invoke[*httpserver.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		return err
	}
	index := do.MustInvoke[*guidelines.Index](injector)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := index.Init(gctx); err != nil {
			slog.Warn("guidelines index unavailable, resume reviews run without guidelines", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return server.Start(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		return err
	}
	return nil
}

func runMigrate(ctx context.Context) error {
	cfg := mustLoadConfig()
	initLogger(cfg)

	ctx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer pool.Close()

	if err := repositoryimpl.RunMigration(ctx, pool); err != nil {
		slog.Error("migration failed", "error", err)
		return err
	}
	slog.Info("migration completed")
	return nil
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	completionimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	eventsimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	storageimpl.RegisterDI(injector)
	textextractimpl.RegisterDI(injector)
	guidelines.RegisterDI(injector)
	session.RegisterDI(injector)
	resume.RegisterDI(injector)
	httpserver.RegisterDI(injector)

	return injector
}

// closeResources releases the long-lived clients that were actually built.
func closeResources(injector do.Injector) {
	if stt, err := do.Invoke[transcriber.Transcriber](injector); err == nil {
		closeIfCloser("transcriber", stt)
	}
	if pub, err := do.Invoke[events.Publisher](injector); err == nil {
		closeIfCloser("event publisher", pub)
	}
	if pool, err := do.Invoke[*pgxpool.Pool](injector); err == nil {
		pool.Close()
	}
}

func closeIfCloser(name string, v any) {
	c, ok := v.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		slog.Error("failed to close "+name, "error", err)
	}
}
