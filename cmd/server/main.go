package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Simplici0/buffet/internal/auth"
	"github.com/Simplici0/buffet/internal/config"
	"github.com/Simplici0/buffet/internal/db"
	"github.com/Simplici0/buffet/internal/logging"
	"github.com/Simplici0/buffet/internal/metrics"
	"github.com/Simplici0/buffet/internal/migrations"
	"github.com/Simplici0/buffet/internal/seed"
	"github.com/Simplici0/buffet/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "buffet",
		Short:         "Back office for buffet event budgets",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (default $"+config.EnvConfigPath+" or ./buffet.toml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd, configPath)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create the admin user, default settings and starter category",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSeed(cmd, configPath)
			},
		},
		newReportCmd(&configPath),
		newQuoteCmd(&configPath),
	)
	return root
}

// loadConfig reads the configuration and installs the logger.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.IsDev())
	for _, w := range cfg.Warnings() {
		slog.Warn("config warning", "detail", w)
	}
	return cfg, nil
}

func openStore(path string) (config.Config, *sqlite.Store, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return cfg, nil, err
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, store, nil
}

func runServe(ctx context.Context, configPath string) error {
	cfg, store, err := openStore(configPath)
	if err != nil {
		slog.Error("startup failed", "error", err)
		return err
	}
	defer store.Close()

	stats, err := seed.Run(ctx, store.DB(), seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		slog.Error("seed failed", "error", err)
		return err
	}
	slog.Info("seed completed", "inserts", stats.Inserts, "updates", stats.Updates)

	secret := cfg.SessionSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		slog.Warn("using an ephemeral session secret; sessions end on restart")
	}

	srv, err := newServer(cfg, store, auth.NewSessionManager(secret, cfg.SessionTTL.Duration), metrics.New())
	if err != nil {
		slog.Error("startup failed", "error", err)
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", httpServer.Addr, "env", cfg.Env)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		return err
	}
	version, err := migrations.Version(database)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, cfg.DBPath)
	return nil
}

func runSeed(cmd *cobra.Command, configPath string) error {
	cfg, store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := seed.Run(cmd.Context(), store.DB(), seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seed: %d inserts, %d updates\n", stats.Inserts, stats.Updates)
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
