package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"browser-sync/internal/auth"
	"browser-sync/internal/config"
	apphttp "browser-sync/internal/http"
	"browser-sync/internal/metrics"
	"browser-sync/internal/repository/sqlstore"
	"browser-sync/internal/service"
)

func newServeCommand(logger *logrus.Logger, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := sqlstore.Migrate(db); err != nil {
			return err
		}
		logger.Info("database schema up to date")
	}

	userRepo := sqlstore.NewUserRepository(db)
	historyRepo := sqlstore.NewHistoryRepository(db)
	bookmarkRepo := sqlstore.NewBookmarkRepository(db)
	settingRepo := sqlstore.NewSettingRepository(db)

	userService, err := service.NewUserService(userRepo, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.TokenTTL())
	if err != nil {
		return err
	}

	m := metrics.New()
	if err := m.RegisterDB(db.DB, string(db.Dialect())); err != nil {
		return fmt.Errorf("register db metrics: %w", err)
	}

	var backups service.BackupService
	if cfg.BackupsEnabled() {
		store, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("setup storage: %w", err)
		}
		backups = service.NewBackupService(store, cfg.Storage.KeyPrefix, historyRepo, bookmarkRepo, settingRepo)
	} else {
		logger.Info("storage bucket not set, backups disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	handler := apphttp.NewHandler(apphttp.Dependencies{
		Users:     userService,
		History:   service.NewHistoryService(historyRepo),
		Bookmarks: service.NewBookmarkService(bookmarkRepo),
		Settings:  service.NewSettingService(settingRepo),
		Backups:   backups,
		Tokens:    tokens,
		Metrics:   m,
		Health:    db,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apphttp.NewRouter(handler),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on %s (%s datastore)", cfg.Server.Addr, db.Dialect())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("http shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("bye")
	return nil
}
