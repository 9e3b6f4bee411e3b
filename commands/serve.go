package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"yatube/database"
	"yatube/jobs"
	"yatube/routes"
	"yatube/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)

		if err := database.Migrate(db); err != nil {
			return err
		}
		if cfg.Seed {
			if err := database.SeedData(db); err != nil {
				logger.Warn("failed to seed database", "err", err)
			}
		}

		pages, err := openCache(ctx, cfg)
		if err != nil {
			return err
		}
		defer pages.Close()
		logger.Info("page cache ready", "backend", cfg.CacheBackend, "ttl", cfg.CacheTTL)

		var sweeper *jobs.CacheSweepJob
		if mem, ok := pages.(memoryCache); ok && cfg.CacheSweepInterval > 0 {
			sweeper = jobs.NewCacheSweepJob(mem.MemoryStore, cfg.CacheSweepInterval, logger)
			sweeper.Start()
		}

		images, err := openImages(ctx, cfg)
		if err != nil {
			return err
		}

		opts := routes.Options{
			PageCache: pages,
			Images:    images,
			Logger:    logger,
		}
		if cfg.EmailEnabled() {
			opts.Notifier = services.NewEmailService(cfg, logger)
			logger.Info("comment notifications enabled", "smtp_host", cfg.SMTPHost)
		} else {
			logger.Info("comment notifications disabled (SMTP_HOST not set)")
		}

		gin.SetMode(cfg.GinMode)
		router := gin.New()
		router.Use(gin.Recovery())
		if err := routes.SetupRoutes(router, db, cfg, opts); err != nil {
			return err
		}

		httpServer := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("HTTP server listening", "addr", httpServer.Addr, "site_url", cfg.SiteURL)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()

		// Wait for SIGINT, SIGTERM or a listener failure.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
		case err := <-serveErr:
			logger.Error("HTTP server error", "err", err)
			if sweeper != nil {
				sweeper.Stop()
			}
			return fmt.Errorf("serve on %s: %w", httpServer.Addr, err)
		}

		if sweeper != nil {
			sweeper.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}
