package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"billa/internal/auth"
	"billa/internal/cache"
	"billa/internal/cli"
	"billa/internal/core"
	apphttp "billa/internal/http"
	"billa/internal/mail"
	"billa/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting billa server")

	cfg := cli.LoadAndValidateConfig(logger)
	st := cli.OpenStore(logger, cfg)
	defer st.Close()

	summaryCache := cache.NewLRU[core.Summary](500, 5*time.Minute)
	service := services.NewSubscriptionService(st, summaryCache)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	// Mail is optional; without credentials the notify endpoints
	// report 503 and everything else works.
	var sender mail.Sender
	if gm, err := mail.NewGmailFromEnv(context.Background(), cfg.MailSender); err != nil {
		logger.Warn("Mail delivery disabled", "error", err)
	} else {
		sender = gm
	}

	srv := apphttp.NewServer(service, st, sender, tokens, apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminEmail:         cfg.AdminEmail,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	summaryCache.StartCleanup(ctx, 10*time.Minute)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Listening", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
