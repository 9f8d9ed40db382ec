package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwise1/civic_circle/config"
	deps "github.com/bwise1/civic_circle/internal/debs"
	"github.com/bwise1/civic_circle/internal/http/gemini"
	"github.com/bwise1/civic_circle/internal/http/google"
	"github.com/bwise1/civic_circle/internal/http/reportstore"
	api "github.com/bwise1/civic_circle/internal/http/rest"
	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/bwise1/civic_circle/internal/notify"
	"github.com/bwise1/civic_circle/internal/status"
	"github.com/bwise1/civic_circle/internal/summary"
	"github.com/sirupsen/logrus"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
)

func main() {
	cfg := config.New()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.Dsn == "" {
		logger.Log.Fatal("DSN is not set")
	}
	if cfg.JwtSecret == "" {
		logger.Log.Fatal("JWT_SECRET is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dependencies, err := deps.New(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to initialise dependencies")
	}

	if cfg.ServeReportStore && cfg.ReportStoreToken == "" {
		logger.Log.Warn("REPORT_STORE_TOKEN not set, the embedded report store refuses every request")
	}
	store := reportstore.New(cfg.ReportStoreURL, nil, reportstore.WithServiceToken(cfg.ReportStoreToken))
	notifier := notify.NewNotifier(dependencies.Mailer, cfg.AppURL)
	if !cfg.MailConfigured() {
		logger.Log.Warn("SMTP credentials not configured, status emails will be skipped")
	}

	var text summary.TextGenerator
	client, err := gemini.New(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
	switch {
	case err != nil:
		logger.Log.WithError(err).Warn("text generation unavailable, summaries use the local analysis")
	case !client.Available():
		logger.Log.Info("GOOGLE_API_KEY not set, summaries use the local analysis")
	default:
		text = client
	}

	a := &api.API{
		Config:    cfg,
		Deps:      dependencies,
		DB:        dependencies.Pool(),
		Users:     &api.UserRepo{DB: dependencies.Pool()},
		Reports:   &api.ReportRepo{DB: dependencies.Pool()},
		Store:     store,
		Invoker:   status.NewInvoker(store, notifier, dependencies.WebSocket),
		Summaries: summary.NewGenerator(store, text),
		Notifier:  notifier,
		Google:    google.NewClient(cfg.GoogleClientID),
		Feed:      dependencies.WebSocket,
	}
	if dependencies.Cloudinary != nil {
		a.Images = dependencies.Cloudinary
	} else {
		logger.Log.Info("Cloudinary not configured, report images are stored inline")
	}

	go dependencies.WebSocket.Run(ctx)
	go func() {
		logger.Log.WithFields(logrus.Fields{
			"port":         cfg.Port,
			"report_store": cfg.ReportStoreURL,
		}).Info("server running")
		if err := a.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Error("server stopped")
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	logger.Log.Infof("shutdown requested, waiting %v for in-flight connections", allowConnectionsAfterShutdown)
	<-time.After(allowConnectionsAfterShutdown)

	if err := a.Shutdown(context.Background()); err != nil {
		logger.Log.WithError(err).Error("server shutdown failed")
	}
	cancel()
	dependencies.Close()
	logger.Log.Info("server stopped, database connections closed")
}
