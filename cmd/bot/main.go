package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xaenox/second-brain/internal/api"
	"github.com/xaenox/second-brain/internal/bot"
	"github.com/xaenox/second-brain/internal/classifier"
	"github.com/xaenox/second-brain/internal/metrics"
	"github.com/xaenox/second-brain/internal/storage"
	"github.com/xaenox/second-brain/pkg/config"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize token storage
	var store storage.TokenStore
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory token storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL token storage")
		dbConfig := storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metrics.Router(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	// Tag suggestions use GPT when a key is configured
	var suggester classifier.Suggester = classifier.NewSimpleClassifier(cfg.Classifier.MaxTags)
	if cfg.OpenAI.APIKey != "" {
		suggester = classifier.NewGPTClassifier(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			cfg.Classifier.MaxTags,
			logger,
		)
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, collector, logger)

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, bot.Config{
		NotifyTTL:     cfg.Notify.TTL,
		RatePerMinute: cfg.Bot.RatePerMinute,
		Burst:         cfg.Bot.Burst,
	}, client, store, suggester, collector, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}
