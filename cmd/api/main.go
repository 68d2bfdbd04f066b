package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dreamframe/server/internal/db"
	"github.com/dreamframe/server/internal/generate"
	"github.com/dreamframe/server/internal/history"
	"github.com/dreamframe/server/internal/http/handlers"
	"github.com/dreamframe/server/internal/http/httpapi"
	"github.com/dreamframe/server/internal/infra"
	"github.com/dreamframe/server/internal/metrics"
	"github.com/dreamframe/server/internal/poll"
	imageapi "github.com/dreamframe/server/internal/providers/image"
	videoapi "github.com/dreamframe/server/internal/providers/video"
	"github.com/dreamframe/server/internal/request"
	"github.com/dreamframe/server/internal/storage"
	"github.com/dreamframe/server/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if err := infra.Migrate(cfg.DatabaseURL, db.Migrations); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	objects, err := storage.ForConfig(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	m := metrics.New()
	runner := infra.NewSQLRunner(dbpool, logger)
	pg := store.NewPG(runner, logger)
	transfer := &generate.Transfer{Store: objects, Timeout: cfg.TransferTimeout}

	app := &handlers.App{
		Cfg:     cfg,
		Logger:  logger,
		Builder: &request.Builder{DefaultImageModel: cfg.ImageModel, DefaultVideoModel: cfg.VideoModel},
		Images: &generate.ImageOrchestrator{
			Prompts:  pg,
			Media:    pg,
			API:      imageapi.NewClient(imageapi.Options{BaseURL: cfg.ImageAPIBaseURL, APIKey: cfg.ImageAPIKey, Logger: &logger}),
			Transfer: transfer,
			Timeout:  cfg.GenerateTimeout,
			Logger:   logger,
			Metrics:  m,
		},
		Videos: &generate.VideoOrchestrator{
			Prompts: pg,
			Media:   pg,
			API:     videoapi.NewClient(videoapi.Options{BaseURL: cfg.VideoAPIBaseURL, APIKey: cfg.VideoAPIKey, Logger: &logger}),
			Timeout: cfg.GenerateTimeout,
			Logger:  logger,
			Metrics: m,
		},
		History:  &history.Projector{Store: pg, Logger: logger},
		Store:    pg,
		Poller:   &poll.Poller{Store: pg, Interval: cfg.PollInterval, Logger: logger, Metrics: m},
		Transfer: transfer,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		DefaultLocale:   cfg.DefaultLocale,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  []string{"*"},
		Logger:          logger,
		Metrics:         m,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
