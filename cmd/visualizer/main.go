package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"visualizer/internal/editor"
	"visualizer/internal/http/handlers"
	httpapi "visualizer/internal/http/httpapi"
	"visualizer/internal/i18n"
	"visualizer/internal/infra"
	"visualizer/internal/infra/geoip"
	"visualizer/internal/providers/gemini"
	"visualizer/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, &logger); err != nil {
		stop()
		logger.Fatal().Err(err).Msg("visualizer stopped")
	}
	logger.Info().Msg("server stopped")
}

// run wires the service and serves until ctx is done. Every resource it
// opens is released before it returns, including on startup failures.
func run(ctx context.Context, cfg *infra.Config, logger *infra.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		resolver = &geoip.Resolver{}
	}
	defer resolver.Close()

	previews, err := storage.NewPreviewStore(cfg.PreviewDir)
	if err != nil {
		return fmt.Errorf("prepare preview directory: %w", err)
	}
	defer func() {
		if err := previews.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to clean preview directory")
		}
	}()

	client, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GeminiTimeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create gemini client: %w", err)
	}

	sessions := editor.NewRegistry(func() *editor.Controller {
		return editor.NewController(editor.Options{
			Generator:     client,
			Previews:      previews,
			DefaultPrompt: i18n.DefaultPrompt(cfg.DefaultLocale),
			Timeout:       cfg.GeminiTimeout,
			Logger:        logger,
		})
	}, cfg.SessionIdle, logger)
	defer sessions.Close()
	go sessions.Run(ctx, cfg.SessionSweep)

	var lookup func(string) (string, error)
	if resolver.Enabled() {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(previews, logger, cfg.MaxUploadBytes)
	app.AllowedOrigins = cfg.AllowedOrigins
	app.Sessions = sessions
	router := httpapi.NewRouter(app, sessions, httpapi.Options{
		DefaultLocale:  cfg.DefaultLocale,
		AllowedOrigins: cfg.AllowedOrigins,
		CountryLookup:  lookup,
		Logger:         logger,
	})
	server := infra.NewHTTPServer(cfg, router)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("model", client.Model()).
			Bool("geoip", resolver.Enabled()).
			Msg("visualizer listening")
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	return nil
}
