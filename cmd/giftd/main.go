package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/phantomdelux3/ai-product-reccomendation/internal/profile"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/vector/qdrant"
	"github.com/phantomdelux3/ai-product-reccomendation/server/retrieval"
	v1 "github.com/phantomdelux3/ai-product-reccomendation/server/router/api/v1"
	"github.com/phantomdelux3/ai-product-reccomendation/store"
	"github.com/phantomdelux3/ai-product-reccomendation/store/chatctx"
	"github.com/phantomdelux3/ai-product-reccomendation/store/db"
)

const greetingBanner = `giftd - conversational gift recommendations`

// version is stamped at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "giftd",
	Short: "A conversational gift-recommendation server",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	instanceProfile := &profile.Profile{Version: version}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return fmt.Errorf("failed to create db driver: %w", err)
	}
	defer driver.Close()
	if err := driver.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	storeInstance := store.New(driver, instanceProfile)

	var fastTier chatctx.FastTier = chatctx.NilFastTier{}
	if instanceProfile.IsCacheEnabled() {
		redisTier, err := chatctx.NewRedisTier(instanceProfile.RedisAddr, instanceProfile.RedisPassword, instanceProfile.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, context cache disabled", slog.String("error", err.Error()))
		} else {
			fastTier = redisTier
		}
	}
	defer fastTier.Close()
	contextCache := chatctx.NewContextCache(fastTier, storeInstance)

	embedder, err := ai.NewEmbeddingService(&ai.EmbeddingConfig{
		Provider:        instanceProfile.EmbeddingProvider,
		APIKey:          instanceProfile.EmbeddingAPIKey,
		BaseURL:         instanceProfile.EmbeddingBaseURL,
		Model:           instanceProfile.EmbeddingModel,
		Dimensions:      instanceProfile.EmbeddingDimensions,
		EncodeServerURL: instanceProfile.EncodeServerURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}
	completion, err := ai.NewCompletionService(&ai.CompletionConfig{
		APIKey:  instanceProfile.LLMAPIKey,
		BaseURL: instanceProfile.LLMBaseURL,
		Model:   instanceProfile.LLMModel,
	})
	if err != nil {
		return fmt.Errorf("failed to create completion service: %w", err)
	}

	index := qdrant.New(qdrant.Config{
		URL:    instanceProfile.QdrantURL,
		APIKey: instanceProfile.QdrantAPIKey,
	})
	toastd := retrieval.NewToastdClient(instanceProfile.ToastdURL)
	retriever := retrieval.NewRetriever(embedder, index, toastd, instanceProfile.GenericCollection)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, values echomw.RequestLoggerValues) error {
			slog.Info("request",
				slog.String("uri", values.URI),
				slog.Int("status", values.Status))
			return nil
		},
	}))

	apiService := v1.NewAPIV1Service(instanceProfile, storeInstance, index, contextCache, completion, retriever)
	apiService.RegisterRoutes(e)

	addr := fmt.Sprintf("%s:%d", instanceProfile.Addr, instanceProfile.Port)
	go func() {
		slog.Info(greetingBanner,
			slog.String("addr", addr),
			slog.String("mode", instanceProfile.Mode),
			slog.String("driver", instanceProfile.Driver))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", slog.String("error", err.Error()))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
		slog.Info("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", slog.String("error", err.Error()))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
