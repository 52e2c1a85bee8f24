// Package v1 exposes the HTTP API: the streamed chat turn endpoint, session
// history, guided search, and feedback.
package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/phantomdelux3/ai-product-reccomendation/internal/profile"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai/intent"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/vector"
	"github.com/phantomdelux3/ai-product-reccomendation/server/internal/observability"
	"github.com/phantomdelux3/ai-product-reccomendation/server/middleware"
	"github.com/phantomdelux3/ai-product-reccomendation/server/retrieval"
	"github.com/phantomdelux3/ai-product-reccomendation/store"
	"github.com/phantomdelux3/ai-product-reccomendation/store/chatctx"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Index   vector.Index

	ChatService     *ChatService
	SessionService  *SessionService
	FeedbackService *FeedbackService
	GuidedService   *GuidedService
}

func NewAPIV1Service(
	profile *profile.Profile,
	store *store.Store,
	index vector.Index,
	contextCache *chatctx.ContextCache,
	completion ai.CompletionService,
	retriever *retrieval.Retriever,
) *APIV1Service {
	extractor := intent.NewExtractor(completion, profile.GenericCollection)
	return &APIV1Service{
		Profile: profile,
		Store:   store,
		Index:   index,
		ChatService: &ChatService{
			Store:      store,
			Context:    contextCache,
			Extractor:  extractor,
			Retriever:  retriever,
			Completion: completion,
			Limiter:    middleware.NewRateLimiter(),
		},
		SessionService:  &SessionService{Store: store},
		FeedbackService: &FeedbackService{Store: store},
		GuidedService:   &GuidedService{Retriever: retriever, Store: store},
	}
}

// RegisterRoutes attaches the API routes to the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.health)
	e.GET("/metrics", s.metrics)

	api := e.Group("/api")
	api.POST("/chat/message", s.ChatService.HandleTurn)
	api.GET("/sessions/user/:guestId", s.SessionService.ListSessions)
	api.GET("/sessions/messages/:sessionId", s.SessionService.ListSessionMessages)
	api.POST("/feedback/product", s.FeedbackService.CreateProductFeedback)
	api.GET("/feedback", s.FeedbackService.ListFeedback)
	api.POST("/search/guided", s.GuidedService.Search)
	api.GET("/options", s.GuidedService.Options)
}

const healthCheckTimeout = 2 * time.Second

func (s *APIV1Service) health(c echo.Context) error {
	response := map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	}
	if s.Index != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		defer cancel()
		exists, err := s.Index.CollectionExists(ctx, s.Profile.GenericCollection)
		switch {
		case err != nil:
			response["qdrant"] = "unreachable"
		case !exists:
			response["qdrant"] = "missing_collection"
		default:
			response["qdrant"] = "ok"
		}
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) metrics(c echo.Context) error {
	m := observability.GlobalMetrics()
	return c.JSON(http.StatusOK, map[string]any{
		"turns_total":   m.GetTurnTotal(),
		"turns_failed":  m.GetTurnFailed(),
		"stream_chunks": m.GetStreamChunks(),
		"stages":        m.Snapshot(),
	})
}
