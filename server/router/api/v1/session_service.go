package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phantomdelux3/ai-product-reccomendation/server/retrieval"
	"github.com/phantomdelux3/ai-product-reccomendation/store"
)

// SessionStore is the slice of the store the history endpoints need.
type SessionStore interface {
	GetSession(ctx context.Context, find *store.FindSession) (*store.Session, error)
	ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error)
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
}

// SessionService serves session listings and turn history.
type SessionService struct {
	Store SessionStore
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	CreatedTs int64  `json:"createdTs"`
}

type messageResponse struct {
	MessageID        string              `json:"messageId"`
	UserContent      string              `json:"userContent"`
	AssistantContent string              `json:"assistantContent"`
	Products         []retrieval.Product `json:"products"`
	IsReload         bool                `json:"isReload"`
	IsGuided         bool                `json:"isGuided"`
	CreatedTs        int64               `json:"createdTs"`
}

// ListSessions returns a guest's sessions, most recently active first.
func (s *SessionService) ListSessions(c echo.Context) error {
	guestID := c.Param("guestId")
	if guestID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "guestId is required")
	}

	sessions, err := s.Store.ListSessions(c.Request().Context(), &store.FindSession{GuestID: &guestID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sessions")
	}

	response := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, sessionResponse{
			SessionID: session.UID,
			Name:      session.Name,
			CreatedTs: session.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}

// ListSessionMessages returns a session's turns oldest first, with the
// product snapshots attached to each assistant reply.
func (s *SessionService) ListSessionMessages(c echo.Context) error {
	sessionUID := c.Param("sessionId")
	if sessionUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId is required")
	}

	ctx := c.Request().Context()
	session, err := s.Store.GetSession(ctx, &store.FindSession{UID: &sessionUID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to find session")
	}
	if session == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	messages, err := s.Store.ListMessages(ctx, &store.FindMessage{SessionID: &session.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages")
	}

	response := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		item := messageResponse{
			MessageID:   m.UID,
			UserContent: m.UserContent,
			Products:    []retrieval.Product{},
			IsReload:    m.IsReload,
			IsGuided:    m.IsGuided,
			CreatedTs:   m.CreatedTs,
		}
		if m.AssistantContent != nil {
			item.AssistantContent = *m.AssistantContent
		}
		if m.Products != nil {
			if err := json.Unmarshal([]byte(*m.Products), &item.Products); err != nil {
				slog.Warn("corrupt product snapshot", slog.String("message", m.UID), slog.String("error", err.Error()))
				item.Products = []retrieval.Product{}
			}
		}
		response = append(response, item)
	}
	return c.JSON(http.StatusOK, response)
}
