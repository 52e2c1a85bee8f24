package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/phantomdelux3/ai-product-reccomendation/server/retrieval"
	"github.com/phantomdelux3/ai-product-reccomendation/store"
)

// GuidedSearcher runs the structured search variant.
type GuidedSearcher interface {
	GuidedRetrieve(ctx context.Context, req retrieval.GuidedRequest) ([]retrieval.Product, error)
}

// GuidedService serves the structured/guided search flow that bypasses
// free-text intent extraction. When the caller identifies themselves with a
// guestId, the search is recorded as a guided turn in their session history.
type GuidedService struct {
	Retriever GuidedSearcher
	Store     ConversationStore
}

type guidedRequest struct {
	Recipient    string   `json:"recipient"`
	ProductTypes []string `json:"productTypes"`
	Aesthetics   []string `json:"aesthetics"`
	Budget       string   `json:"budget"`
	SessionID    string   `json:"sessionId"`
	GuestID      string   `json:"guestId"`
}

// guidedOptions populates the guided-search pickers. The catalogs and
// subcategories change with ingestion releases, not at runtime.
var guidedOptions = map[string]any{
	"recipients": []string{"girlfriend", "boyfriend", "mother", "father", "friend"},
	"budgets": []map[string]string{
		{"value": "under_1000", "label": "Under ₹1,000"},
		{"value": "1000_3000", "label": "₹1,000 – ₹3,000"},
		{"value": "3000_8000", "label": "₹3,000 – ₹8,000"},
		{"value": "8000_plus", "label": "₹8,000+"},
	},
	"productTypes": map[string][]string{
		"girlfriend": {"jewellery", "skincare", "accessories", "wellness"},
		"boyfriend":  {"gadgets", "grooming", "sports", "accessories"},
		"mother":     {"home decor", "wellness", "kitchen", "accessories"},
		"father":     {"gadgets", "grooming", "office", "outdoors"},
		"friend":     {"games", "books", "experiences", "accessories"},
	},
	"aesthetics": []string{"minimal", "elegant", "quirky", "cozy", "sporty"},
}

// Search runs a guided retrieval and returns a flat product list.
func (s *GuidedService) Search(c echo.Context) error {
	var req guidedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient is required")
	}

	products, err := s.Retriever.GuidedRetrieve(c.Request().Context(), retrieval.GuidedRequest{
		Recipient:    req.Recipient,
		ProductTypes: req.ProductTypes,
		Aesthetics:   req.Aesthetics,
		BudgetBucket: req.Budget,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "guided search failed")
	}

	response := map[string]any{"products": products}
	if s.Store != nil && strings.TrimSpace(req.GuestID) != "" {
		session, message, err := s.recordGuidedTurn(c.Request().Context(), req, products)
		if err != nil {
			slog.Warn("failed to record guided turn", slog.String("error", err.Error()))
		} else {
			response["sessionId"] = session.UID
			response["messageId"] = message.UID
		}
	}

	return c.JSON(http.StatusOK, response)
}

// recordGuidedTurn persists the structured search as a completed turn so it
// shows up in the session history alongside free-text turns.
func (s *GuidedService) recordGuidedTurn(ctx context.Context, req guidedRequest, products []retrieval.Product) (*store.Session, *store.Message, error) {
	query := guidedQueryText(req)

	var session *store.Session
	if req.SessionID != "" {
		found, err := s.Store.GetSession(ctx, &store.FindSession{UID: &req.SessionID})
		if err != nil {
			return nil, nil, err
		}
		session = found
	}
	now := time.Now().Unix()
	if session == nil {
		created, err := s.Store.CreateSession(ctx, &store.Session{
			UID:       shortuuid.New(),
			Name:      sessionName(query),
			GuestID:   req.GuestID,
			CreatedTs: now,
			UpdatedTs: now,
		})
		if err != nil {
			return nil, nil, err
		}
		session = created
	}

	serialized, err := json.Marshal(products)
	if err != nil {
		return nil, nil, err
	}
	snapshot := string(serialized)
	summary := fmt.Sprintf("Found %d gift ideas for your %s.", len(products), req.Recipient)
	message, err := s.Store.CreateMessage(ctx, &store.Message{
		UID:              shortuuid.New(),
		SessionID:        session.ID,
		UserContent:      query,
		AssistantContent: &summary,
		Products:         &snapshot,
		IsGuided:         true,
		CreatedTs:        now,
	})
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.Store.UpdateSession(ctx, &store.UpdateSession{ID: session.ID, UpdatedTs: &now}); err != nil {
		slog.Warn("failed to bump session timestamp", slog.String("error", err.Error()))
	}
	return session, message, nil
}

// guidedQueryText renders the structured selections as the user turn text.
func guidedQueryText(req guidedRequest) string {
	parts := []string{"Gift ideas for " + req.Recipient}
	if len(req.ProductTypes) > 0 {
		parts = append(parts, strings.Join(req.ProductTypes, ", "))
	}
	if len(req.Aesthetics) > 0 {
		parts = append(parts, strings.Join(req.Aesthetics, ", "))
	}
	if req.Budget != "" {
		parts = append(parts, "budget "+req.Budget)
	}
	return strings.Join(parts, "; ")
}

// Options returns the static choice map for the guided flow.
func (s *GuidedService) Options(c echo.Context) error {
	return c.JSON(http.StatusOK, guidedOptions)
}
