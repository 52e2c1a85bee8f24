package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/phantomdelux3/ai-product-reccomendation/store"
)

// FeedbackStore persists and queries feedback records.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, create *store.Feedback) (*store.Feedback, error)
	ListFeedback(ctx context.Context, find *store.FindFeedback) ([]*store.Feedback, error)
}

// FeedbackService persists per-product ratings.
type FeedbackService struct {
	Store FeedbackStore
}

type feedbackRequest struct {
	SessionID string `json:"sessionId"`
	MessageID string `json:"messageId"`
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Reason    string `json:"reason"`
	Category  string `json:"category"`
}

// CreateProductFeedback records a 1-5 rating for a recommended product.
func (s *FeedbackService) CreateProductFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId is required")
	}
	if req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "productId is required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	feedback, err := s.Store.CreateFeedback(c.Request().Context(), &store.Feedback{
		SessionUID: req.SessionID,
		MessageUID: req.MessageID,
		ProductID:  req.ProductID,
		Rating:     req.Rating,
		Reason:     req.Reason,
		Category:   req.Category,
		CreatedTs:  time.Now().Unix(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save feedback")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"id":     feedback.ID,
		"status": "saved",
	})
}

type feedbackResponse struct {
	ID        int32  `json:"id"`
	SessionID string `json:"sessionId"`
	MessageID string `json:"messageId"`
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Reason    string `json:"reason"`
	Category  string `json:"category"`
	CreatedTs int64  `json:"createdTs"`
}

// ListFeedback returns feedback records newest first, optionally filtered by
// session or product.
func (s *FeedbackService) ListFeedback(c echo.Context) error {
	find := &store.FindFeedback{}
	if sessionUID := c.QueryParam("sessionId"); sessionUID != "" {
		find.SessionUID = &sessionUID
	}
	if productID := c.QueryParam("productId"); productID != "" {
		find.ProductID = &productID
	}

	list, err := s.Store.ListFeedback(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list feedback")
	}

	response := make([]feedbackResponse, 0, len(list))
	for _, f := range list {
		response = append(response, feedbackResponse{
			ID:        f.ID,
			SessionID: f.SessionUID,
			MessageID: f.MessageUID,
			ProductID: f.ProductID,
			Rating:    f.Rating,
			Reason:    f.Reason,
			Category:  f.Category,
			CreatedTs: f.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}
