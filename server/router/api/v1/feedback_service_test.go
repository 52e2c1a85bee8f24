package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phantomdelux3/ai-product-reccomendation/store"
)

type fakeFeedbackStore struct {
	created []*store.Feedback
}

func (f *fakeFeedbackStore) CreateFeedback(_ context.Context, create *store.Feedback) (*store.Feedback, error) {
	create.ID = int32(len(f.created) + 1)
	f.created = append(f.created, create)
	return create, nil
}

func (f *fakeFeedbackStore) ListFeedback(_ context.Context, find *store.FindFeedback) ([]*store.Feedback, error) {
	list := []*store.Feedback{}
	for _, fb := range f.created {
		if find.SessionUID != nil && fb.SessionUID != *find.SessionUID {
			continue
		}
		if find.ProductID != nil && fb.ProductID != *find.ProductID {
			continue
		}
		list = append(list, fb)
	}
	return list, nil
}

func postFeedback(t *testing.T, service *FeedbackService, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/feedback/product", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := service.CreateProductFeedback(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestCreateProductFeedback(t *testing.T) {
	st := &fakeFeedbackStore{}
	service := &FeedbackService{Store: st}

	rec := postFeedback(t, service, `{"sessionId": "s1", "messageId": "m1", "productId": "p1", "rating": 4, "reason": "nice but pricey", "category": "price"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, st.created, 1)
	f := st.created[0]
	assert.Equal(t, "s1", f.SessionUID)
	assert.Equal(t, "m1", f.MessageUID)
	assert.Equal(t, "p1", f.ProductID)
	assert.Equal(t, 4, f.Rating)
	assert.Equal(t, "price", f.Category)
	assert.NotZero(t, f.CreatedTs)
}

func TestListFeedback(t *testing.T) {
	st := &fakeFeedbackStore{created: []*store.Feedback{
		{ID: 1, SessionUID: "s1", MessageUID: "m1", ProductID: "p1", Rating: 5, CreatedTs: 100},
		{ID: 2, SessionUID: "s2", MessageUID: "m2", ProductID: "p2", Rating: 2, CreatedTs: 200},
	}}
	service := &FeedbackService{Store: st}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/feedback", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, service.ListFeedback(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var response []feedbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 2)

	// Query filters narrow the listing.
	req = httptest.NewRequest(http.MethodGet, "/api/feedback?sessionId=s1", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, service.ListFeedback(e.NewContext(req, rec)))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "p1", response[0].ProductID)
	assert.Equal(t, 5, response[0].Rating)
}

func TestCreateProductFeedbackValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing session", `{"productId": "p1", "rating": 4}`},
		{"missing product", `{"sessionId": "s1", "rating": 4}`},
		{"missing rating", `{"sessionId": "s1", "productId": "p1"}`},
		{"rating too high", `{"sessionId": "s1", "productId": "p1", "rating": 6}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeFeedbackStore{}
			service := &FeedbackService{Store: st}

			rec := postFeedback(t, service, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, st.created)
		})
	}
}
