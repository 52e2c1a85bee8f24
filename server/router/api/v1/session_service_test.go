package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phantomdelux3/ai-product-reccomendation/store"
)

type fakeSessionStore struct {
	sessions []*store.Session
	messages []*store.Message
}

func (f *fakeSessionStore) GetSession(_ context.Context, find *store.FindSession) (*store.Session, error) {
	for _, s := range f.sessions {
		if find.UID != nil && s.UID == *find.UID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionStore) ListSessions(_ context.Context, find *store.FindSession) ([]*store.Session, error) {
	list := []*store.Session{}
	for _, s := range f.sessions {
		if find.GuestID != nil && s.GuestID != *find.GuestID {
			continue
		}
		list = append(list, s)
	}
	return list, nil
}

func (f *fakeSessionStore) ListMessages(_ context.Context, find *store.FindMessage) ([]*store.Message, error) {
	list := []*store.Message{}
	for _, m := range f.messages {
		if find.SessionID != nil && m.SessionID != *find.SessionID {
			continue
		}
		list = append(list, m)
	}
	return list, nil
}

func getPath(t *testing.T, handler echo.HandlerFunc, path, paramName, paramValue string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames(paramName)
	c.SetParamValues(paramValue)

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestListSessions(t *testing.T) {
	service := &SessionService{Store: &fakeSessionStore{
		sessions: []*store.Session{
			{ID: 1, UID: "s1", Name: "gift for mom", GuestID: "guest-1", CreatedTs: 100},
			{ID: 2, UID: "s2", Name: "gift for dad", GuestID: "guest-2", CreatedTs: 200},
		},
	}}

	rec := getPath(t, service.ListSessions, "/api/sessions/user/guest-1", "guestId", "guest-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var response []sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "s1", response[0].SessionID)
	assert.Equal(t, "gift for mom", response[0].Name)
}

func TestListSessionMessages(t *testing.T) {
	assistant := "Here are some ideas."
	products := `[{"id": "p1", "title": "Yoga mat", "price": 1500, "source": "catalog"}]`
	service := &SessionService{Store: &fakeSessionStore{
		sessions: []*store.Session{{ID: 1, UID: "s1", GuestID: "guest-1"}},
		messages: []*store.Message{
			{ID: 10, UID: "m1", SessionID: 1, UserContent: "gift for girlfriend", AssistantContent: &assistant, Products: &products, CreatedTs: 100},
			{ID: 11, UID: "m2", SessionID: 1, UserContent: "cheaper please", CreatedTs: 200},
		},
	}}

	rec := getPath(t, service.ListSessionMessages, "/api/sessions/messages/s1", "sessionId", "s1")
	require.Equal(t, http.StatusOK, rec.Code)

	var response []messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 2)

	assert.Equal(t, "m1", response[0].MessageID)
	assert.Equal(t, assistant, response[0].AssistantContent)
	require.Len(t, response[0].Products, 1)
	assert.Equal(t, "p1", response[0].Products[0].ID)

	// In-flight turn: no assistant content, empty products.
	assert.Empty(t, response[1].AssistantContent)
	assert.Empty(t, response[1].Products)
}

func TestListSessionMessagesUnknownSession(t *testing.T) {
	service := &SessionService{Store: &fakeSessionStore{}}

	rec := getPath(t, service.ListSessionMessages, "/api/sessions/messages/nope", "sessionId", "nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSessionMessagesCorruptSnapshot(t *testing.T) {
	assistant := "Reply."
	products := `{broken`
	service := &SessionService{Store: &fakeSessionStore{
		sessions: []*store.Session{{ID: 1, UID: "s1"}},
		messages: []*store.Message{
			{ID: 10, UID: "m1", SessionID: 1, UserContent: "hi", AssistantContent: &assistant, Products: &products},
		},
	}}

	rec := getPath(t, service.ListSessionMessages, "/api/sessions/messages/s1", "sessionId", "s1")
	require.Equal(t, http.StatusOK, rec.Code)

	var response []messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Empty(t, response[0].Products)
}
