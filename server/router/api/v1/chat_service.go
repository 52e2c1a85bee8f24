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

	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai"
	"github.com/phantomdelux3/ai-product-reccomendation/plugin/ai/intent"
	"github.com/phantomdelux3/ai-product-reccomendation/server/internal/observability"
	"github.com/phantomdelux3/ai-product-reccomendation/server/middleware"
	"github.com/phantomdelux3/ai-product-reccomendation/server/retrieval"
	"github.com/phantomdelux3/ai-product-reccomendation/store"
	"github.com/phantomdelux3/ai-product-reccomendation/store/chatctx"
)

// sessionNameLimit caps the display name derived from the first message.
const sessionNameLimit = 50

// fallbackNarrative is used when the completion provider returns nothing
// usable for the narrative step.
const fallbackNarrative = "Here are some gift ideas I found for you."

// ConversationStore is the slice of the store the chat turn needs.
type ConversationStore interface {
	GetSession(ctx context.Context, find *store.FindSession) (*store.Session, error)
	CreateSession(ctx context.Context, create *store.Session) (*store.Session, error)
	UpdateSession(ctx context.Context, update *store.UpdateSession) (*store.Session, error)
	CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error)
	UpdateMessage(ctx context.Context, update *store.UpdateMessage) (*store.Message, error)
}

// TurnContext resolves and maintains the conversation window.
type TurnContext interface {
	GetContext(ctx context.Context, sessionID int32, sessionUID string, excludeUID string) []chatctx.TurnPair
	UpdateContext(ctx context.Context, sessionID int32, sessionUID string, turn chatctx.TurnPair)
}

// IntentExtractor produces a retrieval intent from history and message.
type IntentExtractor interface {
	Extract(ctx context.Context, history []intent.Turn, message string) intent.Intent
}

// ProductRetriever runs the multi-source search.
type ProductRetriever interface {
	Retrieve(ctx context.Context, req retrieval.Request) (retrieval.Result, error)
}

// ChatService orchestrates one chat turn end to end and streams progress as
// newline-delimited JSON events.
type ChatService struct {
	Store      ConversationStore
	Context    TurnContext
	Extractor  IntentExtractor
	Retriever  ProductRetriever
	Completion ai.CompletionService
	Limiter    *middleware.RateLimiter
}

type turnRequest struct {
	Message    string   `json:"message"`
	SessionID  string   `json:"sessionId"`
	GuestID    string   `json:"guestId"`
	IsReload   bool     `json:"isReload"`
	ExcludeIDs []string `json:"excludeIds"`
	SeenBrands []string `json:"seenBrands"`
}

type turnResult struct {
	SessionID         string              `json:"sessionId"`
	MessageID         string              `json:"messageId"`
	AssistantResponse string              `json:"assistantResponse"`
	Products          []retrieval.Product `json:"products"`
	ToastdProducts    []retrieval.Product `json:"toastdProducts"`
	Preferences       intent.Intent       `json:"preferences"`
}

type streamEvent struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    *turnResult `json:"data,omitempty"`
}

// HandleTurn is the streamed chat endpoint. Input errors are rejected with a
// plain client error before streaming starts; once the stream is open, the
// turn terminates with exactly one result or error event.
func (s *ChatService) HandleTurn(c echo.Context) error {
	var req turnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if strings.TrimSpace(req.GuestID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "guestId is required")
	}
	if s.Limiter != nil && !s.Limiter.Allow(req.GuestID) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/x-ndjson")
	c.Response().WriteHeader(http.StatusOK)

	encoder := json.NewEncoder(c.Response())
	emit := func(event streamEvent) error {
		if err := encoder.Encode(event); err != nil {
			return err
		}
		c.Response().Flush()
		observability.GlobalMetrics().RecordStreamChunk()
		return nil
	}

	s.runTurn(c.Request().Context(), req, emit)
	return nil
}

// runTurn drives the turn state machine. Emit failures mean the client went
// away; the turn stops quietly.
func (s *ChatService) runTurn(ctx context.Context, req turnRequest, emit func(streamEvent) error) {
	metrics := observability.GlobalMetrics()
	metrics.RecordTurn()

	reqCtx := observability.NewRequestContext(slog.Default(), req.SessionID, req.GuestID)
	fail := func(stage string, err error) {
		metrics.RecordTurnFailure()
		reqCtx.Error("turn aborted", err, slog.String(observability.LogFieldStage, stage))
		_ = emit(streamEvent{Type: "error", Message: "Something went wrong while finding gifts. Please try again."})
	}

	session, err := s.resolveSession(ctx, req)
	if err != nil {
		fail("session", err)
		return
	}
	reqCtx.SessionUID = session.UID

	now := time.Now().Unix()
	message, err := s.Store.CreateMessage(ctx, &store.Message{
		UID:         shortuuid.New(),
		SessionID:   session.ID,
		UserContent: req.Message,
		IsReload:    req.IsReload,
		CreatedTs:   now,
	})
	if err != nil {
		fail("persist_user_turn", err)
		return
	}
	if _, err := s.Store.UpdateSession(ctx, &store.UpdateSession{ID: session.ID, UpdatedTs: &now}); err != nil {
		reqCtx.Warn("failed to bump session timestamp", slog.String("error", err.Error()))
	}

	if emit(streamEvent{Type: "status", Message: "thinking"}) != nil {
		return
	}

	history := s.Context.GetContext(ctx, session.ID, session.UID, message.UID)

	if emit(streamEvent{Type: "status", Message: "analyzing your request"}) != nil {
		return
	}
	stageStart := time.Now()
	turns := make([]intent.Turn, 0, len(history))
	for _, pair := range history {
		turns = append(turns, intent.Turn{User: pair.User, Assistant: pair.Assistant})
	}
	extracted := s.Extractor.Extract(ctx, turns, req.Message)
	metrics.RecordStage("intent", time.Since(stageStart), nil)

	if emit(streamEvent{Type: "status", Message: fmt.Sprintf("searching in %s", extracted.TargetCollection)}) != nil {
		return
	}
	stageStart = time.Now()
	result, err := s.Retriever.Retrieve(ctx, retrieval.Request{
		Intent:     extracted,
		ExcludeIDs: req.ExcludeIDs,
		SeenBrands: req.SeenBrands,
		IsReload:   req.IsReload,
	})
	metrics.RecordStage("retrieval", time.Since(stageStart), err)
	if err != nil {
		fail("retrieval", err)
		return
	}

	statusMsg := "no matches found"
	if len(result.Primary) > 0 {
		statusMsg = fmt.Sprintf("found %d products", len(result.Primary))
	}
	if emit(streamEvent{Type: "status", Message: statusMsg}) != nil {
		return
	}

	stageStart = time.Now()
	narrative, err := s.generateNarrative(ctx, history, req.Message, extracted, len(result.Primary))
	metrics.RecordStage("narrative", time.Since(stageStart), err)
	if err != nil {
		fail("narrative", err)
		return
	}

	allProducts := append(append([]retrieval.Product{}, result.Primary...), result.Secondary...)
	serialized, err := json.Marshal(allProducts)
	if err != nil {
		fail("persist_assistant_turn", err)
		return
	}
	products := string(serialized)
	// Assistant content and products land in one write so they are never
	// observed half-present.
	if _, err := s.Store.UpdateMessage(ctx, &store.UpdateMessage{
		ID:               message.ID,
		AssistantContent: &narrative,
		Products:         &products,
	}); err != nil {
		fail("persist_assistant_turn", err)
		return
	}

	s.Context.UpdateContext(ctx, session.ID, session.UID, chatctx.TurnPair{
		User:      req.Message,
		Assistant: narrative,
	})

	reqCtx.Info("turn completed",
		slog.String(observability.LogFieldCatalog, extracted.TargetCollection),
		slog.Int(observability.LogFieldProductCount, len(result.Primary)),
		slog.Int(observability.LogFieldMessageLen, len(req.Message)),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))

	_ = emit(streamEvent{Type: "result", Data: &turnResult{
		SessionID:         session.UID,
		MessageID:         message.UID,
		AssistantResponse: narrative,
		Products:          result.Primary,
		ToastdProducts:    result.Secondary,
		Preferences:       extracted,
	}})
}

// resolveSession finds the referenced session or creates a fresh one named
// after the message prefix.
func (s *ChatService) resolveSession(ctx context.Context, req turnRequest) (*store.Session, error) {
	if req.SessionID != "" {
		session, err := s.Store.GetSession(ctx, &store.FindSession{UID: &req.SessionID})
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	}

	now := time.Now().Unix()
	return s.Store.CreateSession(ctx, &store.Session{
		UID:       shortuuid.New(),
		Name:      sessionName(req.Message),
		GuestID:   req.GuestID,
		CreatedTs: now,
		UpdatedTs: now,
	})
}

func sessionName(message string) string {
	runes := []rune(message)
	if len(runes) > sessionNameLimit {
		runes = runes[:sessionNameLimit]
	}
	return string(runes)
}

func (s *ChatService) generateNarrative(ctx context.Context, history []chatctx.TurnPair, message string, extracted intent.Intent, found int) (string, error) {
	system := notFoundPrompt(extracted.MissingInfo)
	if found > 0 {
		system = foundPrompt(found, extracted.NeedsClarification)
	}

	messages := []ai.Message{ai.SystemPrompt(system)}
	for _, pair := range history {
		messages = append(messages, ai.UserMessage(pair.User))
		if pair.Assistant != "" {
			messages = append(messages, ai.AssistantMessage(pair.Assistant))
		}
	}
	messages = append(messages, ai.UserMessage(message))

	narrative, err := s.Completion.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		narrative = fallbackNarrative
	}
	return narrative, nil
}
