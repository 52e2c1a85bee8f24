// Package chatctx maintains the sliding window of recent conversation turns
// used to ground intent extraction and narrative generation. It layers a fast
// tier (Redis) over the durable message store: reads prefer the fast tier and
// fall back to the store, writes go to both, and every fast-tier failure
// degrades silently to the durable path.
package chatctx

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/phantomdelux3/ai-product-reccomendation/store"
)

const (
	// maxContextTurns bounds the window of turn pairs kept per session.
	maxContextTurns = 10
	// contextTTL is how long a cached window survives without activity.
	contextTTL = time.Hour

	keyPrefix = "chat:ctx:"
)

// ErrCacheMiss is returned by FastTier implementations when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// TurnPair is one completed exchange: what the user said and what the
// assistant answered.
type TurnPair struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// FastTier is the volatile cache in front of the durable store.
type FastTier interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MessageSource is the slice of the store the cache needs for fallback reads.
type MessageSource interface {
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
}

// ContextCache resolves and maintains per-session conversation windows.
type ContextCache struct {
	fast   FastTier
	source MessageSource
}

func NewContextCache(fast FastTier, source MessageSource) *ContextCache {
	return &ContextCache{
		fast:   fast,
		source: source,
	}
}

func cacheKey(sessionUID string) string {
	return keyPrefix + sessionUID
}

// GetContext returns the most recent turn pairs for a session, oldest first.
// excludeUID names the in-flight message so a half-written turn never leaks
// into its own context.
func (c *ContextCache) GetContext(ctx context.Context, sessionID int32, sessionUID string, excludeUID string) []TurnPair {
	if raw, err := c.fast.Get(ctx, cacheKey(sessionUID)); err == nil {
		var turns []TurnPair
		if err := json.Unmarshal([]byte(raw), &turns); err == nil {
			return turns
		}
		slog.Warn("corrupt cached context, falling back to store", slog.String("session", sessionUID))
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("fast tier read failed", slog.String("session", sessionUID), slog.String("error", err.Error()))
	}

	turns := c.loadFromStore(ctx, sessionID, excludeUID)
	c.put(ctx, sessionUID, turns)
	return turns
}

// UpdateContext appends a completed turn to the cached window, trimming to the
// window bound. Failures are logged and swallowed: the durable store already
// holds the turn.
func (c *ContextCache) UpdateContext(ctx context.Context, sessionID int32, sessionUID string, turn TurnPair) {
	var turns []TurnPair
	if raw, err := c.fast.Get(ctx, cacheKey(sessionUID)); err == nil {
		if err := json.Unmarshal([]byte(raw), &turns); err != nil {
			turns = c.loadFromStore(ctx, sessionID, "")
			c.put(ctx, sessionUID, turns)
			return
		}
	} else if errors.Is(err, ErrCacheMiss) {
		// The store already contains the new turn, so a fresh load is the
		// whole window.
		turns = c.loadFromStore(ctx, sessionID, "")
		c.put(ctx, sessionUID, turns)
		return
	} else {
		slog.Warn("fast tier read failed", slog.String("session", sessionUID), slog.String("error", err.Error()))
		return
	}

	turns = append(turns, turn)
	if len(turns) > maxContextTurns {
		turns = turns[len(turns)-maxContextTurns:]
	}
	c.put(ctx, sessionUID, turns)
}

// Invalidate drops a session's cached window.
func (c *ContextCache) Invalidate(ctx context.Context, sessionUID string) {
	if err := c.fast.Delete(ctx, cacheKey(sessionUID)); err != nil && !errors.Is(err, ErrCacheMiss) {
		slog.Warn("fast tier delete failed", slog.String("session", sessionUID), slog.String("error", err.Error()))
	}
}

func (c *ContextCache) put(ctx context.Context, sessionUID string, turns []TurnPair) {
	raw, err := json.Marshal(turns)
	if err != nil {
		return
	}
	if err := c.fast.Set(ctx, cacheKey(sessionUID), string(raw), contextTTL); err != nil {
		slog.Warn("fast tier write failed", slog.String("session", sessionUID), slog.String("error", err.Error()))
	}
}

func (c *ContextCache) loadFromStore(ctx context.Context, sessionID int32, excludeUID string) []TurnPair {
	limit := maxContextTurns
	find := &store.FindMessage{
		SessionID: &sessionID,
		OrderDesc: true,
		Limit:     &limit,
	}
	if excludeUID != "" {
		find.ExcludeUID = &excludeUID
	}

	messages, err := c.source.ListMessages(ctx, find)
	if err != nil {
		slog.Warn("failed to load context from store", slog.Int("session_id", int(sessionID)), slog.String("error", err.Error()))
		return nil
	}

	// Messages arrive newest first; the window reads oldest first.
	turns := make([]TurnPair, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		turn := TurnPair{User: m.UserContent}
		if m.AssistantContent != nil {
			turn.Assistant = *m.AssistantContent
		}
		turns = append(turns, turn)
	}
	return turns
}
