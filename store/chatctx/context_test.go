package chatctx

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phantomdelux3/ai-product-reccomendation/store"
)

type fakeSource struct {
	messages []*store.Message
	err      error

	lastFind *store.FindMessage
}

func (s *fakeSource) ListMessages(_ context.Context, find *store.FindMessage) ([]*store.Message, error) {
	s.lastFind = find
	if s.err != nil {
		return nil, s.err
	}

	list := []*store.Message{}
	for _, m := range s.messages {
		if find.ExcludeUID != nil && m.UID == *find.ExcludeUID {
			continue
		}
		list = append(list, m)
	}
	// Callers ask newest first.
	if find.OrderDesc {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
	}
	if find.Limit != nil && len(list) > *find.Limit {
		list = list[:*find.Limit]
	}
	return list, nil
}

func strPtr(s string) *string {
	return &s
}

func TestGetContextFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		messages: []*store.Message{
			{UID: "m1", SessionID: 1, UserContent: "hello", AssistantContent: strPtr("hi there"), CreatedTs: 1},
			{UID: "m2", SessionID: 1, UserContent: "gift for mom", AssistantContent: strPtr("here are some ideas"), CreatedTs: 2},
			{UID: "m3", SessionID: 1, UserContent: "cheaper options", CreatedTs: 3},
		},
	}
	fast := NewMockFastTier()
	cache := NewContextCache(fast, source)

	turns := cache.GetContext(ctx, 1, "sess-1", "m3")
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].User)
	assert.Equal(t, "hi there", turns[0].Assistant)
	assert.Equal(t, "gift for mom", turns[1].User)

	// The window is repopulated into the fast tier.
	raw, err := fast.Get(ctx, "chat:ctx:sess-1")
	require.NoError(t, err)
	var cached []TurnPair
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, turns, cached)
	assert.Equal(t, contextTTL, fast.TTLs["chat:ctx:sess-1"])
}

func TestGetContextPrefersFastTier(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{err: errors.New("store should not be hit")}
	fast := NewMockFastTier()
	cache := NewContextCache(fast, source)

	cached := []TurnPair{{User: "hello", Assistant: "hi"}}
	raw, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, fast.Set(ctx, "chat:ctx:sess-1", string(raw), contextTTL))

	turns := cache.GetContext(ctx, 1, "sess-1", "")
	assert.Equal(t, cached, turns)
	assert.Nil(t, source.lastFind)
}

func TestGetContextSurvivesFastTierFailure(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		messages: []*store.Message{
			{UID: "m1", SessionID: 1, UserContent: "hello", AssistantContent: strPtr("hi"), CreatedTs: 1},
		},
	}
	fast := NewMockFastTier()
	fast.GetErr = errors.New("connection refused")
	cache := NewContextCache(fast, source)

	turns := cache.GetContext(ctx, 1, "sess-1", "")
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].User)
}

func TestGetContextCorruptCacheFallsBack(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		messages: []*store.Message{
			{UID: "m1", SessionID: 1, UserContent: "hello", AssistantContent: strPtr("hi"), CreatedTs: 1},
		},
	}
	fast := NewMockFastTier()
	require.NoError(t, fast.Set(ctx, "chat:ctx:sess-1", "{not json", contextTTL))
	cache := NewContextCache(fast, source)

	turns := cache.GetContext(ctx, 1, "sess-1", "")
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].User)
}

func TestUpdateContextAppendsAndTrims(t *testing.T) {
	ctx := context.Background()
	fast := NewMockFastTier()
	cache := NewContextCache(fast, &fakeSource{})

	window := []TurnPair{}
	for i := 0; i < maxContextTurns; i++ {
		window = append(window, TurnPair{User: fmt.Sprintf("turn %d", i), Assistant: "ok"})
	}
	raw, err := json.Marshal(window)
	require.NoError(t, err)
	require.NoError(t, fast.Set(ctx, "chat:ctx:sess-1", string(raw), contextTTL))

	cache.UpdateContext(ctx, 1, "sess-1", TurnPair{User: "newest", Assistant: "sure"})

	got, err := fast.Get(ctx, "chat:ctx:sess-1")
	require.NoError(t, err)
	var turns []TurnPair
	require.NoError(t, json.Unmarshal([]byte(got), &turns))
	require.Len(t, turns, maxContextTurns)
	assert.Equal(t, "turn 1", turns[0].User)
	assert.Equal(t, "newest", turns[maxContextTurns-1].User)
}

func TestUpdateContextMissReloadsFromStore(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		messages: []*store.Message{
			{UID: "m1", SessionID: 1, UserContent: "hello", AssistantContent: strPtr("hi"), CreatedTs: 1},
			{UID: "m2", SessionID: 1, UserContent: "gift for dad", AssistantContent: strPtr("got it"), CreatedTs: 2},
		},
	}
	fast := NewMockFastTier()
	cache := NewContextCache(fast, source)

	cache.UpdateContext(ctx, 1, "sess-1", TurnPair{User: "gift for dad", Assistant: "got it"})

	got, err := fast.Get(ctx, "chat:ctx:sess-1")
	require.NoError(t, err)
	var turns []TurnPair
	require.NoError(t, json.Unmarshal([]byte(got), &turns))
	require.Len(t, turns, 2)
	assert.Equal(t, "gift for dad", turns[1].User)
}

func TestUpdateContextSwallowsWriteFailure(t *testing.T) {
	ctx := context.Background()
	fast := NewMockFastTier()
	fast.SetErr = errors.New("connection refused")
	cache := NewContextCache(fast, &fakeSource{})

	// Must not panic or surface the error.
	cache.UpdateContext(ctx, 1, "sess-1", TurnPair{User: "hello", Assistant: "hi"})
}

func TestInvalidateDropsWindow(t *testing.T) {
	ctx := context.Background()
	fast := NewMockFastTier()
	cache := NewContextCache(fast, &fakeSource{})

	require.NoError(t, fast.Set(ctx, "chat:ctx:sess-1", "[]", contextTTL))
	cache.Invalidate(ctx, "sess-1")

	_, err := fast.Get(ctx, "chat:ctx:sess-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
