package assembler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arephan/supaclaw/core"
	"github.com/Arephan/supaclaw/internal/testutil"
)

type stubRecaller struct {
	memories []core.Memory
	err      error
	gotQuery core.RecallQuery
	calls    int
}

func (s *stubRecaller) Recall(_ context.Context, q core.RecallQuery) ([]core.Memory, error) {
	s.gotQuery = q
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.memories, nil
}

type stubMessages struct {
	messages   []core.Message
	err        error
	gotSession string
	gotLimit   int
}

func (s *stubMessages) AppendMessage(_ context.Context, msg core.Message) (core.Message, error) {
	return msg, nil
}

func (s *stubMessages) RecentMessages(_ context.Context, sessionID string, limit int) ([]core.Message, error) {
	s.gotSession = sessionID
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.messages, nil
}

func TestGetContext_AssemblesPayload(t *testing.T) {
	now := time.Now()
	recaller := &stubRecaller{memories: []core.Memory{
		testutil.NewMemoryBuilder("a1").ID("m1").Content("prefers TypeScript").Build(),
		testutil.NewMemoryBuilder("a1").ID("m2").Content("works at Acme").Build(),
	}}
	messages := &stubMessages{messages: []core.Message{
		testutil.Message("s1", "user", "hello", now),
		testutil.Message("s1", "assistant", "hi there", now.Add(time.Second)),
	}}

	a := New(recaller, messages)
	payload, err := a.GetContext(context.Background(), ContextQuery{
		Text:      "what language",
		UserID:    "u1",
		SessionID: "s1",
	})
	require.NoError(t, err)

	assert.Len(t, payload.Memories, 2)
	assert.Len(t, payload.RecentMessages, 2)
	assert.Equal(t, "Relevant memories:\n- prefers TypeScript\n- works at Acme", payload.Summary)

	// Defaults flow into both collaborators.
	assert.Equal(t, DefaultMaxMemories, recaller.gotQuery.Limit)
	assert.Equal(t, "u1", recaller.gotQuery.UserID)
	assert.Equal(t, "s1", messages.gotSession)
	assert.Equal(t, DefaultMaxMessages, messages.gotLimit)
}

func TestGetContext_ExplicitBudgets(t *testing.T) {
	recaller := &stubRecaller{}
	messages := &stubMessages{}

	a := New(recaller, messages)
	_, err := a.GetContext(context.Background(), ContextQuery{
		Text:        "q",
		SessionID:   "s1",
		MaxMemories: 3,
		MaxMessages: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, recaller.gotQuery.Limit)
	assert.Equal(t, 7, messages.gotLimit)
}

func TestGetContext_FallbackSummaryWhenEmpty(t *testing.T) {
	a := New(&stubRecaller{}, &stubMessages{})
	payload, err := a.GetContext(context.Background(), ContextQuery{Text: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "No relevant memories.", payload.Summary)
	assert.Empty(t, payload.Memories)
	assert.Empty(t, payload.RecentMessages)
}

func TestGetContext_NoSessionSkipsHistory(t *testing.T) {
	messages := &stubMessages{messages: []core.Message{
		testutil.Message("s1", "user", "hello", time.Now()),
	}}
	a := New(&stubRecaller{}, messages)

	payload, err := a.GetContext(context.Background(), ContextQuery{Text: "q"})
	require.NoError(t, err)
	assert.Empty(t, payload.RecentMessages)
	assert.Empty(t, messages.gotSession)
}

func TestGetContext_NilMessageStore(t *testing.T) {
	a := New(&stubRecaller{}, nil)
	payload, err := a.GetContext(context.Background(), ContextQuery{Text: "q", SessionID: "s1"})
	require.NoError(t, err)
	assert.Empty(t, payload.RecentMessages)
}

func TestGetContext_RecallErrorPropagates(t *testing.T) {
	recallErr := core.NewRetrievalError("vector search", errors.New("down"))
	a := New(&stubRecaller{err: recallErr}, &stubMessages{})

	_, err := a.GetContext(context.Background(), ContextQuery{Text: "q"})
	assert.ErrorIs(t, err, recallErr)
}

func TestGetContext_MessageStoreErrorWrapped(t *testing.T) {
	a := New(&stubRecaller{}, &stubMessages{err: errors.New("db gone")})

	_, err := a.GetContext(context.Background(), ContextQuery{Text: "q", SessionID: "s1"})
	var retErr *core.RetrievalError
	require.ErrorAs(t, err, &retErr)
	assert.Equal(t, "recent messages", retErr.Op)
}

func TestGetContext_Deterministic(t *testing.T) {
	recaller := &stubRecaller{memories: []core.Memory{
		testutil.NewMemoryBuilder("a1").ID("m1").Content("fact one").Build(),
	}}
	a := New(recaller, nil)

	first, err := a.GetContext(context.Background(), ContextQuery{Text: "q"})
	require.NoError(t, err)
	second, err := a.GetContext(context.Background(), ContextQuery{Text: "q"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, recaller.calls)
}
