package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arephan/supaclaw/core"
	"github.com/Arephan/supaclaw/internal/testutil"
)

// Interface compliance (compile-time assertion)
var _ core.MessageStore = (*InMemoryStore)(nil)

func TestInMemoryStore_AppendAssignsIdentity(t *testing.T) {
	s := NewInMemoryStore()
	msg, err := s.AppendMessage(context.Background(), core.Message{SessionID: "s1", Role: "user", Content: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestInMemoryStore_RecentMessagesChronological(t *testing.T) {
	s := NewInMemoryStore()
	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"first", "second", "third", "fourth"} {
		_, err := s.AppendMessage(context.Background(),
			testutil.Message("s1", "user", content, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	got, err := s.RecentMessages(context.Background(), "s1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Most recent two, oldest first.
	assert.Equal(t, "third", got[0].Content)
	assert.Equal(t, "fourth", got[1].Content)

	got, err = s.RecentMessages(context.Background(), "s1", 10)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestInMemoryStore_SessionsAreIsolated(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.AppendMessage(context.Background(), testutil.Message("s1", "user", "a", time.Now()))
	require.NoError(t, err)
	_, err = s.AppendMessage(context.Background(), testutil.Message("s2", "user", "b", time.Now()))
	require.NoError(t, err)

	got, err := s.RecentMessages(context.Background(), "s1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Content)
}

func TestInMemoryStore_EmptyCases(t *testing.T) {
	s := NewInMemoryStore()

	got, err := s.RecentMessages(context.Background(), "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.AppendMessage(context.Background(), testutil.Message("s1", "user", "a", time.Now()))
	require.NoError(t, err)
	got, err = s.RecentMessages(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInMemoryStore_ConcurrentAppend(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AppendMessage(context.Background(), core.Message{SessionID: "s1", Role: "user", Content: "x"}); err != nil {
				t.Errorf("append error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.RecentMessages(context.Background(), "s1", 100)
	require.NoError(t, err)
	assert.Len(t, got, 25)
}
