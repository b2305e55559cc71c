package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_EmitSync(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	ctx := context.Background()

	err := pub.Emit(ctx, Event{Action: ActionCredentialIssued, EduID: "CREDCHAIN-AB5D-1708105200000-A3F9"})
	require.NoError(t, err)

	events, err := pub.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionCredentialIssued, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "timestamp must be stamped on emit")
}

func TestPublisher_EmitAsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(16))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, pub.Emit(ctx, Event{Action: ActionCredentialRevoked, Timestamp: time.Now()}))
	}
	pub.Close()

	events, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestStore_ListByEduID(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{Action: ActionCredentialIssued, EduID: "CREDCHAIN-AB5D-1708105200000-AAAA"}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionCredentialIssued, EduID: "CREDCHAIN-AB5D-1708105200000-BBBB"}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionCredentialRevoked, EduID: "CREDCHAIN-AB5D-1708105200000-AAAA"}))

	events, err := store.ListByEduID(ctx, "CREDCHAIN-AB5D-1708105200000-AAAA")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionCredentialIssued, events[0].Action)
	assert.Equal(t, ActionCredentialRevoked, events[1].Action)
}
