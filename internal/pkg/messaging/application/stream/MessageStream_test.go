package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feedAdapter "github.com/Abedmejri/Artplat/internal/infrastructure/feed/adapter"
	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

// streamRepo serves canned history; only the methods a stream touches do
// anything.
type streamRepo struct {
	repository.DirectoryRepository
	history []messaging.Message
}

func (r *streamRepo) ListMessages(ctx context.Context, conversationID int64) ([]messaging.Message, error) {
	var out []messaging.Message
	for _, m := range r.history {
		if conversationID == PublicRoom || m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

type streamResolver struct {
	profiles map[string]*messaging.Profile
}

func (r *streamResolver) ResolveOne(ctx context.Context, userID string) (*messaging.Profile, error) {
	return r.profiles[userID], nil
}

func msgAt(id, conversationID int64, sender string, sec int) messaging.Message {
	return messaging.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       sender,
		Content:        "m",
		CreatedAt:      time.Unix(int64(sec), 0).UTC(),
	}
}

func waitForUpdate(t *testing.T, s *Stream) messaging.Message {
	t.Helper()
	select {
	case m, ok := <-s.Updates():
		require.True(t, ok, "updates channel closed early")
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream update")
		return messaging.Message{}
	}
}

func setupStream(t *testing.T, conversationID int64, history ...messaging.Message) (*Stream, *feedAdapter.MemoryFeed) {
	t.Helper()
	feed := feedAdapter.NewMemoryFeed()
	t.Cleanup(func() { _ = feed.Close() })

	resolver := &streamResolver{profiles: map[string]*messaging.Profile{}}
	s, err := Open(context.Background(), conversationID, &streamRepo{history: history}, feed, resolver)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, feed
}

func TestStreamOrdering(t *testing.T) {
	ctx := context.Background()

	s, feed := setupStream(t, 42, msgAt(1, 42, "alice", 1), msgAt(2, 42, "bob", 2))

	require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(3, 42, "alice", 3)))
	waitForUpdate(t, s)

	got := s.Messages()
	require.Len(t, got, 3)
	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, want, got[i].ID)
	}
}

func TestStreamDeduplicatesRedelivery(t *testing.T) {
	ctx := context.Background()

	s, feed := setupStream(t, 42, msgAt(1, 42, "alice", 1), msgAt(2, 42, "bob", 2))

	// m2 already arrived in the bulk load; an at-least-once feed may deliver
	// it again.
	require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(2, 42, "bob", 2)))
	require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(3, 42, "alice", 3)))

	got := waitForUpdate(t, s)
	assert.Equal(t, int64(3), got.ID, "duplicate must not surface as an update")

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestStreamScopedToConversation(t *testing.T) {
	ctx := context.Background()

	s, feed := setupStream(t, 42)

	require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(10, 7, "bob", 1))) // other conversation
	require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(11, 42, "bob", 2)))

	got := waitForUpdate(t, s)
	assert.Equal(t, int64(11), got.ID)
	assert.Len(t, s.Messages(), 1)
}

func TestStreamPublicRoomReceivesEverything(t *testing.T) {
	ctx := context.Background()

	s, feed := setupStream(t, PublicRoom, msgAt(1, 7, "alice", 1))

	require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(2, 99, "bob", 2)))
	waitForUpdate(t, s)

	assert.Len(t, s.Messages(), 2)
}

func TestStreamResolvesSenderProfiles(t *testing.T) {
	ctx := context.Background()
	feed := feedAdapter.NewMemoryFeed()
	t.Cleanup(func() { _ = feed.Close() })

	username := "bob"
	resolver := &streamResolver{profiles: map[string]*messaging.Profile{
		"bob": {ID: "bob", Username: &username},
	}}
	s, err := Open(ctx, 42, &streamRepo{}, feed, resolver)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(1, 42, "bob", 1)))
	got := waitForUpdate(t, s)
	require.NotNil(t, got.Sender)
	assert.Equal(t, "bob", got.Sender.DisplayName())

	// Unknown sender degrades to a nil profile, not an error.
	require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(2, 42, "ghost", 2)))
	got = waitForUpdate(t, s)
	assert.Nil(t, got.Sender)
}

func TestStreamSlowConsumerLosesNothing(t *testing.T) {
	ctx := context.Background()

	s, feed := setupStream(t, 42)

	// More arrivals than the updates buffer holds, published before the
	// consumer reads anything. Every one must still come through, in order.
	const n = updateBuffer + 50
	for i := 1; i <= n; i++ {
		require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(int64(i), 42, "alice", i)))
	}

	for i := 1; i <= n; i++ {
		got := waitForUpdate(t, s)
		require.Equal(t, int64(i), got.ID, "updates must arrive gap-free and in order")
	}
	assert.Len(t, s.Messages(), n)
}

func TestStreamCloseUnblocksStalledDelivery(t *testing.T) {
	ctx := context.Background()

	s, feed := setupStream(t, 42)

	// Fill the updates buffer past capacity so the pump is parked on a
	// delivery nobody is reading.
	for i := 1; i <= updateBuffer+10; i++ {
		require.NoError(t, feed.PublishInsert(ctx, "messages", msgAt(int64(i), 42, "alice", i)))
	}

	s.Close()

	// The pump must shut down and close the channel even though the consumer
	// never drained it.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-s.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel not closed after Close with a stalled consumer")
		}
	}
}

func TestStreamLifecycle(t *testing.T) {
	ctx := context.Background()
	feed := feedAdapter.NewMemoryFeed()
	t.Cleanup(func() { _ = feed.Close() })
	resolver := &streamResolver{}

	first, err := Open(ctx, 1, &streamRepo{}, feed, resolver)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.ActiveSubscriptions("messages"))

	// Switching conversations: the old stream closes before the next opens.
	first.Close()
	second, err := Open(ctx, 2, &streamRepo{}, feed, resolver)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, 1, feed.ActiveSubscriptions("messages"), "exactly one live subscription after a switch")

	// Close is idempotent and ends the updates channel.
	second.Close()
	second.Close()
	select {
	case _, ok := <-second.Updates():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel not closed after Close")
	}
	assert.Zero(t, feed.ActiveSubscriptions("messages"))
}
