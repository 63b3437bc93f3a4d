package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feedadapter "github.com/Abedmejri/Artplat/internal/infrastructure/feed/adapter"
)

// fakeSocket records writes so connection behavior can be asserted without a
// live websocket.
type fakeSocket struct {
	mu       sync.Mutex
	messages [][]byte
	controls []int
	closed   bool
}

func (s *fakeSocket) SetWriteDeadline(time.Time) error { return nil }

func (s *fakeSocket) WriteMessage(_ int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.messages = append(s.messages, cp)
	return nil
}

func (s *fakeSocket) WriteControl(messageType int, _ []byte, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls = append(s.controls, messageType)
	return nil
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSocket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSocket) lastMessage(t *testing.T) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		n := len(s.messages)
		var last []byte
		if n > 0 {
			last = s.messages[n-1]
		}
		s.mu.Unlock()
		if last != nil {
			return last
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no message written to socket")
	return nil
}

func TestRouterNotifyUser(t *testing.T) {
	router := NewRouter()
	defer router.Close()

	ws := &fakeSocket{}
	conn := newConnection("alice", ws)
	router.Attach(conn)

	require.True(t, router.NotifyUser("alice", []byte(`{"type":"ping"}`)))
	assert.JSONEq(t, `{"type":"ping"}`, string(ws.lastMessage(t)))

	assert.False(t, router.NotifyUser("nobody", []byte(`{}`)), "unknown user has no session")
}

func TestRouterReplacesPreviousSession(t *testing.T) {
	router := NewRouter()
	defer router.Close()

	first := &fakeSocket{}
	second := &fakeSocket{}
	router.Attach(newConnection("alice", first))
	router.Attach(newConnection("alice", second))

	assert.True(t, first.isClosed(), "previous session is closed on replacement")

	require.True(t, router.NotifyUser("alice", []byte(`{"n":1}`)))
	assert.JSONEq(t, `{"n":1}`, string(second.lastMessage(t)))
}

func TestRouterDetach(t *testing.T) {
	router := NewRouter()
	defer router.Close()

	conn := newConnection("alice", &fakeSocket{})
	router.Attach(conn)
	router.Detach(conn)

	assert.False(t, router.NotifyUser("alice", []byte(`{}`)))
}

func TestConnectionSendDuringClose(t *testing.T) {
	// Send racing Close must fail or drop, never panic: the session
	// replacement path closes a connection while its update pump is still
	// forwarding frames through Send.
	for i := 0; i < 50; i++ {
		conn := newConnection("alice", &fakeSocket{})
		conn.Start()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 20; j++ {
				_ = conn.Send([]byte("frame"))
			}
		}()

		conn.Close(4001, "session replaced")
		<-done
	}
}

func TestConnectionCloseIsIdempotent(t *testing.T) {
	ws := &fakeSocket{}
	conn := newConnection("alice", ws)
	conn.Start()

	conn.Close(1000, "bye")
	conn.Close(1000, "bye")

	assert.True(t, ws.isClosed())
	assert.Error(t, conn.Send([]byte("late")), "sends after close fail")
}

func TestDirectoryNotifier(t *testing.T) {
	feed := feedadapter.NewMemoryFeed()
	defer feed.Close()

	router := NewRouter()
	defer router.Close()

	ws := &fakeSocket{}
	router.Attach(newConnection("alice", ws))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := NewDirectoryNotifier(feed, router)
	done := make(chan error, 1)
	go func() { done <- notifier.Run(ctx) }()

	// Let the notifier subscribe before publishing.
	require.Eventually(t, func() bool {
		return feed.ActiveSubscriptions("participants") == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, feed.PublishInsert(ctx, "participants", map[string]any{
		"conversation_id": 42,
		"user_id":         "alice",
	}))

	var frame struct {
		Type           string `json:"type"`
		ConversationID int64  `json:"conversation_id"`
	}
	require.NoError(t, json.Unmarshal(ws.lastMessage(t), &frame))
	assert.Equal(t, "conversation_created", frame.Type)
	assert.Equal(t, int64(42), frame.ConversationID)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier did not stop on cancel")
	}
}
