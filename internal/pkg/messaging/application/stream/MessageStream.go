package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	feedport "github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
	messaging "github.com/Abedmejri/Artplat/internal/pkg/messaging/domain"
	repository "github.com/Abedmejri/Artplat/internal/pkg/messaging/persistence/repository/port"
)

const updateBuffer = 128

// ProfileResolver is the point lookup a stream uses to attach the sender
// profile to a feed-delivered message, which arrives as a bare row.
type ProfileResolver interface {
	ResolveOne(ctx context.Context, userID string) (*messaging.Profile, error)
}

// PublicRoom opens a stream over every message on the table instead of one
// conversation, backing the shared public chat room.
const PublicRoom int64 = 0

// Stream maintains a live, chronologically ordered, duplicate-free message
// list for one conversation. It combines two delivery channels: a bulk load
// of existing history (ascending by creation time) and a feed subscription
// for inserts arriving afterwards. Appends happen on a single goroutine, so
// bulk-load order followed by arrival order is preserved without any
// re-sorting. Feed delivery is at-least-once, and a row committed around the
// bulk-load snapshot can show up on both channels, so every append is keyed
// on the message id and duplicates are dropped.
//
// A Stream owns exactly one feed subscription for its lifetime. Close
// releases it and is safe to call more than once; callers must close the
// current stream before opening one for the next conversation.
type Stream struct {
	conversationID int64

	sub      feedport.Subscription
	resolver ProfileResolver

	mu   sync.Mutex
	msgs []messaging.Message
	seen map[int64]struct{}

	updates chan messaging.Message
	done    chan struct{}
	once    sync.Once
}

// Open bulk-loads the conversation's history and subscribes to its insert
// feed. conversationID PublicRoom selects the unscoped variant: full history
// and an unfiltered subscription.
//
// ctx covers the bulk load and the per-arrival profile lookups; canceling it
// degrades later arrivals to placeholder identity but does not close the
// stream. Lifetime is controlled solely by Close.
func Open(ctx context.Context, conversationID int64, repo repository.DirectoryRepository, feed feedport.Feed, resolver ProfileResolver) (*Stream, error) {
	history, err := repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("stream: load history: %w", err)
	}

	var filter *feedport.Filter
	if conversationID != PublicRoom {
		filter = &feedport.Filter{Column: "conversation_id", Value: strconv.FormatInt(conversationID, 10)}
	}
	sub, err := feed.SubscribeInserts(ctx, "messages", filter)
	if err != nil {
		return nil, fmt.Errorf("stream: subscribe: %w", err)
	}

	s := &Stream{
		conversationID: conversationID,
		sub:            sub,
		resolver:       resolver,
		msgs:           history,
		seen:           make(map[int64]struct{}, len(history)),
		updates:        make(chan messaging.Message, updateBuffer),
		done:           make(chan struct{}),
	}
	for _, m := range history {
		s.seen[m.ID] = struct{}{}
	}

	go s.pump(ctx)
	return s, nil
}

// Messages returns a snapshot of the current ordered list.
func (s *Stream) Messages() []messaging.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]messaging.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Updates yields every message appended after Open, profile attached, with
// no gaps: while the stream is open, delivery blocks rather than drops, so a
// momentarily slow consumer backpressures onto the feed subscription instead
// of silently missing a frame. The channel is closed once the stream is
// closed.
func (s *Stream) Updates() <-chan messaging.Message {
	return s.updates
}

// ConversationID reports which conversation this stream is scoped to
// (PublicRoom for the unscoped variant).
func (s *Stream) ConversationID() int64 {
	return s.conversationID
}

// Close releases the feed subscription and unblocks a pump waiting on a
// consumer that stopped reading. Idempotent.
func (s *Stream) Close() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Close()
	})
}

// pump is the single append goroutine. It exits when the subscription's
// event channel closes, then closes the updates channel.
func (s *Stream) pump(ctx context.Context) {
	defer close(s.updates)

	for raw := range s.sub.Events() {
		msg, ok := decodeMessageRow(raw)
		if !ok {
			continue
		}
		if s.conversationID != PublicRoom && msg.ConversationID != s.conversationID {
			continue
		}

		// The feed row has no profile attached; resolve it now. A failed or
		// empty lookup degrades this one message to placeholder identity.
		if profile, err := s.resolver.ResolveOne(ctx, msg.SenderID); err == nil {
			msg.Sender = profile
		}

		if s.append(msg) {
			select {
			case s.updates <- msg:
			case <-s.done:
				return
			}
		}
	}
}

// append adds the message unless its id was already delivered. It reports
// whether the message was actually appended.
func (s *Stream) append(msg messaging.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[msg.ID]; dup {
		return false
	}
	s.seen[msg.ID] = struct{}{}
	s.msgs = append(s.msgs, msg)
	return true
}

func decodeMessageRow(raw json.RawMessage) (messaging.Message, bool) {
	var msg messaging.Message
	if err := json.Unmarshal(raw, &msg); err != nil || msg.ID == 0 {
		return messaging.Message{}, false
	}
	msg.Sender = nil
	return msg, true
}
