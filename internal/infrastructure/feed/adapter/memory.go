package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
)

const subscriptionBuffer = 128

// MemoryFeed is an in-process implementation of port.Feed. It is the default
// for single-node deployments and for tests; multi-node deployments use the
// Redis adapter so inserts reach subscribers on other nodes.
type MemoryFeed struct {
	mu     sync.Mutex
	subs   map[string]map[*memorySubscription]struct{} // table -> subscriptions
	closed bool
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string]map[*memorySubscription]struct{})}
}

var _ port.Feed = (*MemoryFeed)(nil)

func (f *MemoryFeed) SubscribeInserts(ctx context.Context, table string, filter *port.Filter) (port.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.New("feed: closed")
	}

	sub := &memorySubscription{
		feed:   f,
		table:  table,
		filter: filter,
		events: make(chan json.RawMessage, subscriptionBuffer),
	}
	if f.subs[table] == nil {
		f.subs[table] = make(map[*memorySubscription]struct{})
	}
	f.subs[table][sub] = struct{}{}
	return sub, nil
}

func (f *MemoryFeed) PublishInsert(ctx context.Context, table string, row any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("feed: closed")
	}
	for sub := range f.subs[table] {
		if !sub.filter.Matches(payload) {
			continue
		}
		select {
		case sub.events <- payload:
		default:
			// Slow consumer: drop rather than block the publisher. The
			// consumer recovers state on its next bulk load.
		}
	}
	return nil
}

func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	for _, table := range f.subs {
		for sub := range table {
			sub.closeLocked()
		}
	}
	f.subs = make(map[string]map[*memorySubscription]struct{})
	return nil
}

// ActiveSubscriptions returns the number of open subscriptions on table.
func (f *MemoryFeed) ActiveSubscriptions(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[table])
}

type memorySubscription struct {
	feed   *MemoryFeed
	table  string
	filter *port.Filter
	events chan json.RawMessage
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan json.RawMessage { return s.events }

func (s *memorySubscription) Close() {
	s.feed.mu.Lock()
	if table := s.feed.subs[s.table]; table != nil {
		delete(table, s)
	}
	s.feed.mu.Unlock()
	s.once.Do(func() { close(s.events) })
}

// closeLocked is called by MemoryFeed.Close with the feed mutex held.
func (s *memorySubscription) closeLocked() {
	s.once.Do(func() { close(s.events) })
}
