package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Abedmejri/Artplat/internal/infrastructure/feed/port"
)

// RedisFeed implements port.Feed over Redis pub/sub so that an insert
// published on one API node reaches streams subscribed on every node. One
// Redis channel per table; filters are applied on the subscriber side.
type RedisFeed struct {
	client *redis.Client
}

// NewRedisFeedFromEnv constructs a RedisFeed using the REDIS_URL env var.
func NewRedisFeedFromEnv() (*RedisFeed, error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return nil, errors.New("feed: REDIS_URL environment variable is not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("feed: parse REDIS_URL: %w", err)
	}
	return NewRedisFeed(redis.NewClient(opt))
}

// NewRedisFeed wraps an existing go-redis client and verifies connectivity.
func NewRedisFeed(client *redis.Client) (*RedisFeed, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("feed: ping: %w", err)
	}
	return &RedisFeed{client: client}, nil
}

var _ port.Feed = (*RedisFeed)(nil)

func channelName(table string) string { return "feed:inserts:" + table }

func (f *RedisFeed) SubscribeInserts(ctx context.Context, table string, filter *port.Filter) (port.Subscription, error) {
	ps := f.client.Subscribe(ctx, channelName(table))
	// Force the SUBSCRIBE round trip so a failed connection surfaces here
	// instead of as a silently empty channel.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("feed: subscribe %s: %w", table, err)
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan json.RawMessage, subscriptionBuffer),
	}
	go sub.pump(filter)
	return sub, nil
}

func (f *RedisFeed) PublishInsert(ctx context.Context, table string, row any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, channelName(table), payload).Err()
}

func (f *RedisFeed) Close() error {
	return f.client.Close()
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan json.RawMessage
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan json.RawMessage { return s.events }

func (s *redisSubscription) Close() {
	// Closing the PubSub ends the pump's range loop, which closes events.
	s.once.Do(func() { _ = s.ps.Close() })
}

func (s *redisSubscription) pump(filter *port.Filter) {
	defer close(s.events)
	for msg := range s.ps.Channel() {
		payload := json.RawMessage(msg.Payload)
		if !filter.Matches(payload) {
			continue
		}
		select {
		case s.events <- payload:
		default:
			// Same slow-consumer policy as the in-process feed.
		}
	}
}
