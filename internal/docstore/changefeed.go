package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/terraincognita07/comoestou/internal/logger"
)

const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ChangeEvent announces a committed mutation. ID is unique per event so
// listeners woken by the same write can share one re-query.
type ChangeEvent struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
	DocumentID string `json:"documentId"`
	Kind       string `json:"kind"`
}

type ChangeFeed interface {
	Publish(ctx context.Context, event ChangeEvent) error
	// Listen returns a channel that holds at most the newest pending event.
	// The channel is closed once ctx is done.
	Listen(ctx context.Context, collection string) (<-chan ChangeEvent, error)
	Close() error
}

type MemoryChangeFeed struct {
	mu        sync.Mutex
	listeners map[string]map[chan ChangeEvent]struct{}
}

func NewMemoryChangeFeed() *MemoryChangeFeed {
	return &MemoryChangeFeed{
		listeners: make(map[string]map[chan ChangeEvent]struct{}),
	}
}

func (feed *MemoryChangeFeed) Publish(_ context.Context, event ChangeEvent) error {
	feed.mu.Lock()
	defer feed.mu.Unlock()
	for listener := range feed.listeners[event.Collection] {
		offerLatest(listener, event)
	}
	return nil
}

func (feed *MemoryChangeFeed) Listen(ctx context.Context, collection string) (<-chan ChangeEvent, error) {
	listener := make(chan ChangeEvent, 1)

	feed.mu.Lock()
	if feed.listeners[collection] == nil {
		feed.listeners[collection] = make(map[chan ChangeEvent]struct{})
	}
	feed.listeners[collection][listener] = struct{}{}
	feed.mu.Unlock()

	go func() {
		<-ctx.Done()
		feed.mu.Lock()
		delete(feed.listeners[collection], listener)
		if len(feed.listeners[collection]) == 0 {
			delete(feed.listeners, collection)
		}
		close(listener)
		feed.mu.Unlock()
	}()

	return listener, nil
}

func (feed *MemoryChangeFeed) Close() error {
	return nil
}

type RedisChangeFeed struct {
	client *redis.Client
	prefix string
}

type RedisChangeFeedConfig struct {
	Addr     string
	Password string
	Prefix   string
}

func NewRedisChangeFeed(cfg RedisChangeFeedConfig) (*RedisChangeFeed, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "comoestou:changes:"
	}
	return &RedisChangeFeed{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		prefix: prefix,
	}, nil
}

func (feed *RedisChangeFeed) channel(collection string) string {
	return feed.prefix + collection
}

func (feed *RedisChangeFeed) Publish(ctx context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return feed.client.Publish(ctx, feed.channel(event.Collection), payload).Err()
}

func (feed *RedisChangeFeed) Listen(ctx context.Context, collection string) (<-chan ChangeEvent, error) {
	pubsub := feed.client.Subscribe(ctx, feed.channel(collection))
	// Wait for the subscription confirmation so no publish after Listen
	// returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	listener := make(chan ChangeEvent, 1)
	messages := pubsub.Channel()
	go func() {
		defer close(listener)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-messages:
				if !ok {
					return
				}
				event := ChangeEvent{}
				if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
					logger.Warn("drop malformed change event", "channel", message.Channel, "error", err)
					continue
				}
				offerLatest(listener, event)
			}
		}
	}()
	return listener, nil
}

func (feed *RedisChangeFeed) Close() error {
	return feed.client.Close()
}

// offerLatest replaces any pending value so a slow reader only ever sees the
// newest one. Callers must be the only sender on target.
func offerLatest[T any](target chan T, value T) {
	for {
		select {
		case target <- value:
			return
		default:
		}
		select {
		case <-target:
		default:
		}
	}
}
