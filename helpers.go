package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerzync/internal/index"
	"github.com/muhammadolammi/careerzync/internal/retry"
	"github.com/muhammadolammi/careerzync/internal/storage"
	"github.com/streadway/amqp"
)

const (
	sessionsQueue         = "sessions"
	sessionUpdateExchange = "session_updates"
)

// rabbitBroker publishes analysis requests and status updates over one connection.
type rabbitBroker struct {
	conn *amqp.Connection
}

func (b *rabbitBroker) PublishSession(ctx context.Context, s Session) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(sessionsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return ch.Publish(
		"", // default exchange
		sessionsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (b *rabbitBroker) PublishSessionUpdate(ctx context.Context, sessionID string, update map[string]any) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(sessionUpdateExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	body, _ := json.Marshal(update)
	routingKey := fmt.Sprintf("session.%s", sessionID)

	return ch.Publish(
		sessionUpdateExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// maxCachedIndexes bounds the indexes held in memory. Evicted ones are reloaded on demand.
const maxCachedIndexes = 128

// indexCache keeps the most recently stored chat indexes in memory, backed by
// INDEX_DIR and object storage.
type indexCache struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*index.Index
	order   []uuid.UUID
	limit   int
	dir     string
	objects ObjectStore
	logger  *slog.Logger
}

func newIndexCache(objects ObjectStore, dir string, logger *slog.Logger) *indexCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &indexCache{
		items:   make(map[uuid.UUID]*index.Index),
		limit:   maxCachedIndexes,
		dir:     dir,
		objects: objects,
		logger:  logger,
	}
}

// Put caches idx and uploads its snapshot. The local copy is best effort.
func (c *indexCache) Put(ctx context.Context, id uuid.UUID, idx *index.Index) error {
	c.remember(id, idx)

	if c.dir != "" {
		if _, err := idx.SaveFile(c.dir, id.String()); err != nil {
			c.logger.WarnContext(ctx, "failed to write local index", "session_id", id, "err", err)
		}
	}
	if c.objects == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := idx.Save(&buf); err != nil {
		return err
	}
	_, err := retry.Do(ctx, 3, 500*time.Millisecond, func() (struct{}, error) {
		return struct{}{}, c.objects.Put(ctx, storage.IndexKey(id.String()), "application/json", buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("failed to upload index: %w", err)
	}
	return nil
}

func (c *indexCache) Get(ctx context.Context, id uuid.UUID) (*index.Index, error) {
	c.mu.Lock()
	idx, ok := c.items[id]
	c.mu.Unlock()
	if ok {
		return idx, nil
	}

	idx, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.remember(id, idx)
	return idx, nil
}

func (c *indexCache) remember(id uuid.UUID, idx *index.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = idx
	for len(c.order) > c.limit {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *indexCache) load(ctx context.Context, id uuid.UUID) (*index.Index, error) {
	if c.dir != "" {
		path := filepath.Join(c.dir, id.String()+".json")
		if _, err := os.Stat(path); err == nil {
			idx, err := index.LoadFile(path)
			if err == nil {
				return idx, nil
			}
			c.logger.WarnContext(ctx, "ignoring unreadable local index", "path", path, "err", err)
		}
	}
	if c.objects == nil {
		return nil, fmt.Errorf("no index for session %s", id)
	}
	data, err := c.objects.Get(ctx, storage.IndexKey(id.String()))
	if err != nil {
		return nil, err
	}
	return index.Load(bytes.NewReader(data))
}
