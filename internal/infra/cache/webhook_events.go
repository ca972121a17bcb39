package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 処理済みwebhookイベントIDをRedisに記録する。
// 正しさは注文ステータス側で担保しているので、ここは重複配信の近道。
type WebhookEventStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewWebhookEventStore(client *redis.Client, ttl time.Duration) *WebhookEventStore {
	if ttl <= 0 {
		// Stripeの再送は最大3日
		ttl = 72 * time.Hour
	}
	return &WebhookEventStore{client: client, ttl: ttl}
}

func (s *WebhookEventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}
	err := s.client.Get(ctx, eventKey(eventID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	return true, nil
}

func (s *WebhookEventStore) MarkProcessed(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, eventKey(eventID), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func eventKey(eventID string) string {
	return fmt.Sprintf("webhook:event:%s", eventID)
}
