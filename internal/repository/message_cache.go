package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tush00nka/bbbab_conversations/internal/model"
)

// ErrStaleCache означает, что история изменилась после чтения версии
// и записывать ее в кеш нельзя.
var ErrStaleCache = errors.New("message cache is stale")

// MessageCache кеширует историю сообщений беседы.
// Каждое Invalidate увеличивает версию беседы; SetMessages принимает версию,
// прочитанную до запроса в базу, и ничего не пишет, если она устарела.
type MessageCache interface {
	// GetMessages возвращает сообщения и признак попадания в кеш
	GetMessages(ctx context.Context, conversationID uint) ([]model.Message, bool, error)
	Version(ctx context.Context, conversationID uint) (int64, error)
	SetMessages(ctx context.Context, conversationID uint, version int64, messages []model.Message) error
	Invalidate(ctx context.Context, conversationID uint) error
}

// messageCache реализация MessageCache поверх Redis
type messageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMessageCache создает новый экземпляр кеша сообщений
func NewMessageCache(rdb *redis.Client, ttl time.Duration) MessageCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &messageCache{rdb: rdb, ttl: ttl}
}

func (r *messageCache) getMessageKey(conversationID uint) string {
	return fmt.Sprintf("conversation:%d:messages", conversationID)
}

func (r *messageCache) getVersionKey(conversationID uint) string {
	return fmt.Sprintf("conversation:%d:version", conversationID)
}

// Version возвращает текущую версию истории беседы, 0 если ее еще нет
func (r *messageCache) Version(ctx context.Context, conversationID uint) (int64, error) {
	if conversationID == 0 {
		return 0, fmt.Errorf("conversationID cannot be zero")
	}

	version, err := r.rdb.Get(ctx, r.getVersionKey(conversationID)).Int64()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("failed to get cache version: %w", err)
	}
	return version, nil
}

// GetMessages получает сообщения из кеша
func (r *messageCache) GetMessages(ctx context.Context, conversationID uint) ([]model.Message, bool, error) {
	if conversationID == 0 {
		return nil, false, fmt.Errorf("conversationID cannot be zero")
	}

	values, err := r.rdb.LRange(ctx, r.getMessageKey(conversationID), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get messages from redis: %w", err)
	}

	// Пустой список в Redis не хранится, поэтому это всегда промах
	if len(values) == 0 {
		return nil, false, nil
	}

	messages := make([]model.Message, 0, len(values))
	for _, v := range values {
		var msg model.Message
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return nil, false, fmt.Errorf("failed to decode cached message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, true, nil
}

// SetMessages заменяет закешированную историю беседы, если версия не изменилась
func (r *messageCache) SetMessages(ctx context.Context, conversationID uint, version int64, messages []model.Message) error {
	if conversationID == 0 {
		return fmt.Errorf("conversationID cannot be zero")
	}

	key := r.getMessageKey(conversationID)
	versionKey := r.getVersionKey(conversationID)

	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return ErrStaleCache
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			// пустой список в Redis не хранится
			if len(values) > 0 {
				pipe.RPush(ctx, key, values...)
				pipe.Expire(ctx, key, r.ttl)
			}
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleCache), errors.Is(err, redis.TxFailedErr):
		return ErrStaleCache
	default:
		return fmt.Errorf("failed to save messages to redis: %w", err)
	}
}

// Invalidate очищает сообщения беседы из кеша и поднимает ее версию
func (r *messageCache) Invalidate(ctx context.Context, conversationID uint) error {
	if conversationID == 0 {
		return fmt.Errorf("conversationID cannot be zero")
	}

	versionKey := r.getVersionKey(conversationID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.getMessageKey(conversationID))
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	return nil
}
