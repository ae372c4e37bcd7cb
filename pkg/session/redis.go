package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/cardsmith/pkg/errors"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "cardsmith:draft:"

// RedisStore keeps sessions in Redis with a native key expiry, so several
// server instances can serve the same builder.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore connects to the redis:// or rediss:// URL and pings it.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse redis url")
	}
	s := NewRedisStoreFromClient(redis.NewClient(opts), "")
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.client.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping redis")
	}
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client. An empty prefix means
// [DefaultRedisPrefix].
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "redis get session")
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.IsExpired() {
		return nil, errNotFound(id)
	}
	return &sess, nil
}

func (s *RedisStore) Set(ctx context.Context, sess *Session) error {
	if err := validID(sess.ID); err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, sess.ID)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "redis set session")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "redis delete session")
	}
	return nil
}

// Cleanup is a no-op; Redis expires keys itself.
func (s *RedisStore) Cleanup(ctx context.Context) error { return nil }

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
