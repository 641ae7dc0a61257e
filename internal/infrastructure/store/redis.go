package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/core/ports"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultSessionTTL     = 24 * time.Hour
)

// RedisConfig captures the settings for establishing a Redis connection.
type RedisConfig struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect initialises a Redis client and validates connectivity with a
// ping. A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Redis is a TokenStore holding the session as a single JSON value, so
// token and user are written and expire together. The key TTL follows
// the token's exp claim when the token is a decodable JWT; opaque
// tokens fall back to a fixed TTL.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis wraps an established client. key identifies the profile,
// e.g. "rentdesk:session:default".
func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key}
}

func (r *Redis) Save(ctx context.Context, token string, user domain.User) error {
	doc := persistedSession{Token: domain.NormalizeToken(token), User: &user}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}

	ttl := defaultSessionTTL
	if exp, ok := domain.TokenExpiry(doc.Token); ok {
		if until := time.Until(exp); until > 0 {
			ttl = until
		}
	}

	if err := r.client.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (r *Redis) Read(ctx context.Context) (ports.Session, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return ports.Session{}, nil
	}
	if err != nil {
		return ports.Session{}, fmt.Errorf("session get: %w", err)
	}

	var doc persistedSession
	if err := json.Unmarshal(data, &doc); err != nil {
		return ports.Session{}, nil
	}
	if doc.Token == "" || doc.User == nil {
		return ports.Session{}, nil
	}
	return ports.Session{Token: doc.Token, User: doc.User, Role: doc.User.Role}, nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("session del: %w", err)
	}
	return nil
}
