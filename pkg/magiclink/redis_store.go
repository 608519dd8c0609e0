package magiclink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(token string) string {
	return "magiclink:" + token
}

func (s *RedisTokenStore) Save(ctx context.Context, token string, patientID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKey(token), patientID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("save magic link: %w", err)
	}
	return nil
}

// Take deletes the token as it reads it, so redemption is single-use even
// under concurrent requests.
func (s *RedisTokenStore) Take(ctx context.Context, token string) (uuid.UUID, error) {
	value, err := s.client.GetDel(ctx, tokenKey(token)).Result()
	if err == redis.Nil {
		return uuid.Nil, ErrTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("take magic link: %w", err)
	}

	patientID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return patientID, nil
}
