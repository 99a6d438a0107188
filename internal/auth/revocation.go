package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revokedKeyPrefix = "agrolinq:revoked:"

type redisRevocationStore struct {
	client *redis.Client
	logger zerolog.Logger
	now    func() time.Time
}

// NewRedisClient connects to the Redis server at url.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisRevocationStore creates a RevocationStore backed by Redis keys
// that expire together with the token.
func NewRedisRevocationStore(client *redis.Client, logger zerolog.Logger) RevocationStore {
	return &redisRevocationStore{
		client: client,
		logger: logger.With().Str("component", "revocation").Logger(),
		now:    time.Now,
	}
}

func (s *redisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		// already expired, nothing to remember
		return nil
	}

	if err := s.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("token_id", tokenID).Msg("failed to revoke token")
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.logger.Debug().Str("token_id", tokenID).Dur("ttl", ttl).Msg("token revoked")
	return nil
}

func (s *redisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.client.Get(ctx, revokedKeyPrefix+tokenID).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
}

type nopRevocationStore struct {
	logger zerolog.Logger
}

// NewNopRevocationStore returns a store that never revokes anything. It is
// used when no Redis server is configured.
func NewNopRevocationStore(logger zerolog.Logger) RevocationStore {
	return &nopRevocationStore{logger: logger.With().Str("component", "revocation").Logger()}
}

func (s *nopRevocationStore) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	s.logger.Warn().Str("token_id", tokenID).Msg("token revocation disabled, logout has no server-side effect")
	return nil
}

func (s *nopRevocationStore) IsRevoked(context.Context, string) (bool, error) {
	return false, nil
}
