// Package redis provides a Redis/Valkey implementation of the repository interface
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roomescape/reservation-web/internal/config"
	"github.com/roomescape/reservation-web/internal/models"
)

// Repository implements the repository interface with Redis storage
type Repository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRepository creates a new Redis repository
func NewRepository(cfg config.RedisConfig) (*Repository, error) {
	var client *redis.Client

	// Use URI if provided, otherwise build connection from individual parameters
	if cfg.URI != "" {
		opt, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URI: %w", err)
		}

		// Use DB from config if not specified in the URI
		if opt.DB == 0 {
			opt.DB = cfg.DB
		}

		if opt.Password == "" && cfg.Password != "" {
			opt.Password = cfg.Password
		}

		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Repository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.CancelLockTTL,
	}, nil
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// Ping checks the Redis connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// cancelKey returns the Redis key for a reservation's cancellation lock
func (r *Repository) cancelKey(id models.ReservationID) string {
	return fmt.Sprintf("%scancel:%s", r.keyPrefix, id)
}

// AcquireCancel sets the lock key only if it does not exist yet
func (r *Repository) AcquireCancel(ctx context.Context, id models.ReservationID) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.cancelKey(id), time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire cancel lock: %w", err)
	}
	return ok, nil
}

// ReleaseCancel deletes the lock key
func (r *Repository) ReleaseCancel(ctx context.Context, id models.ReservationID) error {
	if err := r.client.Del(ctx, r.cancelKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to release cancel lock: %w", err)
	}
	return nil
}
