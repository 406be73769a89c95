// Package repository provides the initialization for repository implementations
package repository

import (
	"github.com/roomescape/reservation-web/internal/config"
	"github.com/roomescape/reservation-web/internal/repository/memory"
	"github.com/roomescape/reservation-web/internal/repository/redis"
)

// NewRepository returns the Redis repository when Redis is enabled and the
// in-memory one otherwise
func NewRepository(cfg config.RedisConfig) (Repository, error) {
	if cfg.Enabled {
		repo, err := redis.NewRepository(cfg)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return memory.NewRepository(cfg.CancelLockTTL), nil
}
