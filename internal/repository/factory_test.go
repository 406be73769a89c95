package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomescape/reservation-web/internal/config"
	"github.com/roomescape/reservation-web/internal/repository"
	"github.com/roomescape/reservation-web/internal/repository/memory"
	"github.com/roomescape/reservation-web/internal/repository/redis"
)

func TestNewRepository_Memory(t *testing.T) {
	repo, err := repository.NewRepository(config.RedisConfig{CancelLockTTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &memory.Repository{}, repo)
}

func TestNewRepository_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	repo, err := repository.NewRepository(config.RedisConfig{
		Enabled:   true,
		Host:      mr.Host(),
		Port:      mr.Port(),
		KeyPrefix: "factory:",
	})
	require.NoError(t, err)
	require.IsType(t, &redis.Repository{}, repo)
	defer repo.(*redis.Repository).Close()

	ok, err := repo.AcquireCancel(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, ok)
}
