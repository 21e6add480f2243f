package report

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/wallet-analyzer/internal/config"
	"github.com/wallet-analyzer/internal/models"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis, *FileStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	inner, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	cache, err := NewRedisCache(context.Background(), &config.RedisConfig{
		Host: mr.Host(),
		Port: mr.Port(),
		TTL:  time.Minute,
	}, inner)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache, mr, inner
}

func TestRedisCache_ReadThrough(t *testing.T) {
	cache, mr, inner := newTestRedisCache(t)
	ctx := context.Background()

	// Seed the durable store directly, bypassing the cache.
	rep := models.NewWalletReport("0xabc")
	rep.FinalAnalysis = &models.FinalReport{OverallRiskScore: 33}
	require.NoError(t, inner.Save(ctx, rep))

	loaded, err := cache.Load(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, 33.0, loaded.FinalAnalysis.OverallRiskScore)

	// The read should have populated the cache.
	require.True(t, mr.Exists("wallet:report:0xabc"))
}

func TestRedisCache_SaveWritesThrough(t *testing.T) {
	cache, mr, inner := newTestRedisCache(t)
	ctx := context.Background()

	rep := models.NewWalletReport("0xabc")
	rep.FinalAnalysis = &models.FinalReport{OverallRiskScore: 55}
	require.NoError(t, cache.Save(ctx, rep))

	// Durable store has it even if the cache is flushed.
	mr.FlushAll()
	loaded, err := inner.Load(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, 55.0, loaded.FinalAnalysis.OverallRiskScore)
}

func TestRedisCache_CorruptEntryFallsThrough(t *testing.T) {
	cache, mr, inner := newTestRedisCache(t)
	ctx := context.Background()

	rep := models.NewWalletReport("0xabc")
	require.NoError(t, inner.Save(ctx, rep))
	require.NoError(t, mr.Set("wallet:report:0xabc", "{not json"))

	loaded, err := cache.Load(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, loaded, "corrupt cache entry must fall through to the durable store")
}

func TestRedisCache_AbsentStaysAbsent(t *testing.T) {
	cache, _, _ := newTestRedisCache(t)

	loaded, err := cache.Load(context.Background(), "0xmissing")
	require.NoError(t, err)
	require.Nil(t, loaded)
}
