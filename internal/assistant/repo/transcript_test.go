package repo

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	errx "github.com/quantumgateway/hotelchat/internal/core/error"
)

func newTestRepo(t *testing.T, cfg model.TranscriptConfig) (*RedisTranscriptRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisTranscriptRepository(rdb, cfg), mr
}

func exchange(i int) model.Exchange {
	return model.Exchange{
		RequestID: fmt.Sprintf("req-%d", i),
		Message:   fmt.Sprintf("mensaje %d", i),
		Response:  "respuesta",
		Source:    model.SourceCanned,
		Intent:    "saludo",
		CreatedAt: time.Date(2026, 1, 1, 12, 0, i, 0, time.UTC),
	}
}

func TestAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t, model.TranscriptConfig{TTL: time.Hour, MaxItems: 10})

	require.NoError(t, r.Append(ctx, "s1", exchange(1)))
	require.NoError(t, r.Append(ctx, "s1", exchange(2)))
	require.NoError(t, r.Append(ctx, "s2", exchange(3)))

	got, err := r.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "req-1", got[0].RequestID)
	assert.Equal(t, "req-2", got[1].RequestID)
	assert.Equal(t, model.SourceCanned, got[0].Source)
	assert.True(t, got[0].CreatedAt.Equal(exchange(1).CreatedAt))
}

func TestAppendTrimsToMaxItems(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t, model.TranscriptConfig{TTL: time.Hour, MaxItems: 3})

	for i := 1; i <= 5; i++ {
		require.NoError(t, r.Append(ctx, "s1", exchange(i)))
	}

	got, err := r.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "req-3", got[0].RequestID)
	assert.Equal(t, "req-5", got[2].RequestID)
}

func TestTranscriptExpires(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRepo(t, model.TranscriptConfig{TTL: time.Minute, MaxItems: 10})

	require.NoError(t, r.Append(ctx, "s1", exchange(1)))
	assert.Equal(t, time.Minute, mr.TTL(r.transcriptKey("s1")))

	mr.FastForward(2 * time.Minute)

	got, err := r.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadMissingSession(t *testing.T) {
	r, _ := newTestRepo(t, model.TranscriptConfig{})

	got, err := r.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t, model.TranscriptConfig{TTL: time.Hour})

	require.NoError(t, r.Append(ctx, "s1", exchange(1)))
	require.NoError(t, r.Clear(ctx, "s1"))

	got, err := r.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisDownIsWrapped(t *testing.T) {
	r, mr := newTestRepo(t, model.TranscriptConfig{TTL: time.Hour})
	mr.Close()

	err := r.Append(context.Background(), "s1", exchange(1))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.Status(err))
}
