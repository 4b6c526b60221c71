package cache

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pda-bills-api/pkg/config"
)

func TestAddrHandlesIPv6(t *testing.T) {
	assert.Equal(t, "localhost:6379", Addr(config.RedisConfig{Host: "localhost", Port: 6379}))
	assert.Equal(t, "[::1]:6380", Addr(config.RedisConfig{Host: "::1", Port: 6380}))
}

func TestNewRedisPings(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewRedis(context.Background(), config.RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, _ := strconv.Atoi(mr.Port())
	mr.Close()

	_, err := NewRedis(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}
