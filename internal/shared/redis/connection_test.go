package redis

import (
	"context"
	"testing"

	"planet-service/internal/shared/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectWithURL(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.PingContext(context.Background()))
}

func TestConnectWithHostAndPort(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), config.RedisConfig{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	assert.Error(t, client.PingContext(context.Background()))
}

func TestConnectInvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), config.RedisConfig{URL: "://not-a-url"})
	require.Error(t, err)
}

func TestCloseNilClient(t *testing.T) {
	var client *Client
	assert.NoError(t, client.Close())
}
