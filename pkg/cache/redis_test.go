package cache

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-auth-api/pkg/config"
)

func TestNewRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := NewRedis(config.RedisConfig{Host: host, Port: port, OpTimeout: time.Second})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, time.Second, client.Options().ReadTimeout)
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, portStr, _ := net.SplitHostPort(mr.Addr())
	port, _ := strconv.Atoi(portStr)
	mr.Close()

	_, err := NewRedis(config.RedisConfig{Host: host, Port: port})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}
