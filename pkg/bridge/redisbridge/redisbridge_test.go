package redisbridge

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowgraph/pkg/bridge"
	"github.com/matzehuels/flowgraph/pkg/errors"
)

func TestNewDefaults(t *testing.T) {
	c := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	defer c.Close()
	assert.Equal(t, DefaultChannel, c.channel)
	assert.Equal(t, time.Second, c.timeout)
	assert.False(t, c.wait)

	c = New(c.client, "custom", WaitForSubscriber(), WithPublishTimeout(time.Minute))
	assert.Equal(t, "custom", c.channel)
	assert.True(t, c.wait)
	assert.Equal(t, time.Minute, c.timeout)
}

func TestHandshakeUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	conn := New(client, "", WaitForSubscriber())
	defer conn.Close()

	host, err := bridge.Handshake(context.Background(), conn, 2*time.Second, nil)
	require.Error(t, err)
	assert.Nil(t, host)
	assert.True(t, errors.Is(err, errors.ErrCodeBridge))
}
