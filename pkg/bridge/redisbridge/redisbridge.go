// Package redisbridge publishes bridge host calls on a Redis pub/sub
// channel, one JSON [bridge.Message] per call.
//
// The handshake pings the server and, with [WaitForSubscriber], waits until
// the host application has subscribed to the channel:
//
//	conn := redisbridge.New(client, "flowgraph:events", redisbridge.WaitForSubscriber())
//	host, err := bridge.Handshake(ctx, conn, 5*time.Second, hooks)
package redisbridge

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flowgraph/pkg/bridge"
	"github.com/matzehuels/flowgraph/pkg/errors"
)

// DefaultChannel is the channel used when none is given.
const DefaultChannel = "flowgraph:events"

// subscriberPoll is the interval between subscriber checks.
const subscriberPoll = 100 * time.Millisecond

// Option configures a [Connector].
type Option func(*Connector)

// WithLogger sets the logger used for publish failures.
func WithLogger(l *log.Logger) Option { return func(c *Connector) { c.logger = l } }

// WaitForSubscriber makes Connect wait until the channel has a subscriber.
func WaitForSubscriber() Option { return func(c *Connector) { c.wait = true } }

// WithPublishTimeout bounds each publish. Defaults to one second.
func WithPublishTimeout(d time.Duration) Option { return func(c *Connector) { c.timeout = d } }

// Connector is a [bridge.Connector] for a Redis channel.
type Connector struct {
	client  *redis.Client
	channel string
	logger  *log.Logger
	wait    bool
	timeout time.Duration
}

// New returns a connector publishing on channel through client.
func New(client *redis.Client, channel string, opts ...Option) *Connector {
	if channel == "" {
		channel = DefaultChannel
	}
	c := &Connector{client: client, channel: channel, logger: log.Default(), timeout: time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial creates a client for addr and returns a connector for it.
func Dial(addr, password string, db int, channel string, opts ...Option) *Connector {
	return New(redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}), channel, opts...)
}

// Connect pings the server and optionally waits for a subscriber.
func (c *Connector) Connect(ctx context.Context) (bridge.Host, error) {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping redis")
	}
	for c.wait {
		counts, err := c.client.PubSubNumSub(ctx, c.channel).Result()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "query subscribers")
		}
		if counts[c.channel] > 0 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(subscriberPoll):
		}
	}
	h := &Host{conn: c}
	h.Encoder = bridge.NewEncoder(h.publish)
	h.DebugLog("bridge connected")
	return h, nil
}

// Close closes the underlying client.
func (c *Connector) Close() error { return c.client.Close() }

// Host publishes every call as a JSON message.
type Host struct {
	*bridge.Encoder
	conn *Connector
}

func (h *Host) publish(m bridge.Message) {
	data, err := json.Marshal(m)
	if err != nil {
		h.conn.logger.Error("encode bridge message", "method", m.Method, "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.conn.timeout)
	defer cancel()
	if err := h.conn.client.Publish(ctx, h.conn.channel, data).Err(); err != nil {
		h.conn.logger.Warn("publish bridge message", "channel", h.conn.channel, "method", m.Method, "err", err)
	}
}

func (h *Host) String() string { return "redis:" + h.conn.channel }
