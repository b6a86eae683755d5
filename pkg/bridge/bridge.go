// Package bridge connects the engine to its hosting application.
//
// A [Host] receives one call per engine event plus DebugLog and
// HandleError. Hosts become available asynchronously: a [Connector]
// performs the connection, and [Handshake] bounds it with a timeout so a
// host that never answers fails Initialize with BRIDGE_ERROR instead of
// hanging it.
//
//	host, err := bridge.Handshake(ctx, conn, 5*time.Second, hooks)
//	if err != nil {
//	    return err
//	}
//	detach := bridge.Forward(bus, host, hooks)
//	defer detach()
//
// Hosts that speak a wire protocol build on [Encoder], which turns every
// call into a sequenced [Message]. [Recorder] keeps messages in memory and
// the redisbridge subpackage publishes them on a Redis channel.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/events"
	"github.com/matzehuels/flowgraph/pkg/observability"
)

// DefaultTimeout bounds the handshake when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Host is the hosting application's side of the bridge. Calls are made
// from the engine goroutine and must not block.
type Host interface {
	DebugLog(msg string)

	NodeSelected(id string)
	NodeUnselected(id string)
	NodeHovered(id string) // Empty id means no node
	SelectionCleared()
	ZoomChanged(scale float64)
	StabilizationProgress(percent int)
	StabilizationComplete()
	ColorFlowStarted(id string)
	ColorFlowComplete(id string)

	HandleError(msg string)
}

// Connector establishes a host connection. Connect should honor ctx but
// is not required to: [Handshake] stops waiting when ctx is done.
type Connector interface {
	Connect(ctx context.Context) (Host, error)
}

// ConnectorFunc adapts a function to [Connector].
type ConnectorFunc func(ctx context.Context) (Host, error)

// Connect calls f(ctx).
func (f ConnectorFunc) Connect(ctx context.Context) (Host, error) { return f(ctx) }

// Static returns a connector that yields h immediately.
func Static(h Host) Connector {
	return ConnectorFunc(func(context.Context) (Host, error) { return h, nil })
}

// Handshake waits for c to produce a host, for at most timeout. It fails
// with BRIDGE_ERROR when the connector fails, returns no host, or does not
// answer in time. A non-positive timeout uses [DefaultTimeout].
func Handshake(ctx context.Context, c Connector, timeout time.Duration, hooks observability.BridgeHooks) (Host, error) {
	if hooks == nil {
		hooks = observability.NoopBridgeHooks{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if c == nil {
		return nil, errors.New(errors.ErrCodeBridge, "no bridge connector")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		host Host
		err  error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		defer func() {
			if err := errors.Recovered(recover()); err != nil {
				done <- result{err: err}
			}
		}()
		h, err := c.Connect(ctx)
		done <- result{h, err}
	}()

	var (
		host Host
		err  error
	)
	select {
	case r := <-done:
		host, err = r.host, r.err
		if err == nil && host == nil {
			err = fmt.Errorf("connector returned no host")
		}
		if err != nil {
			err = errors.Wrap(errors.ErrCodeBridge, err, "bridge handshake failed")
		}
	case <-ctx.Done():
		err = errors.Wrap(errors.ErrCodeBridge, ctx.Err(), "bridge handshake timed out after %s", timeout)
	}
	hooks.OnHandshake(ctx, hostName(host), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return host, nil
}

func hostName(h Host) string {
	if h == nil {
		return ""
	}
	if s, ok := h.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", h)
}

// Forward subscribes host to every event kind on bus. Zoom changes are
// forwarded unconditionally. The returned function removes the
// subscriptions.
func Forward(bus *events.Bus, host Host, hooks observability.BridgeHooks) (detach func()) {
	if hooks == nil {
		hooks = observability.NoopBridgeHooks{}
	}
	subs := make([]events.Subscription, 0, len(events.Kinds))
	for _, kind := range events.Kinds {
		subs = append(subs, bus.On(kind, func(e events.Event) {
			hooks.OnForward(string(e.Kind()))
			Deliver(host, e)
		}))
	}
	return func() {
		for _, s := range subs {
			bus.Off(s)
		}
		subs = nil
	}
}

// Deliver makes the host call matching e.
func Deliver(host Host, e events.Event) {
	switch ev := e.(type) {
	case events.NodeSelected:
		host.NodeSelected(ev.ID)
	case events.NodeUnselected:
		host.NodeUnselected(ev.ID)
	case events.NodeHovered:
		host.NodeHovered(ev.ID)
	case events.SelectionCleared:
		host.SelectionCleared()
	case events.ZoomChanged:
		host.ZoomChanged(ev.Scale)
	case events.StabilizationProgress:
		host.StabilizationProgress(ev.Percent)
	case events.StabilizationComplete:
		host.StabilizationComplete()
	case events.ColorFlowStarted:
		host.ColorFlowStarted(ev.ID)
	case events.ColorFlowComplete:
		host.ColorFlowComplete(ev.ID)
	case events.Error:
		host.HandleError(fmt.Sprintf("%s: %s", ev.Code, ev.Message))
	}
}
