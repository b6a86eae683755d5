package bridge

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Tee returns a connector that connects every c concurrently and yields a
// host duplicating each call to all of them, in argument order. It fails
// when any connector fails.
func Tee(connectors ...Connector) Connector {
	return ConnectorFunc(func(ctx context.Context) (Host, error) {
		hosts := make(multiHost, len(connectors))
		g, ctx := errgroup.WithContext(ctx)
		for i, c := range connectors {
			g.Go(func() error {
				h, err := c.Connect(ctx)
				hosts[i] = h
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return hosts, nil
	})
}

type multiHost []Host

func (m multiHost) each(fn func(Host)) {
	for _, h := range m {
		if h != nil {
			fn(h)
		}
	}
}

func (m multiHost) DebugLog(msg string)      { m.each(func(h Host) { h.DebugLog(msg) }) }
func (m multiHost) NodeSelected(id string)   { m.each(func(h Host) { h.NodeSelected(id) }) }
func (m multiHost) NodeUnselected(id string) { m.each(func(h Host) { h.NodeUnselected(id) }) }
func (m multiHost) NodeHovered(id string)    { m.each(func(h Host) { h.NodeHovered(id) }) }
func (m multiHost) SelectionCleared()        { m.each(func(h Host) { h.SelectionCleared() }) }
func (m multiHost) ZoomChanged(scale float64) {
	m.each(func(h Host) { h.ZoomChanged(scale) })
}
func (m multiHost) StabilizationProgress(percent int) {
	m.each(func(h Host) { h.StabilizationProgress(percent) })
}
func (m multiHost) StabilizationComplete()      { m.each(func(h Host) { h.StabilizationComplete() }) }
func (m multiHost) ColorFlowStarted(id string)  { m.each(func(h Host) { h.ColorFlowStarted(id) }) }
func (m multiHost) ColorFlowComplete(id string) { m.each(func(h Host) { h.ColorFlowComplete(id) }) }
func (m multiHost) HandleError(msg string)      { m.each(func(h Host) { h.HandleError(msg) }) }

func (m multiHost) String() string {
	names := make([]string, len(m))
	for i, h := range m {
		names[i] = hostName(h)
	}
	return "tee(" + strings.Join(names, ",") + ")"
}
