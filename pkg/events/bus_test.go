package events

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus() (*Bus, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewBus(log.New(&buf)), &buf
}

func TestEmitRegistrationOrder(t *testing.T) {
	bus, _ := newTestBus()
	var got []int
	bus.On(KindNodeSelected, func(Event) { got = append(got, 1) })
	bus.On(KindNodeSelected, func(Event) { got = append(got, 2) })
	bus.On(KindNodeUnselected, func(Event) { got = append(got, 99) })
	bus.On(KindNodeSelected, func(Event) { got = append(got, 3) })

	bus.Emit(NodeSelected{ID: "a"})

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestListenTyped(t *testing.T) {
	bus, _ := newTestBus()
	var scale float64
	Listen(bus, func(e ZoomChanged) { scale = e.Scale })

	bus.Emit(ZoomChanged{Scale: 2.5})
	assert.Equal(t, 2.5, scale)
	assert.Equal(t, 1, bus.Count(KindZoomChanged))
}

func TestOff(t *testing.T) {
	bus, _ := newTestBus()
	calls := 0
	sub := bus.On(KindSelectionCleared, func(Event) { calls++ })
	other := bus.On(KindSelectionCleared, func(Event) { calls += 10 })

	require.True(t, bus.Off(sub))
	assert.False(t, bus.Off(sub), "second Off should report false")

	bus.Emit(SelectionCleared{})
	assert.Equal(t, 10, calls)

	bus.Off(other)
	bus.Emit(SelectionCleared{})
	assert.Equal(t, 10, calls)
}

func TestPanickingSubscriberIsolated(t *testing.T) {
	bus, logs := newTestBus()
	var after bool
	bus.On(KindNodeHovered, func(Event) { panic("bad handler") })
	bus.On(KindNodeHovered, func(Event) { after = true })

	assert.NotPanics(t, func() { bus.Emit(NodeHovered{ID: "x"}) })
	assert.True(t, after, "later subscriber must still run")
	assert.Contains(t, logs.String(), "SUBSCRIBER_ERROR")
	assert.Contains(t, logs.String(), "bad handler")
}

func TestFailingSubscriberIsolated(t *testing.T) {
	bus, logs := newTestBus()
	var calls []string
	bus.OnErr(KindNodeSelected, func(e Event) error {
		calls = append(calls, "first")
		return fmt.Errorf("cannot mirror %s", e.(NodeSelected).ID)
	})
	sub := bus.OnErr(KindNodeSelected, func(Event) error {
		calls = append(calls, "second")
		return nil
	})

	bus.Emit(NodeSelected{ID: "a"})
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Contains(t, logs.String(), "SUBSCRIBER_ERROR")
	assert.Contains(t, logs.String(), "cannot mirror a")

	require.True(t, bus.Off(sub))
	assert.Equal(t, 1, bus.Count(KindNodeSelected))
}

func TestOffDuringEmit(t *testing.T) {
	bus, _ := newTestBus()
	var got []string
	var second Subscription
	bus.On(KindColorFlowStarted, func(Event) {
		got = append(got, "first")
		bus.Off(second)
	})
	second = bus.On(KindColorFlowStarted, func(Event) { got = append(got, "second") })

	bus.Emit(ColorFlowStarted{ID: "a"})
	bus.Emit(ColorFlowStarted{ID: "a"})

	assert.Equal(t, []string{"first", "second", "first"}, got)
}

func TestCleanup(t *testing.T) {
	bus, _ := newTestBus()
	for _, k := range Kinds {
		bus.On(k, func(Event) { t.Errorf("handler for %s ran after Cleanup", k) })
	}
	bus.Cleanup()

	bus.Emit(NodeSelected{})
	bus.Emit(StabilizationComplete{})
	for _, k := range Kinds {
		assert.Zero(t, bus.Count(k))
	}
}

func TestKindsClosedSet(t *testing.T) {
	payloads := []Event{
		NodeSelected{}, NodeUnselected{}, NodeHovered{}, SelectionCleared{},
		ZoomChanged{}, StabilizationProgress{}, StabilizationComplete{},
		ColorFlowStarted{}, ColorFlowComplete{}, Error{},
	}
	require.Len(t, payloads, len(Kinds))
	for i, p := range payloads {
		assert.Equal(t, Kinds[i], p.Kind())
	}
}
