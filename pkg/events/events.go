// Package events defines the closed set of engine notifications and the
// synchronous in-process bus that dispatches them.
//
// Each [Kind] has exactly one payload type. Subscribers register per kind
// and run synchronously in registration order when an event of that kind
// is emitted. A panicking subscriber is recovered and logged as a
// SUBSCRIBER_ERROR; it never affects other subscribers or the emitter.
//
//	bus := events.NewBus(logger)
//	sub := events.Listen(bus, func(e events.NodeSelected) {
//	    fmt.Println("selected", e.ID)
//	})
//	bus.Emit(events.NodeSelected{ID: "a"})
//	bus.Off(sub)
package events

// Kind names an event.
type Kind string

// Event kinds.
const (
	KindNodeSelected          Kind = "nodeSelected"
	KindNodeUnselected        Kind = "nodeUnselected"
	KindNodeHovered           Kind = "nodeHovered"
	KindSelectionCleared      Kind = "selectionCleared"
	KindZoomChanged           Kind = "zoomChanged"
	KindStabilizationProgress Kind = "stabilizationProgress"
	KindStabilizationComplete Kind = "stabilizationComplete"
	KindColorFlowStarted      Kind = "colorFlowStarted"
	KindColorFlowComplete     Kind = "colorFlowComplete"
	KindError                 Kind = "error"
)

// Kinds lists every event kind in a stable order.
var Kinds = []Kind{
	KindNodeSelected,
	KindNodeUnselected,
	KindNodeHovered,
	KindSelectionCleared,
	KindZoomChanged,
	KindStabilizationProgress,
	KindStabilizationComplete,
	KindColorFlowStarted,
	KindColorFlowComplete,
	KindError,
}

// Event is implemented by every payload type.
type Event interface {
	Kind() Kind
}

// NodeSelected is emitted when a node joins the selection.
type NodeSelected struct {
	ID string `json:"id"`
}

// NodeUnselected is emitted when a node leaves the selection by click.
type NodeUnselected struct {
	ID string `json:"id"`
}

// NodeHovered is emitted when the pointer enters a node (ID set) or leaves
// it (ID empty, forwarded as null).
type NodeHovered struct {
	ID string `json:"id"`
}

// SelectionCleared is emitted when a background click empties a non-empty
// selection.
type SelectionCleared struct{}

// ZoomChanged is emitted whenever the view scale changes.
type ZoomChanged struct {
	Scale float64 `json:"scale"`
}

// StabilizationProgress reports layout progress after every tick.
type StabilizationProgress struct {
	Percent int `json:"percent"` // 0-100
}

// StabilizationComplete is emitted once per layout run.
type StabilizationComplete struct {
	Ticks int `json:"ticks"`
}

// ColorFlowStarted is emitted when a queued transition begins animating.
type ColorFlowStarted struct {
	ID      string `json:"id"`
	Reverse bool   `json:"reverse"`
}

// ColorFlowComplete is emitted when a node's own transition step commits.
type ColorFlowComplete struct {
	ID      string `json:"id"`
	Reverse bool   `json:"reverse"`
}

// Error reports a non-validation engine error to observers and the host.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (NodeSelected) Kind() Kind          { return KindNodeSelected }
func (NodeUnselected) Kind() Kind        { return KindNodeUnselected }
func (NodeHovered) Kind() Kind           { return KindNodeHovered }
func (SelectionCleared) Kind() Kind      { return KindSelectionCleared }
func (ZoomChanged) Kind() Kind           { return KindZoomChanged }
func (StabilizationProgress) Kind() Kind { return KindStabilizationProgress }
func (StabilizationComplete) Kind() Kind { return KindStabilizationComplete }
func (ColorFlowStarted) Kind() Kind      { return KindColorFlowStarted }
func (ColorFlowComplete) Kind() Kind     { return KindColorFlowComplete }
func (Error) Kind() Kind                 { return KindError }
