package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowgraph/pkg/events"
)

// Method names used in messages for the calls that are not events.
const (
	MethodDebugLog    = "debugLog"
	MethodHandleError = "handleError"
)

// Message is one host call in wire form. Method is the event kind or one
// of the Method constants; Args holds the call arguments in order.
type Message struct {
	ID     string    `json:"id"`
	Seq    uint64    `json:"seq"`
	Method string    `json:"method"`
	Args   []any     `json:"args"`
	Time   time.Time `json:"time"`
}

// Encoder is a [Host] that turns every call into a [Message] and hands it
// to a publish function. It is safe for concurrent use.
type Encoder struct {
	publish func(Message)
	seq     atomic.Uint64
	now     func() time.Time
}

// NewEncoder returns an encoder calling publish for every message.
func NewEncoder(publish func(Message)) *Encoder {
	return &Encoder{publish: publish, now: time.Now}
}

func (e *Encoder) send(method string, args ...any) {
	if args == nil {
		args = []any{}
	}
	e.publish(Message{
		ID:     uuid.NewString(),
		Seq:    e.seq.Add(1),
		Method: method,
		Args:   args,
		Time:   e.now(),
	})
}

func (e *Encoder) DebugLog(msg string)      { e.send(MethodDebugLog, msg) }
func (e *Encoder) NodeSelected(id string)   { e.send(string(events.KindNodeSelected), id) }
func (e *Encoder) NodeUnselected(id string) { e.send(string(events.KindNodeUnselected), id) }
func (e *Encoder) SelectionCleared()        { e.send(string(events.KindSelectionCleared)) }
func (e *Encoder) ZoomChanged(scale float64) {
	e.send(string(events.KindZoomChanged), scale)
}
func (e *Encoder) StabilizationProgress(percent int) {
	e.send(string(events.KindStabilizationProgress), percent)
}
func (e *Encoder) StabilizationComplete()      { e.send(string(events.KindStabilizationComplete)) }
func (e *Encoder) ColorFlowStarted(id string)  { e.send(string(events.KindColorFlowStarted), id) }
func (e *Encoder) ColorFlowComplete(id string) { e.send(string(events.KindColorFlowComplete), id) }
func (e *Encoder) HandleError(msg string)      { e.send(MethodHandleError, msg) }

// NodeHovered sends a nil argument for an empty id.
func (e *Encoder) NodeHovered(id string) {
	if id == "" {
		e.send(string(events.KindNodeHovered), nil)
		return
	}
	e.send(string(events.KindNodeHovered), id)
}

// Recorder is an in-memory [Host] that keeps the most recent messages. It
// serves hosts that poll, such as the HTTP event feed, and tests.
type Recorder struct {
	*Encoder

	mu    sync.Mutex
	limit int
	msgs  []Message
}

// NewRecorder keeps at most limit messages; limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	r := &Recorder{limit: limit}
	r.Encoder = NewEncoder(r.record)
	return r
}

func (r *Recorder) record(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	if r.limit > 0 && len(r.msgs) > r.limit {
		r.msgs = append(r.msgs[:0:0], r.msgs[len(r.msgs)-r.limit:]...)
	}
}

// Connect implements [Connector]; a recorder is always ready.
func (r *Recorder) Connect(ctx context.Context) (Host, error) { return r, ctx.Err() }

// Since returns the retained messages with Seq greater than seq.
func (r *Recorder) Since(seq uint64) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.msgs {
		if m.Seq > seq {
			out = append(out, m)
		}
	}
	return out
}

// Methods returns the method names of the retained messages in order.
func (r *Recorder) Methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Method
	}
	return out
}

// Reset discards every retained message. Sequence numbers keep counting.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}

func (r *Recorder) String() string { return "recorder" }
