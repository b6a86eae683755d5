package events

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// Handler receives one event.
type Handler func(Event)

// FallibleHandler receives one event and may fail. A returned error is
// logged as SUBSCRIBER_ERROR and does not stop dispatch.
type FallibleHandler func(Event) error

// Subscription identifies a registration for [Bus.Off].
type Subscription struct {
	Kind Kind
	id   uint64
}

type entry struct {
	id uint64
	fn FallibleHandler
}

// Bus is a synchronous publish/subscribe dispatcher. It is owned by one
// goroutine and is not safe for concurrent use.
type Bus struct {
	logger *log.Logger
	subs   map[Kind][]entry
	next   uint64
}

// NewBus creates an empty bus. A nil logger uses log.Default().
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{logger: logger, subs: make(map[Kind][]entry)}
}

// On registers fn for events of the given kind.
func (b *Bus) On(kind Kind, fn Handler) Subscription {
	return b.OnErr(kind, func(e Event) error {
		fn(e)
		return nil
	})
}

// OnErr registers a handler that reports failure by returning an error.
func (b *Bus) OnErr(kind Kind, fn FallibleHandler) Subscription {
	b.next++
	b.subs[kind] = append(b.subs[kind], entry{id: b.next, fn: fn})
	return Subscription{Kind: kind, id: b.next}
}

// Listen registers a typed handler. The kind is taken from the payload type.
func Listen[T Event](b *Bus, fn func(T)) Subscription {
	var zero T
	return b.On(zero.Kind(), func(e Event) {
		if te, ok := e.(T); ok {
			fn(te)
		}
	})
}

// Off removes a registration. Reports whether it was registered.
func (b *Bus) Off(sub Subscription) bool {
	list := b.subs[sub.Kind]
	for i, e := range list {
		if e.id == sub.id {
			b.subs[sub.Kind] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Emit delivers e to every handler registered for its kind, in
// registration order. Handlers registered or removed during dispatch take
// effect from the next Emit.
func (b *Bus) Emit(e Event) {
	list := b.subs[e.Kind()]
	for _, s := range list {
		b.dispatch(e, s)
	}
}

func (b *Bus) dispatch(e Event, s entry) {
	var err error
	defer func() {
		if p := errors.Recovered(recover()); p != nil {
			err = p
		}
		if err != nil {
			b.logger.Error("subscriber failed",
				"code", errors.ErrCodeSubscriber, "event", e.Kind(), "err", err)
		}
	}()
	err = s.fn(e)
}

// Count returns the number of handlers registered for kind.
func (b *Bus) Count(kind Kind) int {
	return len(b.subs[kind])
}

// Cleanup discards every registration.
func (b *Bus) Cleanup() {
	clear(b.subs)
}
