package sink

import (
	"github.com/matzehuels/flowgraph/pkg/render"
)

// DefaultMargin is the padding WithFit leaves around the nodes.
const DefaultMargin = 40.0

// Option configures a sink.
type Option func(*options)

type options struct {
	fit    bool
	margin float64
	scale  float64
	labels bool
}

// WithFit frames all nodes instead of using the scene transform.
func WithFit() Option { return func(o *options) { o.fit = true } }

// WithMargin sets the padding used by WithFit.
func WithMargin(m float64) Option { return func(o *options) { o.margin = m } }

// WithScale sets the raster scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) Option { return func(o *options) { o.scale = s } }

// WithoutLabels omits node labels.
func WithoutLabels() Option { return func(o *options) { o.labels = false } }

func newOptions(opts []Option) options {
	o := options{margin: DefaultMargin, scale: 2.0, labels: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scale <= 0 {
		o.scale = 1
	}
	return o
}

func (o options) transform(s render.Scene) render.Transform {
	if o.fit {
		return s.Fit(o.margin)
	}
	if s.Transform.K == 0 {
		return render.Identity
	}
	return s.Transform
}
