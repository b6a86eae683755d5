package pipeline

import (
	"context"
	"math/rand/v2"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/process"
)

// Load returns the dataset named by opts: opts.Dataset when set, otherwise
// the file at opts.Input.
func Load(ctx context.Context, opts Options) (graph.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return graph.Dataset{}, err
	}
	if opts.Dataset != nil {
		return *opts.Dataset, nil
	}
	if opts.Input == "" {
		return graph.Dataset{}, errors.New(errors.ErrCodeInvalidInput, "input file or dataset is required")
	}
	return graph.ReadFile(opts.Input)
}

// Process runs the data processor with colors seeded from opts.Seed, so the
// same dataset and seed always yield the same generated colors.
func Process(d graph.Dataset, opts Options) *process.Result {
	seed := opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	return process.Process(d, process.Options{Rand: rand.New(rand.NewPCG(seed, seed))})
}
