package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/internal/server"
	"github.com/matzehuels/flowgraph/internal/watch"
	"github.com/matzehuels/flowgraph/pkg/bridge"
	"github.com/matzehuels/flowgraph/pkg/bridge/redisbridge"
	"github.com/matzehuels/flowgraph/pkg/controller"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/loop"
	"github.com/matzehuels/flowgraph/pkg/observability"
)

const defaultEventsLimit = 1000

// serveOpts holds the serve command flags.
type serveOpts struct {
	addr          string
	redisAddr     string
	redisPassword string
	redisDB       int
	redisChannel  string
	watch         bool
	eventsLimit   int
	seed          uint64
}

// serveCommand creates the serve command for the HTTP host.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:         ":8080",
		redisChannel: redisbridge.DefaultChannel,
		eventsLimit:  defaultEventsLimit,
	}

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Run the engine behind an HTTP API",
		Long: `Run the engine behind an HTTP API.

The optional file is loaded at startup; new data can be PUT to /data at any
time. Every event is recorded for GET /events and, with --redis, also
published on a Redis channel. With --watch the file is reloaded whenever it
changes on disk.`,
		Example: `  flowgraph serve graph.json --watch
  flowgraph serve --addr :9090 --redis localhost:6379`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDataset,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runServe(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "also publish events to this Redis server")
	cmd.Flags().StringVar(&opts.redisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&opts.redisDB, "redis-db", 0, "Redis database")
	cmd.Flags().StringVar(&opts.redisChannel, "redis-channel", opts.redisChannel, "Redis pub/sub channel for events")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload the input file when it changes")
	cmd.Flags().IntVar(&opts.eventsLimit, "events-limit", opts.eventsLimit, "number of recorded events kept for /events")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed for generated colors and layout jitter (0 = random)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input string, opts serveOpts) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	var initial *graph.Dataset
	if input != "" {
		d, err := graph.ReadFile(input)
		if err != nil {
			return err
		}
		initial = &d
	}

	rec := bridge.NewRecorder(opts.eventsLimit)
	var conn bridge.Connector = rec
	if opts.redisAddr != "" {
		rc := redisbridge.Dial(opts.redisAddr, opts.redisPassword, opts.redisDB, opts.redisChannel,
			redisbridge.WithLogger(logger.WithPrefix("redis")))
		defer rc.Close()
		conn = bridge.Tee(rec, rc)
	}

	l := loop.New(loop.DefaultFrame)
	ctrlOpts := []controller.Option{
		controller.WithLogger(logger),
		controller.WithConnector(conn),
		controller.WithBridgeHooks(observability.NewLogHooks(logger)),
	}
	if opts.seed != 0 {
		ctrlOpts = append(ctrlOpts, controller.WithSeed(opts.seed))
	}
	ctrl := controller.New(l, cfg, ctrlOpts...)
	srv := server.New(l, ctrl, server.WithLogger(logger), server.WithRecorder(rec))

	update := func(d graph.Dataset) {
		l.Post(func() {
			ctrl.UpdateData(ctx, d).Then(func(err error) {
				if err != nil {
					logger.Error("update failed", "err", err)
					return
				}
				logger.Info("graph loaded", "nodes", len(d.Nodes), "edges", len(d.Edges))
			})
		})
	}

	var tasks []server.Task
	if initial != nil {
		update(*initial)
	}
	if opts.watch {
		if input == "" {
			logger.Warn("--watch needs an input file; ignoring")
		} else {
			w, err := newWatcher(input, update, logger)
			if err != nil {
				return err
			}
			tasks = append(tasks, w.Run)
		}
	}

	printInfo("Serving on %s", opts.addr)
	return srv.Run(ctx, opts.addr, tasks...)
}

func newWatcher(input string, update func(graph.Dataset), logger *log.Logger) (*watch.Watcher, error) {
	return watch.New(input, update,
		watch.WithLogger(logger.WithPrefix("watch")),
		watch.WithOnError(func(err error) { logger.Warn("reload failed", "err", err) }),
	)
}
