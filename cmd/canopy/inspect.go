package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/canopy"
	"github.com/vango-dev/canopy/pkg/host"
	"github.com/vango-dev/canopy/pkg/paint"
	"github.com/vango-dev/canopy/pkg/ui"
	"github.com/vango-dev/canopy/pkg/widgets"
)

func inspectCmd(flags *globalFlags) *cobra.Command {
	var (
		addr string
		tick time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run the demo app with the inspector server",
		Long: `Run the demo app under the host and serve the inspector.

The inspector streams every frame over /ws and serves the paint tree
on /tree, Prometheus metrics on /metrics and snapshots on /snapshots.
With --tick the demo increments one counter per interval.

Examples:
  canopy inspect
  canopy inspect --addr :7070 --tick 500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			cfg.Inspector.Enabled = true
			if addr != "" {
				cfg.Inspector.Addr = addr
			}

			app, err := canopy.New(cfg, widgets.Demo(cfg.Demo.Counters),
				canopy.WithLogger(logger(cmd, cfg)))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			success(w, "inspector on http://%s", cfg.Inspector.Addr)
			info(w, "Press Ctrl+C to stop")

			if tick > 0 {
				go runTicker(ctx, app.Host(), tick)
			}
			return app.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from canopy.json)")
	cmd.Flags().DurationVarP(&tick, "tick", "t", 0, "Increment a counter at this interval")

	return cmd
}

// runTicker increments the demo counters round robin until ctx is done.
func runTicker(ctx context.Context, h *host.Host, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var n int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// Do fails while the host is starting or stopping; the next tick
		// retries.
		_ = h.Do(ctx, func(pt *paint.Tree) {
			counters := countersIn(pt)
			if len(counters) == 0 {
				return
			}
			node, _ := pt.Node(counters[n%len(counters)])
			widgets.Increment(node.Pod.State)
			n++
		})
	}
}

// countersIn returns the mounted counters of pt in pre-order.
func countersIn(pt *paint.Tree) []ui.ID {
	var out []ui.ID
	var visit func(id ui.ID)
	visit = func(id ui.ID) {
		if node, ok := pt.Node(id); ok {
			if _, ok := node.Pod.Widget.(widgets.Counter); ok {
				out = append(out, id)
			}
		}
		for _, c := range pt.Children(id) {
			visit(c)
		}
	}
	if root := pt.Root(); !root.IsNil() {
		visit(root)
	}
	return out
}
