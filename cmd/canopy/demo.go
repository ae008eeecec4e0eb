package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/canopy"
	"github.com/vango-dev/canopy/internal/config"
	"github.com/vango-dev/canopy/pkg/host"
	"github.com/vango-dev/canopy/pkg/render"
	"github.com/vango-dev/canopy/pkg/snapshot"
	"github.com/vango-dev/canopy/pkg/ui"
	"github.com/vango-dev/canopy/pkg/widgets"
)

var patchOps = []render.PatchOp{
	render.PatchAppend,
	render.PatchInsert,
	render.PatchUpdate,
	render.PatchPlacement,
	render.PatchRemove,
}

func demoCmd(flags *globalFlags) *cobra.Command {
	var (
		updates  int
		counters int
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render the demo app headless",
		Long: `Render the demo app on the calling goroutine, increment its
counters round robin and print every frame and the final tree.

Examples:
  canopy demo
  canopy demo --updates 10
  canopy demo --counters 100 --updates 1000 --quiet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("counters") {
				cfg.Demo.Counters = counters
			}
			return runDemo(cmd, cfg, updates, quiet)
		},
	}

	cmd.Flags().IntVarP(&updates, "updates", "u", 0, "Number of counter increments to apply")
	cmd.Flags().IntVarP(&counters, "counters", "n", 0, "Number of counters (default from canopy.json)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the summary")

	return cmd
}

func runDemo(cmd *cobra.Command, cfg *config.Config, updates int, quiet bool) error {
	if updates < 0 {
		return fmt.Errorf("--updates must not be negative, got %d", updates)
	}
	if cfg.Demo.Counters < 0 {
		return fmt.Errorf("--counters must not be negative, got %d", cfg.Demo.Counters)
	}
	w := cmd.OutOrStdout()
	log := logger(cmd, cfg)

	d := canopy.NewDriver(
		ui.Size{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height},
		render.WithLogger(log.With("component", "render")),
	)

	start := time.Now()
	frames := []host.Batch{d.Mount(widgets.Demo(cfg.Demo.Counters))}

	ids := canopy.Find[widgets.Counter](d)
	if len(ids) > 0 {
		for i := range updates {
			st, _ := d.State(ids[i%len(ids)])
			widgets.Increment(st)
			frames = append(frames, d.Flush()...)
		}
	}
	elapsed := time.Since(start)

	var patches int
	for _, f := range frames {
		patches += len(f.Patches)
		if !quiet {
			printFrame(w, f)
		}
	}
	if !quiet {
		fmt.Fprintln(w)
		printTree(w, snapshot.Capture(d.PaintTree(), d.Seq(), d.Viewport()))
		fmt.Fprintln(w)
	}

	success(w, "%s frames, %s patches, %s nodes in %s",
		humanize.Comma(int64(len(frames))),
		humanize.Comma(int64(patches)),
		humanize.Comma(int64(d.RenderTree().Len())),
		elapsed.Round(time.Microsecond))
	if len(frames) > 1 {
		per := elapsed / time.Duration(len(frames))
		info(w, "%s per frame, %s display commands", per.Round(time.Microsecond), humanize.Comma(int64(d.Canvas().Len())))
	}
	return nil
}

// printFrame prints one line per frame: what ran and what it cost.
func printFrame(w io.Writer, b host.Batch) {
	counts := render.Count(b.Patches)
	var ops []string
	for _, op := range patchOps {
		if n := counts[op]; n > 0 {
			ops = append(ops, fmt.Sprintf("%s=%d", op, n))
		}
	}
	if len(ops) == 0 {
		ops = append(ops, "none")
	}
	fmt.Fprintf(w, "#%-4d %-6s %-9v patches[%s] laid_out=%d reused=%d painted=%v\n",
		b.Seq, b.Kind, b.Target, strings.Join(ops, " "), b.Layout.LaidOut, b.Layout.Reused, b.Painted)
}

// printTree prints a snapshot as an indented outline.
func printTree(w io.Writer, s *snapshot.Snapshot) {
	s.Walk(func(n *snapshot.Node, depth int) bool {
		key := ""
		if n.Key != "" {
			key = fmt.Sprintf(" %q", n.Key)
		}
		fmt.Fprintf(w, "%s%s%s (%g,%g %gx%g)\n",
			strings.Repeat("  ", depth), n.Type, key,
			n.Bounds.X, n.Bounds.Y, n.Bounds.Width, n.Bounds.Height)
		return true
	})
}
