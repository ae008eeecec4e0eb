package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/canopy"
	"github.com/vango-dev/canopy/internal/config"
	"github.com/vango-dev/canopy/pkg/snapshot"
	"github.com/vango-dev/canopy/pkg/widgets"
)

func snapshotCmd(flags *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the demo app and save a snapshot",
		Long: `Render the demo app under the host and save its paint tree to
the snapshot store: the snapshot directory, or S3 when
snapshot.bucket is set in canopy.json.

Examples:
  canopy snapshot
  canopy snapshot list
  canopy snapshot show 20261017T120000.000000000Z-1a2b3c4d`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			cfg.Inspector.Enabled = false

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return saveSnapshot(ctx, cmd, cfg)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up after this long")

	cmd.AddCommand(
		snapshotListCmd(flags),
		snapshotShowCmd(flags),
	)
	return cmd
}

func saveSnapshot(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	app, err := canopy.New(cfg, widgets.Demo(cfg.Demo.Counters),
		canopy.WithLogger(logger(cmd, cfg)))
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- app.Run(runCtx) }()

	var (
		snap *snapshot.Snapshot
		id   string
	)
	select {
	case <-app.Ready():
		snap, err = app.Capture(ctx)
		if err == nil {
			id, err = app.Store().Save(ctx, snap)
		}
	case err = <-done:
		stop()
		if err == nil {
			err = ctx.Err()
		}
		return err
	case <-ctx.Done():
		err = ctx.Err()
	}

	stop()
	if runErr := <-done; err == nil {
		err = runErr
	}
	if err != nil {
		return err
	}

	data, err := snap.Encode()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	success(w, "saved snapshot %s", id)
	info(w, "%s nodes, %s", humanize.Comma(int64(snap.Nodes)), humanize.Bytes(uint64(len(data))))
	info(w, "store: %s", describeStore(cfg))
	return nil
}

func snapshotListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			store, err := canopy.OpenStore(cfg)
			if err != nil {
				return err
			}
			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(w, id)
			}
			info(w, "%s snapshots in %s", humanize.Comma(int64(len(ids))), describeStore(cfg))
			return nil
		},
	}
}

func snapshotShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved snapshot as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			store, err := canopy.OpenStore(cfg)
			if err != nil {
				return err
			}
			snap, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "snapshot %s: seq %d, %d nodes, taken %s\n",
				snap.ID, snap.Seq, snap.Nodes, humanize.Time(snap.CreatedAt))
			printTree(w, snap)
			return nil
		},
	}
}

func describeStore(cfg *config.Config) string {
	if cfg.UseS3() {
		return fmt.Sprintf("s3://%s/%s", cfg.Snapshot.Bucket, cfg.Snapshot.Prefix)
	}
	return cfg.SnapshotPath()
}
