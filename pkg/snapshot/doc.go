// Package snapshot captures the paint tree as JSON and persists it.
//
// A Snapshot records every mounted node with its widget type, key, flags and
// absolute bounds. Snapshots are saved through a Store:
//
//   - DiskStore writes one <id>.json file per snapshot under a directory
//   - S3Store puts one object per snapshot under a bucket prefix
//
// Example:
//
//	store, err := snapshot.NewDiskStore("snapshots")
//	if err != nil {
//	    return err
//	}
//	snap := snapshot.Capture(pt, seq, viewport)
//	id, err := store.Save(ctx, snap)
//
// Store errors carry the E3xx codes of internal/errors.
package snapshot
