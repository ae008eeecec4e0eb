package canopy

import (
	"github.com/vango-dev/canopy/internal/config"
	"github.com/vango-dev/canopy/pkg/snapshot"
)

// OpenStore returns the snapshot store cfg selects: S3 when a bucket is
// set, the snapshot directory otherwise.
func OpenStore(cfg *config.Config) (snapshot.Store, error) {
	if cfg.UseS3() {
		client := snapshot.NewS3Client(cfg.Snapshot.Region, cfg.Snapshot.Endpoint)
		return snapshot.NewS3Store(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix), nil
	}
	return snapshot.NewDiskStore(cfg.SnapshotPath())
}
