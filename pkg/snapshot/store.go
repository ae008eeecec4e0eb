package snapshot

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vango-dev/canopy/internal/errors"
)

// Store persists snapshots.
type Store interface {
	// Save stores s and returns its ID.
	Save(ctx context.Context, s *Snapshot) (string, error)

	// Load returns the snapshot stored under id. A missing snapshot yields
	// an E301 error.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// List returns the stored IDs, oldest first.
	List(ctx context.Context) ([]string, error)
}

const fileExt = ".json"

// DiskStore stores snapshots as JSON files in a directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed and returns a store writing into it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New("E302").WithDetailf("create %s", dir).Wrap(err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory snapshots are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save implements Store.
func (s *DiskStore) Save(_ context.Context, snap *Snapshot) (string, error) {
	data, err := snap.Encode()
	if err != nil {
		return "", errors.New("E302").Wrap(err)
	}
	path := s.path(snap.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", errors.New("E302").WithDetailf("write %s", tmp).Wrap(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", errors.New("E302").WithDetailf("rename %s", tmp).Wrap(err)
	}
	return snap.ID, nil
}

// Load implements Store.
func (s *DiskStore) Load(_ context.Context, id string) (*Snapshot, error) {
	if !validID(id) {
		return nil, errors.New("E301").WithDetailf("invalid id %q", id)
	}
	data, err := os.ReadFile(s.path(id))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.New("E301").WithDetailf("no snapshot %q in %s", id, s.dir)
	}
	if err != nil {
		return nil, errors.New("E301").Wrap(err)
	}
	return Decode(data)
}

// List implements Store.
func (s *DiskStore) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), fileExt))
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *DiskStore) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

// validID rejects IDs that would escape the store's directory or prefix.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
