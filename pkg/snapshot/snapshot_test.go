package snapshot

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/canopy/internal/errors"
	"github.com/vango-dev/canopy/pkg/paint"
	"github.com/vango-dev/canopy/pkg/render"
	"github.com/vango-dev/canopy/pkg/ui"
	"github.com/vango-dev/canopy/pkg/vtest"
)

// mounted renders app, b and a keyed a above b into a 100x50 viewport.
func mounted(t *testing.T) *paint.Tree {
	t.Helper()
	sa, sb := ui.Size{Width: 20, Height: 10}, ui.Size{Width: 10, Height: 5}
	root := ui.New(vtest.Probe{Name: "app"},
		ui.Keyed("k", vtest.Probe{Name: "a", Size: &sa}),
		ui.New(vtest.Probe{Name: "b", Size: &sb}),
	)
	rt := render.New()
	pt := paint.New()
	pt.Apply(rt.Render(root))
	pt.LayoutRoot(ui.Size{Width: 100, Height: 50})
	pt.Paint(&paint.DisplayList{})
	return pt
}

func TestCapture(t *testing.T) {
	pt := mounted(t)
	snap := Capture(pt, 3, ui.Size{Width: 100, Height: 50})

	if snap.ID == "" {
		t.Error("ID is empty")
	}
	if snap.Seq != 3 || snap.Nodes != 4 {
		t.Errorf("Seq, Nodes = %d, %d, want 3, 4", snap.Seq, snap.Nodes)
	}

	app := snap.Root.Children[0]
	want := Node{
		Type:   "Probe",
		Flags:  "Clean",
		Bounds: Bounds{Width: 100, Height: 50},
		Children: []Node{
			{Type: "Probe", Key: "k", Flags: "Clean", Bounds: Bounds{Width: 20, Height: 10}},
			{Type: "Probe", Flags: "Clean", Bounds: Bounds{Y: 10, Width: 10, Height: 5}},
		},
	}
	if diff := cmp.Diff(want, app, cmpopts.IgnoreFields(Node{}, "ID")); diff != "" {
		t.Errorf("app node mismatch (-want +got):\n%s", diff)
	}

	b := app.Children[1]
	got, ok := snap.Find(b.ID)
	if !ok || got.Bounds != b.Bounds {
		t.Errorf("Find(%d) = %v, %v", b.ID, got, ok)
	}
	if _, ok := snap.Find(12345); ok {
		t.Error("Find of an unknown ID succeeded")
	}

	var depths []int
	snap.Walk(func(_ *Node, depth int) bool {
		depths = append(depths, depth)
		return true
	})
	if diff := cmp.Diff([]int{0, 1, 2, 2}, depths); diff != "" {
		t.Errorf("Walk depths mismatch (-want +got):\n%s", diff)
	}
}

func TestCaptureEmptyTree(t *testing.T) {
	snap := Capture(paint.New(), 0, ui.Size{})
	if snap.Root != nil || snap.Nodes != 0 {
		t.Errorf("Capture(empty) = root %v, nodes %d", snap.Root, snap.Nodes)
	}
	called := false
	snap.Walk(func(*Node, int) bool { called = true; return true })
	if called {
		t.Error("Walk visited a node of an empty snapshot")
	}
}

func TestEncodeDecode(t *testing.T) {
	snap := Capture(mounted(t), 1, ui.Size{Width: 100, Height: 50})
	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Errorf("decoded snapshot mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"{", `{"seq": 1}`, "[]"} {
		if _, err := Decode([]byte(bad)); errors.Code(err) != "E303" {
			t.Errorf("Decode(%q) code = %q, want E303", bad, errors.Code(err))
		}
	}
}

// storeContract runs the behavior every Store shares.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	pt := mounted(t)

	first := Capture(pt, 1, ui.Size{Width: 100, Height: 50})
	second := Capture(pt, 2, ui.Size{Width: 100, Height: 50})
	for _, s := range []*Snapshot{first, second} {
		id, err := store.Save(ctx, s)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if id != s.ID {
			t.Errorf("Save() id = %q, want %q", id, s.ID)
		}
	}

	got, err := store.Load(ctx, second.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Seq != 2 || got.Nodes != second.Nodes {
		t.Errorf("Load() = seq %d nodes %d, want 2 %d", got.Seq, got.Nodes, second.Nodes)
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{first.ID, second.ID}
	sort.Strings(want)
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	for _, id := range []string{"missing", "../escape", ""} {
		if _, err := store.Load(ctx, id); errors.Code(err) != "E301" {
			t.Errorf("Load(%q) code = %q, want E301", id, errors.Code(err))
		}
	}
}

func TestDiskStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error = %v", err)
	}
	if store.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", store.Dir(), dir)
	}
	storeContract(t, store)

	t.Run("ignores other files", func(t *testing.T) {
		os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
		os.Mkdir(filepath.Join(dir, "nested.json"), 0755)
		ids, err := store.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(ids) != 2 {
			t.Errorf("List() = %v, want 2 snapshot ids", ids)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644)
		if _, err := store.Load(context.Background(), "broken"); errors.Code(err) != "E303" {
			t.Errorf("Load(broken) code = %q, want E303", errors.Code(err))
		}
	})
}

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket := aws.ToString(in.Bucket) + "/"
	var keys []string
	for k := range f.objects {
		if rest, ok := strings.CutPrefix(k, bucket); ok && strings.HasPrefix(rest, aws.ToString(in.Prefix)) {
			keys = append(keys, rest)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "snaps/")
	storeContract(t, store)

	put := fake.puts[0]
	if got := aws.ToString(put.ContentType); got != "application/json" {
		t.Errorf("ContentType = %q, want application/json", got)
	}
	if got := put.Metadata["seq"]; got != "1" {
		t.Errorf("seq metadata = %q, want 1", got)
	}
	if key := aws.ToString(put.Key); !strings.HasPrefix(key, "snaps/") || !strings.HasSuffix(key, ".json") {
		t.Errorf("Key = %q, want snaps/<id>.json", key)
	}

	t.Run("other prefixes are not listed", func(t *testing.T) {
		other := NewS3Store(fake, "bucket", "elsewhere/")
		ids, err := other.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("List() = %v, want empty", ids)
		}
	})
}

func TestNewS3Client(t *testing.T) {
	client := NewS3Client("eu-west-1", "http://localhost:9000")
	if got := client.Options().Region; got != "eu-west-1" {
		t.Errorf("Region = %q, want eu-west-1", got)
	}
	if !client.Options().UsePathStyle {
		t.Error("UsePathStyle = false with a custom endpoint")
	}
}
