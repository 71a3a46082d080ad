package storage_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/opst/datapod/pkg/cmp"
	"github.com/opst/datapod/pkg/storage"
	"github.com/opst/datapod/pkg/utils/try"
)

func TestResolver(t *testing.T) {
	t.Run("it resolves registered protocols", func(t *testing.T) {
		testee := storage.DefaultResolver(storage.WithMemoryStore(storage.NewMemoryStore()))

		if want := []string{"file", "memory", "s3"}; !cmp.SliceEq(testee.Protocols(), want) {
			t.Errorf("protocols: want %v, got %v", want, testee.Protocols())
		}
		for _, p := range []string{"file", "MEMORY"} {
			if _, err := testee.Filesystem(p, nil); err != nil {
				t.Errorf("%s: unexpected error: %v", p, err)
			}
		}
	})

	t.Run("it fails for unknown protocol", func(t *testing.T) {
		testee := storage.DefaultResolver()
		if _, err := testee.Filesystem("gs", nil); !errors.Is(err, storage.ErrUnknownProtocol) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it rejects duplicated registration", func(t *testing.T) {
		testee := storage.NewResolver()
		testee.Register("x", func(storage.Options) (storage.Filesystem, error) { return storage.Local(), nil })

		defer func() {
			if recover() == nil {
				t.Error("it does not panic")
			}
		}()
		testee.Register("X", func(storage.Options) (storage.Filesystem, error) { return storage.Local(), nil })
	})

	t.Run("it passes invalid s3 options as an error", func(t *testing.T) {
		testee := storage.DefaultResolver()
		_, err := testee.Filesystem("s3", storage.Options{storage.S3Secure: "maybe"})
		if !errors.Is(err, storage.ErrInvalidOption) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestOptions(t *testing.T) {
	base := storage.Options{"endpoint": "a", "region": "r"}
	merged := base.Merge(storage.Options{"endpoint": "b"})

	if !cmp.MapEq(map[string]string(merged), map[string]string{"endpoint": "b", "region": "r"}) {
		t.Errorf("unexpected merged: %v", merged)
	}
	if base["endpoint"] != "a" {
		t.Errorf("base is modified: %v", base)
	}
	if got := merged.Get("secure", "true"); got != "true" {
		t.Errorf("default is not used: %s", got)
	}
}

// filesystemContract checks behaviours every Filesystem should have.
func filesystemContract(t *testing.T, testee storage.Filesystem, pathOf func(string) string) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing path", func(t *testing.T) {
		exists, err := testee.Exists(ctx, pathOf("missing"))
		if err != nil || exists {
			t.Errorf("exists: want (false, nil), got (%v, %v)", exists, err)
		}
		if _, err := testee.Open(ctx, pathOf("missing")); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("open: unexpected error: %v", err)
		}
	})

	t.Run("create then open", func(t *testing.T) {
		path := pathOf("nested/dir/item.txt")
		w := try.To(testee.Create(ctx, path)).OrFatal(t)
		if _, err := io.WriteString(w, "survived\n"); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}

		if exists, err := testee.Exists(ctx, path); err != nil || !exists {
			t.Errorf("exists: want (true, nil), got (%v, %v)", exists, err)
		}

		r := try.To(testee.Open(ctx, path)).OrFatal(t)
		defer r.Close()
		if got := string(try.To(io.ReadAll(r)).OrFatal(t)); got != "survived\n" {
			t.Errorf("unexpected content: %q", got)
		}
	})

	t.Run("create truncates", func(t *testing.T) {
		path := pathOf("truncated.txt")
		for _, content := range []string{"long long content", "short"} {
			w := try.To(testee.Create(ctx, path)).OrFatal(t)
			io.WriteString(w, content)
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}
		}
		r := try.To(testee.Open(ctx, path)).OrFatal(t)
		defer r.Close()
		if got := string(try.To(io.ReadAll(r)).OrFatal(t)); got != "short" {
			t.Errorf("unexpected content: %q", got)
		}
	})

	t.Run("put", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "staged")
		if err := os.WriteFile(src, []byte("blob"), 0600); err != nil {
			t.Fatal(err)
		}
		path := pathOf("put/blob.bin")
		if err := testee.Put(ctx, src, path); err != nil {
			t.Fatal(err)
		}
		r := try.To(testee.Open(ctx, path)).OrFatal(t)
		defer r.Close()
		if got := string(try.To(io.ReadAll(r)).OrFatal(t)); got != "blob" {
			t.Errorf("unexpected content: %q", got)
		}
	})
}

func TestLocal(t *testing.T) {
	root := t.TempDir()
	filesystemContract(t, storage.Local(), func(p string) string {
		return filepath.Join(root, p)
	})
}

func TestMemory(t *testing.T) {
	store := storage.NewMemoryStore()
	filesystemContract(t, store.Filesystem(), func(p string) string { return "t/" + p })

	t.Run("store is shared by filesystems", func(t *testing.T) {
		store.Set("shared", []byte("x"))
		exists, err := store.Filesystem().Exists(context.Background(), "shared")
		if err != nil || !exists {
			t.Errorf("exists: (%v, %v)", exists, err)
		}
		store.Delete("shared")
		if _, ok := store.Get("shared"); ok {
			t.Error("not deleted")
		}
	})

	t.Run("unclosed writer is not committed", func(t *testing.T) {
		w := try.To(store.Filesystem().Create(context.Background(), "pending")).OrFatal(t)
		io.WriteString(w, "x")
		if _, ok := store.Get("pending"); ok {
			t.Error("committed before close")
		}
	})
}
