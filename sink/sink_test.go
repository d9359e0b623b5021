package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "simple", path: "geo_js_binding.c"},
		{name: "nested", path: "out/geo/geo_js_binding.cpp"},
		{name: "empty", path: "", wantErr: "empty"},
		{name: "absolute", path: "/tmp/geo.c", wantErr: "absolute paths not allowed"},
		{name: "drive letter", path: "C:geo.c", wantErr: "absolute paths not allowed"},
		{name: "traversal", path: "a/../geo.c", wantErr: "path traversal not allowed"},
		{name: "leading traversal", path: "../geo.c", wantErr: "path traversal not allowed"},
		{name: "dot prefix", path: "./geo.c", wantErr: "not clean"},
		{name: "double slash", path: "a//geo.c", wantErr: "not clean"},
		{name: "trailing slash", path: "a/", wantErr: "not clean"},
		{name: "dots in name", path: "geo..c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidatePath(%q) = %v, want nil", tt.path, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ValidatePath(%q) = %v, want error containing %q", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()

	content := []byte("int x;\n")
	if err := s.WriteFile(ctx, "b.c", content); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFile(ctx, "a.c", []byte("a")); err != nil {
		t.Fatal(err)
	}

	content[0] = 'X'
	if got := string(s.Get("b.c")); got != "int x;\n" {
		t.Errorf("Get(b.c) = %q, stored content must not alias the caller's slice", got)
	}
	if got := s.Get("missing.c"); got != nil {
		t.Errorf("Get(missing.c) = %q, want nil", got)
	}
	if got := fmt.Sprint(s.Paths()); got != "[a.c b.c]" {
		t.Errorf("Paths() = %s", got)
	}

	if err := s.WriteFile(ctx, "../x.c", nil); err == nil {
		t.Error("expected invalid path error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.WriteFile(cancelled, "c.c", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("WriteFile on cancelled context = %v", err)
	}
}

func TestMemorySink_Concurrent(t *testing.T) {
	s := NewMemorySink()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := fmt.Sprintf("f%d.c", i)
			if err := s.WriteFile(context.Background(), path, []byte(path)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := len(s.Paths()); n != 32 {
		t.Errorf("stored %d files, want 32", n)
	}
}

func TestFilesystemSink(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewFilesystemSink(root)

	if err := s.WriteFile(ctx, "gen/geo_js_binding.c", []byte("one")); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(root, "gen", "geo_js_binding.c")
	got, err := os.ReadFile(full)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one" {
		t.Errorf("content = %q", got)
	}
	info, err := os.Stat(full)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}

	if err := s.WriteFile(ctx, "gen/geo_js_binding.c", []byte("two")); err != nil {
		t.Fatal(err)
	}
	got, _ = os.ReadFile(full)
	if string(got) != "two" {
		t.Errorf("overwrite content = %q", got)
	}

	entries, err := os.ReadDir(filepath.Join(root, "gen"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".bindgen-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFilesystemSink_CheckUnchanged(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewFilesystemSink(root)
	s.CheckUnchanged = true

	if err := s.WriteFile(ctx, "geo.c", []byte("same")); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(root, "geo.c")
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(full, old, old); err != nil {
		t.Fatal(err)
	}

	if err := s.WriteFile(ctx, "geo.c", []byte("same")); !errors.Is(err, ErrUnchanged) {
		t.Fatalf("identical write = %v, want ErrUnchanged", err)
	}
	info, _ := os.Stat(full)
	if !info.ModTime().Equal(old) {
		t.Error("unchanged write touched the file")
	}

	if err := s.WriteFile(ctx, "geo.c", []byte("different")); err != nil {
		t.Fatalf("changed write = %v", err)
	}
}

func TestFilesystemSink_PathSecurity(t *testing.T) {
	s := NewFilesystemSink(t.TempDir())
	for _, p := range []string{"../escape.c", "/etc/passwd", "a/../../b.c", "."} {
		if err := s.WriteFile(context.Background(), p, []byte("x")); err == nil {
			t.Errorf("WriteFile(%q) succeeded, want error", p)
		}
	}
}

func TestFilesystemSink_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	s := NewFilesystemSink(root)
	if err := s.WriteFile(ctx, "geo.c", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("WriteFile = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(root, "geo.c")); !os.IsNotExist(err) {
		t.Errorf("file written despite cancellation: %v", err)
	}
}
