package bindtest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/tools/txtar"
)

// Case is one golden test read from a txtar archive. The archive comment
// holds the generator config as YAML; "snapshot.yaml" or "snapshot.json"
// holds the input. Files under "want/" are excerpts that must appear in
// the output, and a "want.c" file, if present, is the full expected output.
type Case struct {
	Name     string
	Config   []byte
	Snapshot []byte

	// SnapshotName is the archive file the snapshot came from.
	SnapshotName string

	Excerpts map[string]string
	Want     []byte
}

// LoadCase reads one golden archive.
func LoadCase(path string) (*Case, error) {
	ar, err := txtar.ParseFile(path)
	if err != nil {
		return nil, err
	}
	c := &Case{
		Name:     strings.TrimSuffix(filepath.Base(path), ".txtar"),
		Config:   ar.Comment,
		Excerpts: make(map[string]string),
	}
	for _, f := range ar.Files {
		switch {
		case f.Name == "snapshot.yaml" || f.Name == "snapshot.json":
			c.Snapshot, c.SnapshotName = f.Data, f.Name
		case f.Name == "want.c":
			c.Want = f.Data
		case strings.HasPrefix(f.Name, "want/"):
			c.Excerpts[strings.TrimPrefix(f.Name, "want/")] = string(f.Data)
		default:
			return nil, fmt.Errorf("%s: unexpected file %s", path, f.Name)
		}
	}
	if c.Snapshot == nil {
		return nil, fmt.Errorf("%s: no snapshot", path)
	}
	return c, nil
}

// LoadCases reads every archive matching pattern, failing t if none match.
func LoadCases(t testing.TB, pattern string) []*Case {
	t.Helper()
	paths, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("glob %s: %v", pattern, err)
	}
	if len(paths) == 0 {
		t.Fatalf("no golden files match %s", pattern)
	}
	cases := make([]*Case, 0, len(paths))
	for _, p := range paths {
		c, err := LoadCase(p)
		if err != nil {
			t.Fatal(err)
		}
		cases = append(cases, c)
	}
	return cases
}

// WriteSnapshot stores the case's snapshot in dir and returns its path.
func (c *Case) WriteSnapshot(dir string) (string, error) {
	p := filepath.Join(dir, c.SnapshotName)
	return p, os.WriteFile(p, c.Snapshot, 0o644)
}

// Check compares output against every excerpt and, if present, the full
// expected output.
func (c *Case) Check(t testing.TB, got []byte) {
	t.Helper()
	names := make([]string, 0, len(c.Excerpts))
	for name := range c.Excerpts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		AssertContains(t, name, string(got), c.Excerpts[name])
	}
	if c.Want != nil {
		AssertGolden(t, got, c.Want)
	}
}

// AssertGolden fails t with a line diff when got differs from want.
func AssertGolden(t testing.TB, got, want []byte) bool {
	t.Helper()
	if string(got) == string(want) {
		return true
	}
	t.Errorf("output differs from golden (-want +got):\n%s", Diff(string(want), string(got)))
	return false
}

// AssertContains fails t unless want appears in got. Runs of whitespace
// compare equal, so excerpts may be indented differently.
func AssertContains(t testing.TB, name, got, want string) bool {
	t.Helper()
	if strings.Contains(squash(got), squash(want)) {
		return true
	}
	t.Errorf("excerpt %s not found in output\nwant:\n%s\ngot:\n%s", name, want, got)
	return false
}

// Diff returns a line-oriented diff of a and b, prefixing removed lines with
// "-" and added lines with "+".
func Diff(a, b string) string {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix + line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
