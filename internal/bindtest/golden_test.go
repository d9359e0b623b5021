package bindtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	assert.Equal(t, " a\n-b\n+x\n c\n", Diff("a\nb\nc\n", "a\nx\nc\n"))
	assert.Equal(t, " a\n+b\n", Diff("a\n", "a\nb"))
}

func TestLoadCase(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	c, err := LoadCase(write("ok.txtar", "module: m\n-- snapshot.yaml --\nlanguage: c\n-- want/a.c --\nint a;\n-- want.c --\nint a;\n"))
	require.NoError(t, err)
	assert.Equal(t, "ok", c.Name)
	assert.Equal(t, "module: m\n", string(c.Config))
	assert.Equal(t, "snapshot.yaml", c.SnapshotName)
	assert.Equal(t, map[string]string{"a.c": "int a;\n"}, c.Excerpts)
	assert.Equal(t, "int a;\n", string(c.Want))

	p, err := c.WriteSnapshot(dir)
	require.NoError(t, err)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "language: c\n", string(data))

	_, err = LoadCase(write("empty.txtar", "-- want/a.c --\nx\n"))
	assert.ErrorContains(t, err, "no snapshot")

	_, err = LoadCase(write("stray.txtar", "-- snapshot.yaml --\nx\n-- notes.txt --\ny\n"))
	assert.ErrorContains(t, err, "unexpected file notes.txt")
}

func TestCheck(t *testing.T) {
	c := &Case{Excerpts: map[string]string{"call": "int result =\n    add (a, b);"}}
	c.Check(t, []byte("{\n  int result = add (a, b);\n}\n"))
}
