package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPaths(t *testing.T) {
	dir := t.TempDir()

	p := filepath.Join(dir, "paths.txt")
	content := "# infra\nApplication Infrastructure Performance|*|CPU\n\n  Server|Memory|Used %  \n# trailing\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	got, err := LoadPaths(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Application Infrastructure Performance|*|CPU", "Server|Memory|Used %"}, got)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n# nothing\n"), 0o644))
	_, err = LoadPaths(empty)
	assert.ErrorContains(t, err, "no metric paths")

	_, err = LoadPaths(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
