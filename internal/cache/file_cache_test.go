package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Stack string   `json:"stack"`
	Files []string `json:"files"`
}

func TestFileCacheRoundTrip(t *testing.T) {
	fc := NewFileCache[record](filepath.Join(t.TempDir(), "runs"))
	key := fc.GenerateKey("/data/img.tif", 1024, "ikonos")

	_, ok := fc.Get(key)
	assert.False(t, ok)

	want := record{Stack: "img_rst_stack.tif", Files: []string{"a.tif", "b.tif"}}
	require.NoError(t, fc.Set(key, want))

	got, ok := fc.Get(key)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.NoFileExists(t, filepath.Join(fc.Dir(), key+".json.tmp"))

	require.NoError(t, fc.Delete(key))
	_, ok = fc.Get(key)
	assert.False(t, ok)
	require.NoError(t, fc.Delete(key))
}

func TestFileCacheKeyIsStable(t *testing.T) {
	fc := NewFileCache[record](t.TempDir())
	assert.Equal(t, fc.GenerateKey("a", 1), fc.GenerateKey("a", 1))
	assert.NotEqual(t, fc.GenerateKey("a", 1), fc.GenerateKey("a", 2))
}

func TestFileCacheRejectsTamperedEntry(t *testing.T) {
	fc := NewFileCache[record](t.TempDir())
	require.NoError(t, fc.Set("k", record{Stack: "x.tif"}))

	path := filepath.Join(fc.Dir(), "k.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":{"stack":"y.tif"},"checksum":"bad"}`), 0o644))
	_, ok := fc.Get("k")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	_, ok = fc.Get("k")
	assert.False(t, ok)
}
