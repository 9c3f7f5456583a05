package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystem_WriteStatModTime(t *testing.T) {
	fsys := NewMemoryFileSystem()
	t0 := time.Date(2025, 5, 17, 12, 0, 0, 0, time.UTC)
	fsys.Now = func() time.Time { return t0 }

	require.NoError(t, fsys.WriteFile("scans/a.chan", []byte("1 2 3 4 5 6 7 8\n"), 0o644))
	fi, err := fsys.Stat("scans/a.chan")
	require.NoError(t, err)
	assert.Equal(t, int64(16), fi.Size())
	assert.True(t, fi.ModTime().Equal(t0))
	assert.True(t, fsys.Exists("scans"), "parent directory registered")

	t1 := t0.Add(time.Minute)
	require.NoError(t, fsys.SetModTime("scans/a.chan", t1))
	fi, err = fsys.Stat("scans/a.chan")
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(t1))

	assert.Error(t, fsys.SetModTime("missing", t1))
}

func TestMemoryFileSystem_CreateStampsOnClose(t *testing.T) {
	fsys := NewMemoryFileSystem()
	now := time.Unix(100, 0)
	fsys.Now = func() time.Time { return now }

	w, err := fsys.Create("out/x.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("png"))
	require.NoError(t, err)
	now = time.Unix(200, 0)
	require.NoError(t, w.Close())

	data, err := fsys.ReadFile("out/x.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	fi, err := fsys.Stat("out/x.png")
	require.NoError(t, err)
	assert.Equal(t, int64(200), fi.ModTime().Unix())
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	fsys := NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("in/b.chan", nil, 0o644))
	require.NoError(t, fsys.WriteFile("in/a.chan", nil, 0o644))
	require.NoError(t, fsys.WriteFile("in/sub/c.chan", nil, 0o644))
	require.NoError(t, fsys.WriteFile("other/d.chan", nil, 0o644))

	entries, err := fsys.ReadDir("in")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a.chan", "b.chan", "sub"}, names)
	assert.True(t, entries[2].IsDir())

	_, err = fsys.ReadDir("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryFileSystem_OpenAndIsolation(t *testing.T) {
	fsys := NewMemoryFileSystem()
	src := []byte("abc")
	require.NoError(t, fsys.WriteFile("f", src, 0o644))
	src[0] = 'z'

	f, err := fsys.Open("./f")
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = fsys.Open("missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryFileSystem_MkdirAllOverFile(t *testing.T) {
	fsys := NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("a", nil, 0o644))
	assert.Error(t, fsys.MkdirAll("a", 0o755))
	require.NoError(t, fsys.MkdirAll("x/y/z", 0o755))
	assert.True(t, fsys.Exists("x/y"))
}

func TestMemoryFileSystem_FilesWithSuffix(t *testing.T) {
	fsys := NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("o/b.png", nil, 0o644))
	require.NoError(t, fsys.WriteFile("o/a.png", nil, 0o644))
	require.NoError(t, fsys.WriteFile("o/a.mp4", nil, 0o644))
	assert.Equal(t, []string{"o/a.png", "o/b.png"}, fsys.FilesWithSuffix(".png"))
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, fsys.MkdirAll(sub, 0o755))
	name := filepath.Join(sub, "a.chan")
	require.NoError(t, fsys.WriteFile(name, []byte("x"), 0o644))
	assert.True(t, fsys.Exists(name))

	fi, err := fsys.Stat(name)
	require.NoError(t, err)
	assert.False(t, fi.ModTime().IsZero())

	entries, err := fsys.ReadDir(sub)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.chan", entries[0].Name())
}
