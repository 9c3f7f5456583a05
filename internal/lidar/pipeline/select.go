package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/sweepview/internal/fsutil"
)

// SourceExt is the extension of scan files.
const SourceExt = ".chan"

// Selection keywords. The double-underscore spellings are accepted for
// compatibility with existing scripts.
const (
	SelectFirst = "first"
	SelectAll   = "all"
)

var (
	// ErrUnknownSelection is returned when a selection names no keyword and
	// no discovered file.
	ErrUnknownSelection = errors.New("unknown selection")

	// ErrNoSources is returned when the input directory holds no scan files.
	ErrNoSources = errors.New("no .chan files found")
)

// Discover lists the scan files directly inside dir, sorted by name.
func Discover(fsys fsutil.FileSystem, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("input directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), SourceExt) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// NormalizeSelection maps the keyword spellings onto SelectFirst and
// SelectAll. An empty selection means all. File names pass through.
func NormalizeSelection(sel string) string {
	switch strings.TrimSpace(sel) {
	case "", SelectAll, "__ALL__":
		return SelectAll
	case SelectFirst, "__FIRST__":
		return SelectFirst
	}
	return sel
}

// Select applies a selection to the discovered files, preserving order.
func Select(files []string, sel string) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoSources
	}
	switch NormalizeSelection(sel) {
	case SelectAll:
		return append([]string(nil), files...), nil
	case SelectFirst:
		return files[:1], nil
	}
	for _, f := range files {
		if f == sel {
			return []string{f}, nil
		}
	}
	return nil, fmt.Errorf("%w %q; available files: %s", ErrUnknownSelection, sel, strings.Join(files, ", "))
}
