package video

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// pngSequence writes numbered PNG files into a directory.
type pngSequence struct {
	dir    string
	n      int
	closed bool
}

// FrameDir returns the directory a PNG sequence for path is written to:
// the path without extension plus "_frames".
func FrameDir(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_frames"
}

// NewPNGSequenceEncoder writes frame_00000.png, frame_00001.png, ... into
// FrameDir(path). It needs no external tools.
func NewPNGSequenceEncoder(_ context.Context, path string, w, h, fps int) (Encoder, error) {
	if w <= 0 || h <= 0 || fps <= 0 {
		return nil, fmt.Errorf("invalid stream %dx%d@%d", w, h, fps)
	}
	dir := FrameDir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	return &pngSequence{dir: dir}, nil
}

func (p *pngSequence) WriteFrame(img image.Image) error {
	if p.closed {
		return ErrClosed
	}
	name := filepath.Join(p.dir, fmt.Sprintf("frame_%05d.png", p.n))
	if err := imaging.Save(img, name); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	p.n++
	return nil
}

func (p *pngSequence) Close() error {
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	return nil
}

// Frames returns how many frames were written.
func (p *pngSequence) Frames() int { return p.n }
