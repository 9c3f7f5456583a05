package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sweepview/internal/lidar/pipeline"
)

const scan = `1 10 1 10 1 10 1 10
1 20 1 20 1 20 1 20
1 350 1 350 1 350 1 350
`

func writeScans(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_PNG(t *testing.T) {
	in := writeScans(t, map[string]string{"a.chan": scan, "b.chan": "# empty\n"})
	out := filepath.Join(t.TempDir(), "pngs")

	code, stdout, stderr := runCLI(t, "-png", "-input-dir", in, "-output-dir", out, "-trace")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "[ok]      a.chan")
	assert.Contains(t, stdout, "[no data] b.chan")
	assert.Contains(t, stdout, "1/2 files generated")

	name := pipeline.OverlayName("a.chan", pipeline.DefaultTranslations())
	assert.FileExists(t, filepath.Join(out, name))
	assert.FileExists(t, filepath.Join(out, "a_trace.png"))
}

func TestRun_VideoPNGEncoderWithCatalog(t *testing.T) {
	in := writeScans(t, map[string]string{"a.chan": scan})
	out := t.TempDir()
	catalog := filepath.Join(t.TempDir(), "runs.db")

	code, stdout, stderr := runCLI(t, "-video", "-encoder", "png", "-fps", "4",
		"-input-dir", in, "-output-dir", out, "-file", "first", "-db", catalog,
		"-translations", "0,0;0,0;0,0;0,0")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "1/1 files generated")

	videoPath := filepath.Join(out, "a_params_0p00_0p00_0p00_0p00_0p00_0p00_0p00_0p00_fps4.mp4")
	entries, err := os.ReadDir(strings.TrimSuffix(videoPath, ".mp4") + "_frames")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.FileExists(t, catalog)
}

func TestRun_Errors(t *testing.T) {
	empty := t.TempDir()
	in := writeScans(t, map[string]string{"a.chan": scan, "b.chan": scan})

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no mode", []string{"-input-dir", in}, "exactly one of -png or -video"},
		{"both modes", []string{"-png", "-video", "-input-dir", in}, "exactly one of -png or -video"},
		{"no files", []string{"-png", "-input-dir", empty}, "No .chan files found"},
		{"missing dir", []string{"-png", "-input-dir", filepath.Join(empty, "nope")}, "input directory"},
		{"unknown file", []string{"-png", "-input-dir", in, "-file", "c.chan"}, "available files: a.chan, b.chan"},
		{"bad translations", []string{"-png", "-input-dir", in, "-translations", "1,2"}, "want 4 pairs"},
		{"bad encoder", []string{"-video", "-input-dir", in, "-encoder", "gif"}, "unknown encoder"},
		{"bad config", []string{"-png", "-input-dir", in, "-config", "render.yaml"}, ".json extension"},
		{"bad flag", []string{"-nope"}, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "-version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "sweepview "))
}

func TestBuildOptions_ConfigAndFlags(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "render.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"fps": 24, "cluster_radius": 9, "translations": [[1,1],[2,2],[3,3],[4,4]]}`), 0o644))

	opts, err := buildOptions(&options{configPath: cfgPath, video: true, encoder: "ffmpeg"})
	require.NoError(t, err)
	assert.Equal(t, 24, opts.FPS)
	assert.Equal(t, 9, opts.Annotate.ClusterRadius)
	assert.Equal(t, 4.0, opts.Render.Translations[3].X)
	assert.Equal(t, pipeline.ModeVideo, opts.Mode)

	opts, err = buildOptions(&options{configPath: cfgPath, fps: 5, translations: "0,0;0,0;0,0;0,1", png: true})
	require.NoError(t, err)
	assert.Equal(t, 5, opts.FPS)
	assert.Equal(t, 1.0, opts.Render.Translations[3].Y)
	assert.Equal(t, pipeline.ModePNG, opts.Mode)
}

func TestBuildOptions_ZeroMarginsAndRadiusSurvive(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "render.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"margin_x_pct": 0, "margin_y_pct": 0, "cluster_radius": 0}`), 0o644))

	opts, err := buildOptions(&options{configPath: cfgPath, png: true})
	require.NoError(t, err)
	got := pipeline.NewAssembler(opts).Options().Annotate
	assert.Equal(t, 0.0, got.MarginXPct)
	assert.Equal(t, 0.0, got.MarginYPct)
	assert.Equal(t, 0, got.ClusterRadius)
}
