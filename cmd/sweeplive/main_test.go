package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sweepview/internal/lidar/live"
	"github.com/banshee-data/sweepview/internal/lidar/pipeline"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-replay", "scan.chan", "-fps", "5"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "scan.chan", o.replayPath)
	assert.Equal(t, 5, o.fps)
	assert.Equal(t, ":8080", o.listen)

	for _, args := range [][]string{
		{"-replay", "a.chan", "-serial", "/dev/ttyUSB0"},
		{"-fps", "0"},
		{"-listen", ""},
		{"extra"},
	} {
		_, err := parseFlags(args, io.Discard)
		assert.Error(t, err, "args %v", args)
	}
}

func TestRenderOptions(t *testing.T) {
	opts, err := renderOptions(&options{inputDir: "in", outputDir: "gui"})
	require.NoError(t, err)
	assert.Equal(t, pipeline.GUITranslations(), opts.Render.Translations)
	assert.Equal(t, pipeline.ModePNG, opts.Mode)
	assert.Equal(t, "in", opts.InputDir)

	cfgPath := filepath.Join(t.TempDir(), "render.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"translations": [[1,1],[2,2],[3,3],[4,4]]}`), 0o644))
	opts, err = renderOptions(&options{configPath: cfgPath})
	require.NoError(t, err)
	assert.Equal(t, 4.0, opts.Render.Translations[3].Y)

	_, err = renderOptions(&options{configPath: "render.toml"})
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-listen", "127.0.0.1:0"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"-version"}, nil, &stdout, io.Discard))
	assert.Contains(t, stdout.String(), "sweeplive ")
}

// wraps 10 -> 350 (jump 340) and 350 -> 5 (jump 345).
const wrapTwice = `1 10 1 10 1 10 1 10
1 350 1 350 1 350 1 350
1 5 1 5 1 5 1 5
`

func TestReplaySource_UsesConfig(t *testing.T) {
	dir := t.TempDir()
	scan := filepath.Join(dir, "scan.chan")
	require.NoError(t, os.WriteFile(scan, []byte(wrapTwice), 0o644))
	cfgPath := filepath.Join(dir, "render.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"split_threshold_deg": 342, "flip_sensors": []}`), 0o644))

	opts, err := renderOptions(&options{configPath: cfgPath})
	require.NoError(t, err)
	src, text, err := replaySource(scan, opts, nil)
	require.NoError(t, err)
	assert.Nil(t, text)
	rs, ok := src.(*live.ReplaySource)
	require.True(t, ok)

	f, err := src.Channels(context.Background())
	require.NoError(t, err)
	// 340 stays under the configured threshold, 345 splits.
	assert.Equal(t, 2, rs.Cache.Len())
	assert.Equal(t, []float64{10, 350}, f.Angle[0])
	// No sensor correction with an empty flip list.
	assert.Equal(t, []float64{10, 350}, f.Angle[1])
}

func TestReplaySource_Stdin(t *testing.T) {
	opts, err := renderOptions(&options{})
	require.NoError(t, err)
	src, text, err := replaySource("-", opts, strings.NewReader(wrapTwice))
	require.NoError(t, err)
	require.NotNil(t, text)

	f, err := src.Channels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, text.Cache.Len())
	assert.Equal(t, []float64{10}, f.Angle[0])
	assert.Equal(t, []float64{190}, f.Angle[1])
}
