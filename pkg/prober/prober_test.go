package prober

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeOutput = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio"},
    {"index": 2, "codec_name": "ac3", "codec_type": "audio"}
  ],
  "format": {"format_name": "matroska,webm", "duration": "9840.512000", "bit_rate": "4500000"}
}`

func TestParse(t *testing.T) {
	info := Parse([]byte(probeOutput))

	assert.False(t, info.Corrupt)
	assert.Equal(t, "matroska", info.Container)
	assert.Equal(t, "h264", info.Codec)
	assert.Equal(t, "aac", info.Audio)
	require.NotNil(t, info.Duration)
	assert.Equal(t, int64(9840), *info.Duration)
	require.NotNil(t, info.Bitrate)
	assert.Equal(t, int64(4500000), *info.Bitrate)
	assert.Equal(t, "1080p", *info.Quality())
	assert.Equal(t, "1920x1080", *info.Resolution())
}

func TestParse_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "garbage"},
		{name: "no streams", raw: `{"streams": [], "format": {"format_name": "mp4"}}`},
		{name: "empty", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Parse([]byte(tt.raw))
			assert.True(t, info.Corrupt)
			assert.Nil(t, info.Quality())
			assert.Nil(t, info.Resolution())
		})
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakeprobe")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestFFProbe_Probe(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(out, []byte(probeOutput), 0o644))

	p, err := Lookup(writeScript(t, "cat "+out+"\n"))
	require.NoError(t, err)

	info, err := p.Probe(context.Background(), "/media/movie.mkv")
	require.NoError(t, err)
	assert.False(t, info.Corrupt)
	assert.Equal(t, "h264", info.Codec)
}

func TestFFProbe_FailureIsCorrupt(t *testing.T) {
	p, err := Lookup(writeScript(t, "exit 1\n"))
	require.NoError(t, err)

	info, err := p.Probe(context.Background(), "/media/broken.mkv")
	require.NoError(t, err)
	assert.True(t, info.Corrupt)
}

func TestLookup_Missing(t *testing.T) {
	_, err := Lookup(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.ErrorIs(t, err, ErrNotFound)
}
