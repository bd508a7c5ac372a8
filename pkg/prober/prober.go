package prober

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
)

const DefaultPath = "ffprobe"

var ErrNotFound = errors.New("probe binary not found")

// Info is what the probe learned about a media file
type Info struct {
	Container string
	Codec     string
	Width     int64
	Height    int64
	Audio     string
	Bitrate   *int64
	// Duration is in whole seconds
	Duration *int64
	Corrupt  bool
}

// Quality is the vertical resolution label, like "1080p"
func (i Info) Quality() *string {
	if i.Height <= 0 {
		return nil
	}
	q := strconv.FormatInt(i.Height, 10) + "p"
	return &q
}

// Resolution is the frame size, like "1920x1080"
func (i Info) Resolution() *string {
	if i.Width <= 0 || i.Height <= 0 {
		return nil
	}
	r := fmt.Sprintf("%dx%d", i.Width, i.Height)
	return &r
}

type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// FFProbe shells out to ffprobe. Probing is blocking and CPU heavy, callers bound
// how many run at once.
type FFProbe struct {
	path string
}

// Lookup resolves the probe binary from a path or a name on PATH
func Lookup(path string) (*FFProbe, error) {
	if path == "" {
		path = DefaultPath
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}
	return &FFProbe{path: resolved}, nil
}

func (f *FFProbe) Path() string {
	return f.path
}

// Probe inspects path. A file the probe cannot read is reported as corrupt rather than as an error.
// Errors are only returned when the context ends.
func (f *FFProbe) Probe(ctx context.Context, path string) (Info, error) {
	cmd := exec.CommandContext(ctx, f.path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path)

	out, err := cmd.Output()
	if ctx.Err() != nil {
		return Info{}, ctx.Err()
	}
	if err != nil {
		logger.FromCtx(ctx).Debugw("probe failed", "path", path, "error", err)
		return Info{Corrupt: true}, nil
	}

	return Parse(out), nil
}

type output struct {
	Streams []stream `json:"streams"`
	Format  format   `json:"format"`
}

type stream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int64  `json:"width"`
	Height    int64  `json:"height"`
}

type format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// Parse reads ffprobe's json output. Unreadable output or output without streams is corrupt.
func Parse(raw []byte) Info {
	var data output
	if err := json.Unmarshal(raw, &data); err != nil || len(data.Streams) == 0 {
		return Info{Corrupt: true}
	}

	info := Info{}
	if data.Format.FormatName != "" {
		info.Container = strings.Split(data.Format.FormatName, ",")[0]
	}

	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if info.Codec == "" {
				info.Codec = s.CodecName
				info.Width = s.Width
				info.Height = s.Height
			}
		case "audio":
			if info.Audio == "" {
				info.Audio = s.CodecName
			}
		}
	}

	if d, err := strconv.ParseFloat(data.Format.Duration, 64); err == nil {
		seconds := int64(d)
		info.Duration = &seconds
	}
	if b, err := strconv.ParseInt(data.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = &b
	}

	return info
}
