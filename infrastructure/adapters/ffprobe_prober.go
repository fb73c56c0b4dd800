package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
)

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		Duration string `json:"duration"`
	} `json:"streams"`
}

type ffprobeProber struct {
	runner CommandRunner
	logger outbound.LoggerPort
}

func NewFFprobeProber(runner CommandRunner, logger outbound.LoggerPort) outbound.MediaProberPort {
	return &ffprobeProber{runner: runner, logger: logger}
}

// Duration asks ffprobe for JSON metadata and prefers the container duration
// over per-stream values, which can be missing for some codecs.
func (p *ffprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.runner.Run(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
	}

	var probe probeOutput
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return 0, fmt.Errorf("probe %s: unexpected ffprobe output: %w", filepath.Base(path), err)
	}

	if probe.Format.Duration != "" {
		return parseSeconds(path, probe.Format.Duration)
	}
	for _, stream := range probe.Streams {
		if stream.Duration != "" {
			return parseSeconds(path, stream.Duration)
		}
	}
	return 0, fmt.Errorf("probe %s: no duration reported", filepath.Base(path))
}

func parseSeconds(path, raw string) (float64, error) {
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("probe %s: bad duration %q: %w", filepath.Base(path), raw, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("probe %s: non-positive duration %v", filepath.Base(path), seconds)
	}
	return seconds, nil
}
