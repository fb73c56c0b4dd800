package adapters

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/domain"
)

// silenceSynthesizer produces silent audio sized to the narration's reading
// time. Preview runs use it to lay out the whole video without spending
// synthesis credits.
type silenceSynthesizer struct {
	wordsPerSecond float64
	runner         CommandRunner
	logger         outbound.LoggerPort
}

const minPreviewSeconds = 1.0

func NewSilenceSynthesizer(wordsPerSecond float64, runner CommandRunner, logger outbound.LoggerPort) outbound.SpeechSynthesizerPort {
	return &silenceSynthesizer{
		wordsPerSecond: wordsPerSecond,
		runner:         runner,
		logger:         logger,
	}
}

func (s *silenceSynthesizer) Synthesize(ctx context.Context, req outbound.SynthesizeSpeechRequest) (io.ReadCloser, error) {
	words := len(strings.Fields(req.Text))
	duration := float64(words) / s.wordsPerSecond
	if duration < minPreviewSeconds {
		duration = minPreviewSeconds
	}

	s.logger.DebugWithFields("Generating preview silence", map[string]interface{}{
		"slide":    req.Slide,
		"words":    words,
		"duration": duration,
	})

	tmpPath := filepath.Join(os.TempDir(), "preview_"+uuid.NewString()+".mp3")
	_, err := s.runner.Run(ctx, "ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=mono",
		"-t", formatSeconds(duration),
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		tmpPath,
	)
	if err != nil {
		return nil, &domain.SynthesisError{Slide: req.Slide, Transient: false, Err: err}
	}

	file, err := os.Open(tmpPath)
	if err != nil {
		return nil, &domain.SynthesisError{Slide: req.Slide, Transient: false, Err: err}
	}
	return &removeOnCloseFile{File: file}, nil
}

type removeOnCloseFile struct {
	*os.File
}

func (f *removeOnCloseFile) Close() error {
	defer os.Remove(f.Name())
	return f.File.Close()
}
