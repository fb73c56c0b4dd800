package adapters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/config"
	"github.com/setegnworku/africa-rising-video/domain"
)

type ffmpegSegmentEncoder struct {
	cfg    *config.EncoderConfig
	runner CommandRunner
	logger outbound.LoggerPort
}

func NewFFmpegSegmentEncoder(cfg *config.EncoderConfig, runner CommandRunner, logger outbound.LoggerPort) outbound.SegmentEncoderPort {
	return &ffmpegSegmentEncoder{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

// Encode pads the narration with trailing silence, then renders the slide
// image over it. The segment duration is audio duration plus padding, by
// construction rather than by probing.
func (e *ffmpegSegmentEncoder) Encode(ctx context.Context, req outbound.EncodeSegmentRequest) (domain.VideoSegment, error) {
	audioPath := req.AudioPath
	if e.cfg.SilencePadding > 0 {
		paddedPath := filepath.Join(req.OutputDir, fmt.Sprintf("slide%d_padded.mp3", req.Slide))
		if err := e.runWithRetry(ctx, req.Slide, e.padArgs(req.AudioPath, paddedPath)); err != nil {
			return domain.VideoSegment{}, &domain.EncodeError{Slide: req.Slide, Err: err}
		}
		audioPath = paddedPath
	}

	outputDuration := req.AudioDuration + e.cfg.SilencePadding
	segmentPath := filepath.Join(req.OutputDir, fmt.Sprintf("slide%d.mp4", req.Slide))

	if err := e.runWithRetry(ctx, req.Slide, e.renderArgs(req.ImagePath, audioPath, outputDuration, segmentPath)); err != nil {
		return domain.VideoSegment{}, &domain.EncodeError{Slide: req.Slide, Err: err}
	}

	// The padded intermediate is not needed once the segment exists. The
	// cached narration itself is never touched.
	if audioPath != req.AudioPath {
		if err := os.Remove(audioPath); err != nil {
			e.logger.WarnWithFields("Failed to remove padded audio", map[string]interface{}{
				"slide": req.Slide,
				"file":  audioPath,
			})
		}
	}

	e.logger.DebugWithFields("Segment encoded", map[string]interface{}{
		"slide":    req.Slide,
		"file":     segmentPath,
		"duration": outputDuration,
	})

	return domain.VideoSegment{
		Index:          req.Slide,
		ImagePath:      req.ImagePath,
		FilePath:       segmentPath,
		OutputDuration: outputDuration,
	}, nil
}

func (e *ffmpegSegmentEncoder) padArgs(audioPath, paddedPath string) []string {
	return []string{
		"-y",
		"-i", audioPath,
		"-af", fmt.Sprintf("apad=pad_dur=%s", formatSeconds(e.cfg.SilencePadding)),
		"-c:a", "libmp3lame",
		"-b:a", e.cfg.AudioBitrate,
		paddedPath,
	}
}

func (e *ffmpegSegmentEncoder) renderArgs(imagePath, audioPath string, duration float64, segmentPath string) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,format=yuv420p",
		e.cfg.Width, e.cfg.Height, e.cfg.Width, e.cfg.Height,
	)

	return []string{
		"-y",
		"-loop", "1",
		"-framerate", strconv.Itoa(e.cfg.FPS),
		"-i", imagePath,
		"-i", audioPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", e.cfg.Preset,
		"-crf", strconv.Itoa(e.cfg.CRF),
		"-r", strconv.Itoa(e.cfg.FPS),
		"-c:a", "aac",
		"-b:a", e.cfg.AudioBitrate,
		"-t", formatSeconds(duration),
		"-shortest",
		"-movflags", "+faststart",
		segmentPath,
	}
}

// runWithRetry retries only deadline hits. A non-zero ffmpeg exit means the
// inputs are bad and will not improve on a second attempt.
func (e *ffmpegSegmentEncoder) runWithRetry(ctx context.Context, slide int, args []string) error {
	backoff := e.cfg.RetryBackoff
	var lastErr error

	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			e.logger.WarnWithFields("Retrying segment encode", map[string]interface{}{
				"slide":   slide,
				"attempt": attempt,
			})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		_, err := e.runner.Run(attemptCtx, "ffmpeg", args...)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return err
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	return lastErr
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
