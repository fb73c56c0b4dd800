package adapters

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/config"
	"github.com/setegnworku/africa-rising-video/domain"
)

type ffmpegVideoAssembler struct {
	cfg    *config.EncoderConfig
	runner CommandRunner
	prober outbound.MediaProberPort
	logger outbound.LoggerPort
}

func NewFFmpegVideoAssembler(cfg *config.EncoderConfig, runner CommandRunner, prober outbound.MediaProberPort, logger outbound.LoggerPort) outbound.VideoAssemblerPort {
	return &ffmpegVideoAssembler{
		cfg:    cfg,
		runner: runner,
		prober: prober,
		logger: logger,
	}
}

// Assemble concatenates the segments in slide order with the stream-copy
// concat demuxer, then re-encodes once to apply the fades. With fades
// disabled the concatenated file is promoted directly.
func (f *ffmpegVideoAssembler) Assemble(ctx context.Context, req outbound.AssembleVideoRequest) (domain.AssembledVideo, error) {
	if len(req.Segments) == 0 {
		return domain.AssembledVideo{}, &domain.AssemblyError{Err: errors.New("no segments to assemble")}
	}

	segments := append([]domain.VideoSegment(nil), req.Segments...)
	sort.Sort(domain.VideoSegmentsAscByIndex(segments))

	listPath := filepath.Join(req.ScratchDir, "concat_"+uuid.NewString()+".txt")
	if err := writeConcatList(listPath, segments); err != nil {
		return domain.AssembledVideo{}, &domain.AssemblyError{Err: err}
	}
	defer func() {
		if err := os.Remove(listPath); err != nil {
			f.logger.Warn("Failed to remove concat list file")
		}
	}()

	rawPath := filepath.Join(req.ScratchDir, "raw_concat_"+uuid.NewString()+".mp4")
	_, err := f.runner.Run(ctx, "ffmpeg", "-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", rawPath)
	if err != nil {
		return domain.AssembledVideo{}, &domain.AssemblyError{Err: fmt.Errorf("concatenate segments: %w", err)}
	}

	if f.cfg.FadeDuration <= 0 {
		if err := os.Rename(rawPath, req.OutputPath); err != nil {
			return domain.AssembledVideo{}, &domain.AssemblyError{Err: fmt.Errorf("move assembled video: %w", err)}
		}
		return f.describe(ctx, req.OutputPath)
	}
	defer func() {
		if err := os.Remove(rawPath); err != nil {
			f.logger.Warn("Failed to remove raw concatenated video")
		}
	}()

	total, err := f.prober.Duration(ctx, rawPath)
	if err != nil {
		return domain.AssembledVideo{}, &domain.AssemblyError{Err: err}
	}

	fade := f.cfg.FadeDuration
	fadeOutStart := total - fade
	if fadeOutStart < 0 {
		fadeOutStart = 0
	}

	videoFilter := fmt.Sprintf("fade=t=in:st=0:d=%s,fade=t=out:st=%s:d=%s",
		formatSeconds(fade), formatSeconds(fadeOutStart), formatSeconds(fade))
	audioFilter := fmt.Sprintf("afade=t=in:st=0:d=%s,afade=t=out:st=%s:d=%s",
		formatSeconds(fade), formatSeconds(fadeOutStart), formatSeconds(fade))

	_, err = f.runner.Run(ctx, "ffmpeg",
		"-y",
		"-i", rawPath,
		"-vf", videoFilter,
		"-af", audioFilter,
		"-c:v", "libx264",
		"-preset", f.cfg.Preset,
		"-crf", strconv.Itoa(f.cfg.CRF),
		"-c:a", "aac",
		"-b:a", f.cfg.AudioBitrate,
		"-movflags", "+faststart",
		req.OutputPath,
	)
	if err != nil {
		return domain.AssembledVideo{}, &domain.AssemblyError{Err: fmt.Errorf("apply fades: %w", err)}
	}

	return f.describe(ctx, req.OutputPath)
}

func (f *ffmpegVideoAssembler) describe(ctx context.Context, path string) (domain.AssembledVideo, error) {
	duration, err := f.prober.Duration(ctx, path)
	if err != nil {
		return domain.AssembledVideo{}, &domain.AssemblyError{Err: err}
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.AssembledVideo{}, &domain.AssemblyError{Err: fmt.Errorf("stat assembled video: %w", err)}
	}

	return domain.AssembledVideo{
		Path:      path,
		Duration:  duration,
		SizeBytes: info.Size(),
	}, nil
}

func writeConcatList(path string, segments []domain.VideoSegment) (err error) {
	fileList, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create concat list: %w", err)
	}
	defer func() {
		if closeErr := fileList.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	writer := bufio.NewWriter(fileList)
	for _, s := range segments {
		if _, err = writer.WriteString("file '" + filepath.ToSlash(s.FilePath) + "'\n"); err != nil {
			return fmt.Errorf("write concat list: %w", err)
		}
	}
	if err = writer.Flush(); err != nil {
		return fmt.Errorf("flush concat list: %w", err)
	}
	return nil
}
