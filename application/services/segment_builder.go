package services

import (
	"context"
	"sync"

	"github.com/setegnworku/africa-rising-video/application/ports/inbound"
	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/domain"
)

type segmentBuilder struct {
	logger     outbound.LoggerPort
	encoder    outbound.SegmentEncoderPort
	workerPool outbound.TaskDispatcher
}

func NewSegmentBuilder(logger outbound.LoggerPort, encoder outbound.SegmentEncoderPort,
	workerPool outbound.TaskDispatcher) inbound.SegmentBuilderPort {
	return &segmentBuilder{
		logger:     logger,
		encoder:    encoder,
		workerPool: workerPool,
	}
}

func (s *segmentBuilder) Build(ctx context.Context, narrationCh <-chan domain.NarratedEntry, params inbound.BuildSegmentsParams) (<-chan domain.VideoSegment, <-chan error) {
	out := make(chan domain.VideoSegment)
	errCh := make(chan error, 5)

	go func() {
		defer close(out)
		defer close(errCh)

		var wg sync.WaitGroup
		defer wg.Wait()

		for narrated := range narrationCh {
			if ctx.Err() != nil {
				return
			}
			wg.Add(1)
			narrated := narrated
			err := s.workerPool.Submit(func() {
				defer wg.Done()

				segment, err := s.buildSegment(ctx, narrated, params)
				if err != nil {
					select {
					case errCh <- err:
					case <-ctx.Done():
					}
					return
				}

				select {
				case out <- *segment:
				case <-ctx.Done():
				}
			})
			if err != nil {
				wg.Done()
				select {
				case errCh <- err:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	return out, errCh
}

func (s *segmentBuilder) buildSegment(ctx context.Context, narrated domain.NarratedEntry, params inbound.BuildSegmentsParams) (*domain.VideoSegment, error) {
	imagePath, ok := params.Slides[narrated.Entry.Index]
	if !ok {
		return nil, &domain.MissingAssetError{Slide: narrated.Entry.Index}
	}

	segment, err := s.encoder.Encode(ctx, outbound.EncodeSegmentRequest{
		Slide:         narrated.Entry.Index,
		ImagePath:     imagePath,
		AudioPath:     narrated.Audio.Path,
		AudioDuration: narrated.Audio.Duration,
		OutputDir:     params.OutputDir,
	})
	if err != nil {
		s.logger.Error(err, "Failed to encode segment")
		return nil, err
	}

	segment.Audio = narrated.Audio
	segment.AudioFromCache = narrated.FromCache

	s.logger.DebugWithFields("Built segment", map[string]interface{}{
		"slide":    segment.Index,
		"duration": segment.OutputDuration,
		"file":     segment.FilePath,
	})

	return &segment, nil
}
