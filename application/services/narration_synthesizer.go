package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/setegnworku/africa-rising-video/application/ports/inbound"
	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/domain"
)

type narrationSynthesizer struct {
	logger      outbound.LoggerPort
	synthesizer outbound.SpeechSynthesizerPort
	cache       outbound.SpeechCachePort
	prober      outbound.MediaProberPort
	workerPool  outbound.TaskDispatcher
	voice       domain.VoiceSpec
}

// NewNarrationSynthesizer wires the synthesis stage. The voice argument
// provides the model and output format plus the default voice; a non-empty
// voiceID passed to Synthesize overrides the voice per run.
func NewNarrationSynthesizer(logger outbound.LoggerPort, synthesizer outbound.SpeechSynthesizerPort,
	cache outbound.SpeechCachePort, prober outbound.MediaProberPort, workerPool outbound.TaskDispatcher,
	voice domain.VoiceSpec) inbound.NarrationSynthesizerPort {
	return &narrationSynthesizer{
		logger:      logger,
		synthesizer: synthesizer,
		cache:       cache,
		prober:      prober,
		workerPool:  workerPool,
		voice:       voice,
	}
}

func (s *narrationSynthesizer) Synthesize(ctx context.Context, entryCh <-chan domain.ScriptEntry, voiceID string) (<-chan domain.NarratedEntry, <-chan error) {
	out := make(chan domain.NarratedEntry)
	errCh := make(chan error, 5)

	spec := s.voice
	if voiceID != "" {
		spec.VoiceID = voiceID
	}

	go func() {
		defer close(out)
		defer close(errCh)

		var wg sync.WaitGroup
		defer wg.Wait()

		for entry := range entryCh {
			if ctx.Err() != nil {
				return
			}
			wg.Add(1)
			entry := entry
			err := s.workerPool.Submit(func() {
				defer wg.Done()

				narrated, err := s.narrate(ctx, entry, spec)
				if err != nil {
					select {
					case errCh <- err:
					case <-ctx.Done():
					}
					return
				}

				select {
				case out <- *narrated:
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

func (s *narrationSynthesizer) narrate(ctx context.Context, entry domain.ScriptEntry, spec domain.VoiceSpec) (*domain.NarratedEntry, error) {
	speechText := entry.SpeechText()
	fingerprint := domain.Fingerprint(speechText, spec)

	artifact, hit, err := s.cache.Lookup(ctx, entry.Index, fingerprint)
	if err != nil {
		s.logger.WarnWithFields("Cache lookup failed, synthesizing fresh", map[string]interface{}{
			"slide": entry.Index,
			"error": err.Error(),
		})
	}
	if hit {
		s.logger.DebugWithFields("Reusing cached narration", map[string]interface{}{
			"slide":    entry.Index,
			"duration": artifact.Duration,
		})
		return &domain.NarratedEntry{Entry: entry, Audio: artifact, FromCache: true}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, &domain.SynthesisError{Slide: entry.Index, Transient: true, Err: err}
	}

	// The paid call and the cache write run detached from run cancellation,
	// so an already started synthesis still lands in the cache for the next
	// run. The per-call timeout inside the adapter still bounds it.
	callCtx := context.WithoutCancel(ctx)

	reader, err := s.synthesizer.Synthesize(callCtx, outbound.SynthesizeSpeechRequest{
		Slide:   entry.Index,
		Text:    speechText,
		VoiceID: spec.VoiceID,
	})
	if err != nil {
		s.logger.Error(err, "Failed to synthesize narration")
		return nil, err
	}

	audioPath := s.cache.AudioPath(entry.Index, fingerprint)
	if err := s.writeAudioFile(reader, audioPath); err != nil {
		s.logger.Error(err, "Failed to write narration audio")
		return nil, &domain.SynthesisError{Slide: entry.Index, Err: err}
	}

	duration, err := s.prober.Duration(callCtx, audioPath)
	if err != nil {
		s.logger.Error(err, "Failed to measure narration duration")
		if removeErr := os.Remove(audioPath); removeErr != nil {
			s.logger.Error(removeErr, "Failed to remove unreadable narration audio")
		}
		return nil, &domain.SynthesisError{Slide: entry.Index, Err: err}
	}

	artifact = domain.AudioArtifact{
		Path:        audioPath,
		Duration:    duration,
		Fingerprint: fingerprint,
	}
	if err := s.cache.Store(callCtx, entry.Index, artifact); err != nil {
		s.logger.WarnWithFields("Failed to persist cache entry", map[string]interface{}{
			"slide": entry.Index,
			"error": err.Error(),
		})
	}

	s.logger.InfoWithFields("Synthesized narration", map[string]interface{}{
		"slide":    entry.Index,
		"duration": duration,
	})

	return &domain.NarratedEntry{Entry: entry, Audio: artifact, FromCache: false}, nil
}

func (s *narrationSynthesizer) writeAudioFile(reader io.ReadCloser, path string) error {
	defer func(reader io.ReadCloser) {
		if err := reader.Close(); err != nil {
			s.logger.Error(err, "Failed to close synthesis response body")
		}
	}(reader)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			s.logger.Error(err, "Failed to close audio file")
		}
	}(file)

	_, err = io.Copy(file, reader)
	return err
}
