package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/setegnworku/africa-rising-video/application/ports/inbound"
	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/channel_utils"
	"github.com/setegnworku/africa-rising-video/domain"
)

type pipelineOrchestrator struct {
	logger      outbound.LoggerPort
	parser      inbound.ScriptParserPort
	locator     outbound.AssetLocatorPort
	synthesizer inbound.NarrationSynthesizerPort
	builder     inbound.SegmentBuilderPort
	assembler   outbound.VideoAssemblerPort
	publisher   outbound.VideoPublisherPort
	failureMode domain.FailureMode
	outputName  string
	keepScratch bool
}

// NewPipelineOrchestrator wires the full script-to-video pipeline. A nil
// publisher disables the publish step. outputName is the file name used under
// the work directory when StartRunParams leaves OutputPath empty.
func NewPipelineOrchestrator(
	logger outbound.LoggerPort,
	parser inbound.ScriptParserPort,
	locator outbound.AssetLocatorPort,
	synthesizer inbound.NarrationSynthesizerPort,
	builder inbound.SegmentBuilderPort,
	assembler outbound.VideoAssemblerPort,
	publisher outbound.VideoPublisherPort,
	failureMode domain.FailureMode,
	outputName string,
	keepScratch bool) inbound.PipelineOrchestratorPort {
	return &pipelineOrchestrator{
		logger:      logger,
		parser:      parser,
		locator:     locator,
		synthesizer: synthesizer,
		builder:     builder,
		assembler:   assembler,
		publisher:   publisher,
		failureMode: failureMode,
		outputName:  outputName,
		keepScratch: keepScratch,
	}
}

func (s *pipelineOrchestrator) Run(ctx context.Context, params inbound.StartRunParams) (domain.RunReport, error) {
	if params.WorkDir == "" {
		params.WorkDir = "."
	}
	notify := params.Notify
	if notify == nil {
		notify = func(domain.ProgressEvent) {}
	}

	report := domain.RunReport{
		RunID:     uuid.NewString(),
		State:     domain.StateParsing,
		WorkDir:   params.WorkDir,
		StartedAt: time.Now().UTC(),
	}

	err := s.run(ctx, params, &report, notify)
	report.FinishedAt = time.Now().UTC()

	if err != nil {
		report.State = domain.StateFailed
		s.logger.ErrorWithFields(err, "Run failed", map[string]interface{}{
			"run_id": report.RunID,
		})
		notify(domain.ProgressEvent{RunID: report.RunID, State: report.State, Error: err.Error()})
		return report, err
	}

	report.State = domain.StateDone
	notify(domain.ProgressEvent{RunID: report.RunID, State: report.State, Message: "run complete"})
	return report, nil
}

func (s *pipelineOrchestrator) run(ctx context.Context, params inbound.StartRunParams, report *domain.RunReport, notify inbound.ProgressSink) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.setState(report, notify, domain.StateParsing, "parsing narration script")

	scriptPath := params.ScriptPath
	if scriptPath == "" {
		located, err := s.locator.LocateScript(params.WorkDir)
		if err != nil {
			return err
		}
		scriptPath = located
	}
	report.ScriptPath = scriptPath

	raw, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	entries, err := s.parser.Parse(string(raw))
	if err != nil {
		return err
	}
	report.Entries = len(entries)
	s.logger.InfoWithFields("Parsed narration script", map[string]interface{}{
		"run_id": report.RunID,
		"slides": len(entries),
		"script": scriptPath,
	})

	s.setState(report, notify, domain.StateLocatingAssets, "locating slide images")

	slides, err := s.locator.LocateSlides(params.WorkDir)
	if err != nil {
		return err
	}

	entries, err = s.checkAssets(entries, slides, params.WorkDir, report, notify)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errors.New("no slides left to render")
	}

	scratchDir, err := os.MkdirTemp(params.WorkDir, ".segments-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if s.keepScratch {
			s.logger.InfoWithFields("Keeping segment files", map[string]interface{}{"dir": scratchDir})
			return
		}
		if err := os.RemoveAll(scratchDir); err != nil {
			s.logger.Error(err, "Failed to remove scratch directory")
		}
	}()

	s.setState(report, notify, domain.StateSynthesizing, "synthesizing narration")

	entryCh := channel_utils.Emit(runCtx, entries)
	narrationCh, synthErrCh := s.synthesizer.Synthesize(runCtx, entryCh, params.VoiceID)
	segmentCh, buildErrCh := s.builder.Build(runCtx, narrationCh, inbound.BuildSegmentsParams{
		Slides:    slides,
		OutputDir: scratchDir,
	})
	mergedErrCh := channel_utils.MergeChannels(synthErrCh, buildErrCh)

	segments, err := s.collectSegments(runCtx, cancel, segmentCh, mergedErrCh, report, notify)
	if err != nil {
		return err
	}

	mediaFailures := 0
	for _, failure := range report.Failures {
		if failure.Stage != domain.StageAssets {
			mediaFailures++
		}
	}
	if want := len(entries) - mediaFailures; len(segments) != want {
		return fmt.Errorf("collected %d segments for %d narrations (%d failed)", len(segments), len(entries), mediaFailures)
	}
	if len(segments) == 0 {
		return errors.New("no segments were built")
	}

	s.setState(report, notify, domain.StateAssembling, "assembling final video")

	sort.Sort(domain.VideoSegmentsAscByIndex(segments))

	outputPath := params.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(params.WorkDir, s.outputName)
	}

	video, err := s.assembler.Assemble(runCtx, outbound.AssembleVideoRequest{
		Segments:   segments,
		OutputPath: outputPath,
		ScratchDir: scratchDir,
	})
	if err != nil {
		return err
	}
	report.OutputPath = video.Path
	report.OutputDuration = video.Duration
	report.OutputSizeBytes = video.SizeBytes

	if s.publisher != nil {
		s.setState(report, notify, domain.StatePublishing, "publishing video")

		res, err := s.publisher.Publish(runCtx, outbound.PublishVideoRequest{
			VideoPath: video.Path,
			RunID:     report.RunID,
		})
		if err != nil {
			return err
		}
		report.PublishedKey = res.VideoKey
		report.PublishedRegion = res.StoreRegion
	}

	return nil
}

// checkAssets pairs every narration entry with its slide image. In strict mode
// the first missing image aborts; in best-effort mode the entry is dropped and
// the failure recorded. Images with no narration entry only produce a warning.
func (s *pipelineOrchestrator) checkAssets(entries []domain.ScriptEntry, slides map[int]string,
	workDir string, report *domain.RunReport, notify inbound.ProgressSink) ([]domain.ScriptEntry, error) {

	narrated := make(map[int]bool, len(entries))
	kept := make([]domain.ScriptEntry, 0, len(entries))

	for _, entry := range entries {
		narrated[entry.Index] = true
		if _, ok := slides[entry.Index]; ok {
			kept = append(kept, entry)
			continue
		}

		missing := &domain.MissingAssetError{
			Slide: entry.Index,
			Path:  filepath.Join(workDir, fmt.Sprintf("slide%d.png", entry.Index)),
		}
		failure, _ := domain.AsSlideFailure(missing)
		report.Failures = append(report.Failures, failure)
		notify(domain.ProgressEvent{
			RunID: report.RunID,
			State: report.State,
			Slide: failure.Slide,
			Stage: failure.Stage,
			Error: failure.Reason,
		})

		if s.failureMode == domain.StrictMode {
			return nil, missing
		}
		s.logger.WarnWithFields("Skipping slide without image", map[string]interface{}{
			"run_id": report.RunID,
			"slide":  entry.Index,
		})
	}

	for index := range slides {
		if !narrated[index] {
			s.logger.WarnWithFields("Slide image has no narration entry", map[string]interface{}{
				"run_id": report.RunID,
				"slide":  index,
			})
		}
	}

	return kept, nil
}

// collectSegments drains the media stages, applying the failure policy. Slide
// failures are recorded on the report; in strict mode the first one cancels
// the run. Errors without slide attribution abort in either mode.
func (s *pipelineOrchestrator) collectSegments(ctx context.Context, cancel context.CancelFunc,
	segmentCh <-chan domain.VideoSegment, errCh <-chan error,
	report *domain.RunReport, notify inbound.ProgressSink) ([]domain.VideoSegment, error) {

	segments := make([]domain.VideoSegment, 0)
	var abort error

	for segmentCh != nil || errCh != nil {
		select {
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if abort != nil && errors.Is(err, context.Canceled) {
				continue
			}

			failure, attributed := domain.AsSlideFailure(err)
			if !attributed {
				if abort == nil {
					abort = err
					cancel()
				}
				continue
			}

			report.Failures = append(report.Failures, failure)
			s.logger.WarnWithFields("Slide failed", map[string]interface{}{
				"run_id": report.RunID,
				"slide":  failure.Slide,
				"stage":  string(failure.Stage),
				"reason": failure.Reason,
			})
			notify(domain.ProgressEvent{
				RunID: report.RunID,
				State: report.State,
				Slide: failure.Slide,
				Stage: failure.Stage,
				Error: failure.Reason,
			})

			if s.failureMode == domain.StrictMode && abort == nil {
				abort = err
				cancel()
			}

		case segment, ok := <-segmentCh:
			if !ok {
				segmentCh = nil
				continue
			}
			if abort != nil {
				continue
			}
			if report.State == domain.StateSynthesizing {
				s.setState(report, notify, domain.StateBuildingSegments, "building video segments")
			}

			segments = append(segments, segment)
			report.SegmentsBuilt++
			if segment.AudioFromCache {
				report.CacheHits++
			} else {
				report.Synthesized++
			}
			notify(domain.ProgressEvent{
				RunID:   report.RunID,
				State:   report.State,
				Slide:   segment.Index,
				Stage:   domain.StageEncode,
				Message: fmt.Sprintf("segment ready (%.2fs)", segment.OutputDuration),
			})
		}
	}

	if abort != nil {
		return nil, abort
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return segments, nil
}

func (s *pipelineOrchestrator) setState(report *domain.RunReport, notify inbound.ProgressSink,
	state domain.RunState, message string) {
	report.State = state
	s.logger.InfoWithFields(message, map[string]interface{}{
		"run_id": report.RunID,
		"state":  string(state),
	})
	notify(domain.ProgressEvent{RunID: report.RunID, State: state, Message: message})
}
