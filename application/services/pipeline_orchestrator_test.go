package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/setegnworku/africa-rising-video/application/ports/inbound"
	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/domain"
	mockmedia "github.com/setegnworku/africa-rising-video/mock"
)

type pipelineFixture struct {
	workDir   string
	synth     *mockmedia.ScriptedSynthesizer
	cache     *mockmedia.MemorySpeechCache
	prober    *mockmedia.StaticProber
	encoder   *mockmedia.StubEncoder
	assembler *mockmedia.StubAssembler
	locator   *mockmedia.StubLocator
	publisher *mockmedia.StubPublisher
	events    []domain.ProgressEvent
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	workDir := t.TempDir()

	script := "SLIDE 1 — One\nfirst slide text\n\nSLIDE 2 — Two\nsecond slide text\n\nSLIDE 3 — Three\nthird slide text\n\nEND OF SCRIPT\n"
	scriptPath := filepath.Join(workDir, "script.txt")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatal("Failed to write script:", err)
	}

	slides := make(map[int]string, 3)
	for i := 1; i <= 3; i++ {
		imagePath := filepath.Join(workDir, fmt.Sprintf("slide%d.png", i))
		if err := os.WriteFile(imagePath, []byte("png"), 0o644); err != nil {
			t.Fatal("Failed to write slide image:", err)
		}
		slides[i] = imagePath
	}

	return &pipelineFixture{
		workDir:   workDir,
		synth:     mockmedia.NewScriptedSynthesizer(),
		cache:     mockmedia.NewMemorySpeechCache(filepath.Join(workDir, "cache")),
		prober:    &mockmedia.StaticProber{Default: 2.0},
		encoder:   &mockmedia.StubEncoder{Padding: 0.5},
		assembler: &mockmedia.StubAssembler{},
		locator:   &mockmedia.StubLocator{ScriptPath: scriptPath, Slides: slides},
	}
}

func (f *pipelineFixture) orchestrator(t *testing.T, mode domain.FailureMode, keepScratch bool) inbound.PipelineOrchestratorPort {
	t.Helper()

	workerPool, err := ants.NewPool(4)
	if err != nil {
		t.Fatal("Failed to create worker pool:", err)
	}
	t.Cleanup(workerPool.Release)

	logger := mockmedia.NopLogger{}
	synthStage := NewNarrationSynthesizer(logger, f.synth, f.cache, f.prober, workerPool, testVoice)
	buildStage := NewSegmentBuilder(logger, f.encoder, workerPool)

	var publisher outbound.VideoPublisherPort
	if f.publisher != nil {
		publisher = f.publisher
	}

	return NewPipelineOrchestrator(logger, NewScriptParser(), f.locator, synthStage, buildStage,
		f.assembler, publisher, mode, "final_video.mp4", keepScratch)
}

func (f *pipelineFixture) notify(event domain.ProgressEvent) {
	f.events = append(f.events, event)
}

func (f *pipelineFixture) assembledIndices(t *testing.T) []int {
	t.Helper()
	requests := f.assembler.Requests()
	if len(requests) != 1 {
		t.Fatalf("assembler invoked %d times, want 1", len(requests))
	}
	indices := make([]int, 0, len(requests[0].Segments))
	for _, seg := range requests[0].Segments {
		indices = append(indices, seg.Index)
	}
	return indices
}

func TestRunAllSlides(t *testing.T) {
	f := newPipelineFixture(t)
	orch := f.orchestrator(t, domain.StrictMode, false)

	report, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir, Notify: f.notify})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.State != domain.StateDone {
		t.Errorf("state = %s, want %s", report.State, domain.StateDone)
	}
	if report.Entries != 3 || report.SegmentsBuilt != 3 {
		t.Errorf("entries = %d, segments = %d, want 3 and 3", report.Entries, report.SegmentsBuilt)
	}
	if report.Synthesized != 3 || report.CacheHits != 0 {
		t.Errorf("synthesized = %d, cache hits = %d, want 3 and 0", report.Synthesized, report.CacheHits)
	}
	if f.synth.TotalCalls() != 3 {
		t.Errorf("synthesizer calls = %d, want 3", f.synth.TotalCalls())
	}

	wantOutput := filepath.Join(f.workDir, "final_video.mp4")
	if report.OutputPath != wantOutput {
		t.Errorf("output path = %q, want %q", report.OutputPath, wantOutput)
	}
	if report.OutputDuration != 7.5 {
		t.Errorf("output duration = %v, want 7.5", report.OutputDuration)
	}

	if got := f.assembledIndices(t); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("assembled indices = %v, want [1 2 3]", got)
	}

	leftovers, err := filepath.Glob(filepath.Join(f.workDir, ".segments-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("scratch directories left behind: %v", leftovers)
	}
}

func TestRunSecondRunServesFromCache(t *testing.T) {
	f := newPipelineFixture(t)
	orch := f.orchestrator(t, domain.StrictMode, false)
	params := inbound.StartRunParams{WorkDir: f.workDir}

	if _, err := orch.Run(context.Background(), params); err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}
	if f.synth.TotalCalls() != 3 {
		t.Fatalf("first run synthesizer calls = %d, want 3", f.synth.TotalCalls())
	}

	report, err := orch.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}

	if f.synth.TotalCalls() != 3 {
		t.Errorf("second run performed %d fresh synthesis calls", f.synth.TotalCalls()-3)
	}
	if report.CacheHits != 3 || report.Synthesized != 0 {
		t.Errorf("cache hits = %d, synthesized = %d, want 3 and 0", report.CacheHits, report.Synthesized)
	}
	if report.State != domain.StateDone {
		t.Errorf("state = %s, want %s", report.State, domain.StateDone)
	}
}

func TestRunStrictMissingImageAborts(t *testing.T) {
	f := newPipelineFixture(t)
	delete(f.locator.Slides, 2)
	orch := f.orchestrator(t, domain.StrictMode, false)

	report, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir})
	if err == nil {
		t.Fatal("Run succeeded despite a missing slide image")
	}

	var missingErr *domain.MissingAssetError
	if !errors.As(err, &missingErr) {
		t.Fatalf("error type = %T, want *domain.MissingAssetError", err)
	}
	if missingErr.Slide != 2 {
		t.Errorf("missing slide = %d, want 2", missingErr.Slide)
	}

	if report.State != domain.StateFailed {
		t.Errorf("state = %s, want %s", report.State, domain.StateFailed)
	}
	if f.synth.TotalCalls() != 0 {
		t.Errorf("synthesizer was called %d times before the abort", f.synth.TotalCalls())
	}
	if len(f.assembler.Requests()) != 0 {
		t.Error("assembler was invoked on an aborted run")
	}
	if report.OutputPath != "" {
		t.Errorf("output path = %q on a failed run", report.OutputPath)
	}
	if len(report.Failures) != 1 || report.Failures[0].Slide != 2 || report.Failures[0].Stage != domain.StageAssets {
		t.Errorf("failures = %+v, want slide 2 at assets stage", report.Failures)
	}
}

func TestRunBestEffortSkipsMissingImage(t *testing.T) {
	f := newPipelineFixture(t)
	delete(f.locator.Slides, 2)
	orch := f.orchestrator(t, domain.BestEffortMode, false)

	report, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := f.assembledIndices(t); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("assembled indices = %v, want [1 3]", got)
	}
	if report.Entries != 3 || report.SegmentsBuilt != 2 {
		t.Errorf("entries = %d, segments = %d, want 3 and 2", report.Entries, report.SegmentsBuilt)
	}
	if len(report.Failures) != 1 || report.Failures[0].Slide != 2 || report.Failures[0].Stage != domain.StageAssets {
		t.Errorf("failures = %+v, want slide 2 at assets stage", report.Failures)
	}
	if f.synth.Calls(2) != 0 {
		t.Error("skipped slide 2 still reached the synthesizer")
	}
}

func TestRunStrictSynthesisFailureAborts(t *testing.T) {
	f := newPipelineFixture(t)
	f.synth.SetResult(2, mockmedia.SynthResult{
		Err: &domain.SynthesisError{Slide: 2, Err: errors.New("invalid api key")},
	})
	orch := f.orchestrator(t, domain.StrictMode, false)

	report, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir})
	if err == nil {
		t.Fatal("Run succeeded despite a synthesis failure")
	}

	var synthErr *domain.SynthesisError
	if !errors.As(err, &synthErr) || synthErr.Slide != 2 {
		t.Fatalf("error = %v, want synthesis failure for slide 2", err)
	}
	if report.State != domain.StateFailed {
		t.Errorf("state = %s, want %s", report.State, domain.StateFailed)
	}
	if len(f.assembler.Requests()) != 0 {
		t.Error("assembler was invoked on an aborted run")
	}

	found := false
	for _, failure := range report.Failures {
		if failure.Slide == 2 && failure.Stage == domain.StageSynthesis {
			found = true
		}
	}
	if !found {
		t.Errorf("failures = %+v, want slide 2 at synthesis stage", report.Failures)
	}
}

func TestRunBestEffortExcludesFailedSlide(t *testing.T) {
	f := newPipelineFixture(t)
	f.synth.SetResult(2, mockmedia.SynthResult{
		Err: &domain.SynthesisError{Slide: 2, Err: errors.New("invalid api key")},
	})
	orch := f.orchestrator(t, domain.BestEffortMode, false)

	report, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := f.assembledIndices(t); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("assembled indices = %v, want [1 3]", got)
	}
	if len(report.Failures) != 1 || report.Failures[0].Slide != 2 || report.Failures[0].Stage != domain.StageSynthesis {
		t.Errorf("failures = %+v, want slide 2 at synthesis stage", report.Failures)
	}
	if report.Synthesized != 2 {
		t.Errorf("synthesized = %d, want 2", report.Synthesized)
	}
}

func TestRunOrdersSegmentsUnderShuffledCompletion(t *testing.T) {
	f := newPipelineFixture(t)
	f.encoder.Delays = map[int]time.Duration{
		1: 90 * time.Millisecond,
		2: 45 * time.Millisecond,
		3: 5 * time.Millisecond,
	}
	orch := f.orchestrator(t, domain.StrictMode, false)

	if _, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := f.assembledIndices(t); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("assembled indices = %v, want [1 2 3]", got)
	}
}

func TestRunPublishesWhenConfigured(t *testing.T) {
	f := newPipelineFixture(t)
	f.publisher = &mockmedia.StubPublisher{}
	orch := f.orchestrator(t, domain.StrictMode, false)

	report, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.PublishedKey == "" || report.PublishedRegion != "test-region" {
		t.Errorf("published key = %q region = %q", report.PublishedKey, report.PublishedRegion)
	}

	requests := f.publisher.Requests()
	if len(requests) != 1 {
		t.Fatalf("publisher invoked %d times, want 1", len(requests))
	}
	if requests[0].VideoPath != report.OutputPath {
		t.Errorf("published %q, want %q", requests[0].VideoPath, report.OutputPath)
	}
	if requests[0].RunID != report.RunID {
		t.Errorf("published run id %q, want %q", requests[0].RunID, report.RunID)
	}
}

func TestRunEmitsProgressStates(t *testing.T) {
	f := newPipelineFixture(t)
	orch := f.orchestrator(t, domain.StrictMode, false)

	if _, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir, Notify: f.notify}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var states []domain.RunState
	segmentEvents := 0
	for _, event := range f.events {
		if event.Slide == 0 {
			states = append(states, event.State)
			continue
		}
		if event.Stage == domain.StageEncode && event.Error == "" {
			segmentEvents++
		}
	}

	wantStates := []domain.RunState{
		domain.StateParsing,
		domain.StateLocatingAssets,
		domain.StateSynthesizing,
		domain.StateBuildingSegments,
		domain.StateAssembling,
		domain.StateDone,
	}
	if !reflect.DeepEqual(states, wantStates) {
		t.Errorf("state sequence = %v, want %v", states, wantStates)
	}
	if segmentEvents != 3 {
		t.Errorf("segment progress events = %d, want 3", segmentEvents)
	}
}

func TestRunParseFailure(t *testing.T) {
	f := newPipelineFixture(t)
	dup := "SLIDE 1\nfirst\n\nSLIDE 2\nsecond\n\nSLIDE 2\nagain\n"
	if err := os.WriteFile(f.locator.ScriptPath, []byte(dup), 0o644); err != nil {
		t.Fatal(err)
	}
	orch := f.orchestrator(t, domain.StrictMode, false)

	report, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir})
	if err == nil {
		t.Fatal("Run succeeded on a malformed script")
	}

	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error type = %T, want *domain.ParseError", err)
	}
	if report.State != domain.StateFailed {
		t.Errorf("state = %s, want %s", report.State, domain.StateFailed)
	}
	if f.synth.TotalCalls() != 0 {
		t.Error("synthesizer was called for a script that never parsed")
	}
	if len(f.assembler.Requests()) != 0 {
		t.Error("assembler was invoked for a script that never parsed")
	}
}

func TestRunFailsWhenNothingRenders(t *testing.T) {
	f := newPipelineFixture(t)
	f.locator.Slides = map[int]string{}
	orch := f.orchestrator(t, domain.BestEffortMode, false)

	report, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir})
	if err == nil {
		t.Fatal("Run succeeded with no renderable slides")
	}
	if report.State != domain.StateFailed {
		t.Errorf("state = %s, want %s", report.State, domain.StateFailed)
	}
	if len(report.Failures) != 3 {
		t.Errorf("failures = %d, want 3", len(report.Failures))
	}
}

func TestRunKeepsScratchWhenConfigured(t *testing.T) {
	f := newPipelineFixture(t)
	orch := f.orchestrator(t, domain.StrictMode, true)

	if _, err := orch.Run(context.Background(), inbound.StartRunParams{WorkDir: f.workDir}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	leftovers, err := filepath.Glob(filepath.Join(f.workDir, ".segments-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 1 {
		t.Errorf("scratch directories = %v, want exactly one kept", leftovers)
	}
}

func TestRunCancellation(t *testing.T) {
	f := newPipelineFixture(t)
	f.encoder.Delays = map[int]time.Duration{
		1: 300 * time.Millisecond,
		2: 300 * time.Millisecond,
		3: 300 * time.Millisecond,
	}
	orch := f.orchestrator(t, domain.StrictMode, false)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	report, err := orch.Run(ctx, inbound.StartRunParams{WorkDir: f.workDir})
	if err == nil {
		t.Fatal("Run succeeded despite cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if report.State != domain.StateFailed {
		t.Errorf("state = %s, want %s", report.State, domain.StateFailed)
	}
	if len(f.assembler.Requests()) != 0 {
		t.Error("assembler was invoked on a cancelled run")
	}
}
