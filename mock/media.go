package mockmedia

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/domain"
)

// StaticProber reports durations from a fixed table.
type StaticProber struct {
	mu        sync.Mutex
	Durations map[string]float64
	Default   float64
}

func (p *StaticProber) Duration(_ context.Context, path string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d, ok := p.Durations[path]; ok {
		return d, nil
	}
	if p.Default > 0 {
		return p.Default, nil
	}
	return 0, fmt.Errorf("no duration recorded for %s", path)
}

// StubEncoder produces segments without touching ffmpeg. Per-slide errors and
// delays can be scripted to exercise failure and ordering behavior.
type StubEncoder struct {
	mu      sync.Mutex
	Padding float64
	Fail    map[int]error
	Delays  map[int]time.Duration
	slides  []int
}

func (e *StubEncoder) Encode(ctx context.Context, req outbound.EncodeSegmentRequest) (domain.VideoSegment, error) {
	e.mu.Lock()
	e.slides = append(e.slides, req.Slide)
	failErr := e.Fail[req.Slide]
	delay := e.Delays[req.Slide]
	e.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return domain.VideoSegment{}, ctx.Err()
		}
	}
	if failErr != nil {
		return domain.VideoSegment{}, failErr
	}

	return domain.VideoSegment{
		Index:          req.Slide,
		ImagePath:      req.ImagePath,
		FilePath:       filepath.Join(req.OutputDir, fmt.Sprintf("slide%d.mp4", req.Slide)),
		OutputDuration: req.AudioDuration + e.Padding,
	}, nil
}

func (e *StubEncoder) EncodedSlides() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.slides...)
}

// StubAssembler records the request and reports a video whose duration is the
// sum of the segment durations.
type StubAssembler struct {
	mu       sync.Mutex
	Err      error
	requests []outbound.AssembleVideoRequest
}

func (a *StubAssembler) Assemble(_ context.Context, req outbound.AssembleVideoRequest) (domain.AssembledVideo, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	if a.Err != nil {
		return domain.AssembledVideo{}, a.Err
	}

	total := 0.0
	for _, segment := range req.Segments {
		total += segment.OutputDuration
	}
	return domain.AssembledVideo{
		Path:      req.OutputPath,
		Duration:  total,
		SizeBytes: int64(1024 * len(req.Segments)),
	}, nil
}

func (a *StubAssembler) Requests() []outbound.AssembleVideoRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]outbound.AssembleVideoRequest(nil), a.requests...)
}

// StubLocator answers asset discovery from fixed values.
type StubLocator struct {
	ScriptPath string
	ScriptErr  error
	Slides     map[int]string
	SlidesErr  error
}

func (l *StubLocator) LocateScript(string) (string, error) {
	return l.ScriptPath, l.ScriptErr
}

func (l *StubLocator) LocateSlides(string) (map[int]string, error) {
	if l.SlidesErr != nil {
		return nil, l.SlidesErr
	}
	slides := make(map[int]string, len(l.Slides))
	for k, v := range l.Slides {
		slides[k] = v
	}
	return slides, nil
}

// StubPublisher records publish requests.
type StubPublisher struct {
	mu       sync.Mutex
	Err      error
	requests []outbound.PublishVideoRequest
}

func (p *StubPublisher) Publish(_ context.Context, req outbound.PublishVideoRequest) (*outbound.PublishVideoResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	return &outbound.PublishVideoResponse{
		VideoKey:    "videos/" + req.RunID + ".mp4",
		StoreRegion: "test-region",
	}, nil
}

func (p *StubPublisher) Requests() []outbound.PublishVideoRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]outbound.PublishVideoRequest(nil), p.requests...)
}
