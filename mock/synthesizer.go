package mockmedia

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
)

type SynthResult struct {
	Payload []byte
	Err     error
	Delay   time.Duration
}

// ScriptedSynthesizer plays back per-slide results and counts calls, so tests
// can assert which slides reached the synthesizer and how often.
type ScriptedSynthesizer struct {
	mu      sync.Mutex
	results map[int]SynthResult
	calls   map[int]int
}

func NewScriptedSynthesizer() *ScriptedSynthesizer {
	return &ScriptedSynthesizer{
		results: make(map[int]SynthResult),
		calls:   make(map[int]int),
	}
}

func (s *ScriptedSynthesizer) SetResult(slide int, res SynthResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[slide] = res
}

func (s *ScriptedSynthesizer) Calls(slide int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[slide]
}

func (s *ScriptedSynthesizer) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *ScriptedSynthesizer) Synthesize(ctx context.Context, req outbound.SynthesizeSpeechRequest) (io.ReadCloser, error) {
	s.mu.Lock()
	s.calls[req.Slide]++
	res := s.results[req.Slide]
	s.mu.Unlock()

	if res.Delay > 0 {
		select {
		case <-time.After(res.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if res.Err != nil {
		return nil, res.Err
	}

	payload := res.Payload
	if payload == nil {
		payload = []byte(fmt.Sprintf("mp3:%d:%s", req.Slide, req.Text))
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}
