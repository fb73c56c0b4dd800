package outbound

import (
	"context"
	"io"
)

type SynthesizeSpeechRequest struct {
	Slide   int
	Text    string
	VoiceID string
}

// SpeechSynthesizerPort turns narration text into encoded audio. The returned
// reader streams the audio payload and must be closed by the caller.
type SpeechSynthesizerPort interface {
	Synthesize(ctx context.Context, req SynthesizeSpeechRequest) (io.ReadCloser, error)
}
