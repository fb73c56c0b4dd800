package inbound

import (
	"context"

	"github.com/setegnworku/africa-rising-video/domain"
)

// NarrationSynthesizerPort resolves each script entry to an audio artifact,
// serving from the speech cache when possible. Per-slide failures are sent on
// the error channel; both channels close when all entries are resolved.
type NarrationSynthesizerPort interface {
	Synthesize(ctx context.Context, entryCh <-chan domain.ScriptEntry, voiceID string) (<-chan domain.NarratedEntry, <-chan error)
}
