package outbound

import (
	"context"

	"github.com/setegnworku/africa-rising-video/domain"
)

// SpeechCachePort stores synthesized narration keyed by slide index and
// fingerprint, so unchanged slides never hit the synthesizer twice.
type SpeechCachePort interface {
	Lookup(ctx context.Context, slide int, fingerprint string) (domain.AudioArtifact, bool, error)
	Store(ctx context.Context, slide int, artifact domain.AudioArtifact) error
	// AudioPath is where the audio payload for the given key must be written
	// before Store records it.
	AudioPath(slide int, fingerprint string) string
}
