package outbound

import (
	"context"

	"github.com/setegnworku/africa-rising-video/domain"
)

type EncodeSegmentRequest struct {
	Slide         int
	ImagePath     string
	AudioPath     string
	AudioDuration float64
	OutputDir     string
}

// SegmentEncoderPort renders one still image plus its narration into a video
// segment. The returned segment duration is the narration duration plus the
// configured trailing silence.
type SegmentEncoderPort interface {
	Encode(ctx context.Context, req EncodeSegmentRequest) (domain.VideoSegment, error)
}
