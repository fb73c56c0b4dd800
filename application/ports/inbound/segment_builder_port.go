package inbound

import (
	"context"

	"github.com/setegnworku/africa-rising-video/domain"
)

type BuildSegmentsParams struct {
	Slides    map[int]string
	OutputDir string
}

// SegmentBuilderPort renders narrated entries into per-slide video segments.
// Segments are emitted in completion order, not slide order.
type SegmentBuilderPort interface {
	Build(ctx context.Context, narrationCh <-chan domain.NarratedEntry, params BuildSegmentsParams) (<-chan domain.VideoSegment, <-chan error)
}
