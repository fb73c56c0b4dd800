package outbound

import (
	"context"

	"github.com/setegnworku/africa-rising-video/domain"
)

type AssembleVideoRequest struct {
	Segments   []domain.VideoSegment
	OutputPath string
	ScratchDir string
}

// VideoAssemblerPort concatenates finished segments in slide order and applies
// the opening and closing fades.
type VideoAssemblerPort interface {
	Assemble(ctx context.Context, req AssembleVideoRequest) (domain.AssembledVideo, error)
}
