package inbound

import (
	"context"

	"github.com/setegnworku/africa-rising-video/domain"
)

// ProgressSink receives run progress events. Implementations must be fast;
// events are delivered from the orchestrator goroutine.
type ProgressSink func(event domain.ProgressEvent)

type StartRunParams struct {
	WorkDir    string
	ScriptPath string // discovered inside WorkDir when empty
	OutputPath string // defaults to the configured name under WorkDir
	VoiceID    string // overrides the configured voice when set
	Notify     ProgressSink
}

// PipelineOrchestratorPort runs the whole script-to-video pipeline and blocks
// until it finishes. The returned report is populated even when err != nil.
type PipelineOrchestratorPort interface {
	Run(ctx context.Context, params StartRunParams) (domain.RunReport, error)
}
