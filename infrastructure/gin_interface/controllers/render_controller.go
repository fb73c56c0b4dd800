package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/setegnworku/africa-rising-video/application/ports/inbound"
	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/domain"
	"github.com/setegnworku/africa-rising-video/infrastructure/gin_interface/dto"
	"github.com/setegnworku/africa-rising-video/middleware"
)

type RenderController interface {
	RenderVideo(c *gin.Context)
	Health(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type renderController struct {
	logger          outbound.LoggerPort
	livePipeline    inbound.PipelineOrchestratorPort
	previewPipeline inbound.PipelineOrchestratorPort
}

func NewRenderController(
	logger outbound.LoggerPort,
	livePipeline inbound.PipelineOrchestratorPort,
	previewPipeline inbound.PipelineOrchestratorPort,
) RenderController {
	return &renderController{
		logger:          logger,
		livePipeline:    livePipeline,
		previewPipeline: previewPipeline,
	}
}

// RenderVideo runs the pipeline for one work directory and streams progress
// as server-sent events: "progress" per state change and finished slide,
// "failure" per failed slide, then one terminal "complete" or "error" event.
// Closing the connection cancels the run.
func (s *renderController) RenderVideo(c *gin.Context) {
	var req dto.RenderVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pipeline := s.livePipeline
	if req.Preview {
		pipeline = s.previewPipeline
	}

	newCtx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	notify := func(event domain.ProgressEvent) {
		switch {
		case event.Error == "":
			c.SSEvent("progress", event)
		case event.Slide != 0:
			c.SSEvent("failure", event)
		default:
			// terminal failure, carried by the error event instead
			return
		}
		c.Writer.Flush()
	}

	report, err := pipeline.Run(newCtx, inbound.StartRunParams{
		WorkDir: req.WorkDir,
		VoiceID: req.VoiceID,
		Notify:  notify,
	})
	if err != nil {
		s.logger.Error(err, "Render run failed")
		c.SSEvent("error", gin.H{"error": err.Error(), "report": report})
		c.Writer.Flush()
		return
	}

	c.SSEvent("complete", report)
	c.Writer.Flush()
}

func (s *renderController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *renderController) RegisterRoutes(g *gin.Engine) {
	g.POST("/render", middleware.SSEMiddleware(), s.RenderVideo)
	g.GET("/health", s.Health)
}
