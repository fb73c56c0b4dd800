package dto

type RenderVideoRequest struct {
	WorkDir string `json:"work_dir" binding:"required"`
	VoiceID string `json:"voice_id"`
	Preview bool   `json:"preview"`
}
