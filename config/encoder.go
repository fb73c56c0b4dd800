package config

import "time"

type EncoderConfig struct {
	Width          int
	Height         int
	FPS            int
	CRF            int
	Preset         string
	AudioBitrate   string
	SilencePadding float64
	FadeDuration   float64
	MaxRetries     int
	RetryBackoff   time.Duration
	CallTimeout    time.Duration
}

// GetEncoderConfig flattens the video and retry settings for the ffmpeg
// adapters.
func GetEncoderConfig(cfg *Config) *EncoderConfig {
	return &EncoderConfig{
		Width:          cfg.Video.Width,
		Height:         cfg.Video.Height,
		FPS:            cfg.Video.FPS,
		CRF:            cfg.Video.CRF,
		Preset:         cfg.Video.Preset,
		AudioBitrate:   cfg.Video.AudioBitrate,
		SilencePadding: cfg.Video.Padding(),
		FadeDuration:   cfg.Video.Fade(),
		MaxRetries:     cfg.Pipeline.MaxRetries,
		RetryBackoff:   cfg.Pipeline.RetryBackoff(),
		CallTimeout:    cfg.Pipeline.CallTimeout(),
	}
}
