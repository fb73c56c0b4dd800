package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Voice    VoiceConfig    `yaml:"voice"`
	Video    VideoConfig    `yaml:"video"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	Publish  PublishConfig  `yaml:"publish"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type PathsConfig struct {
	ScriptName string `yaml:"script_name"`
	OutputName string `yaml:"output_name"`
	CacheDir   string `yaml:"cache_dir"`
}

type VoiceConfig struct {
	VoiceID         string  `yaml:"voice_id"`
	ModelID         string  `yaml:"model_id"`
	OutputFormat    string  `yaml:"output_format"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	Style           float64 `yaml:"style"`
	UseSpeakerBoost *bool   `yaml:"use_speaker_boost"`
	WordsPerSecond  float64 `yaml:"words_per_second"`
}

func (v VoiceConfig) SpeakerBoost() bool {
	return v.UseSpeakerBoost == nil || *v.UseSpeakerBoost
}

type VideoConfig struct {
	Width          int      `yaml:"width"`
	Height         int      `yaml:"height"`
	FPS            int      `yaml:"fps"`
	CRF            int      `yaml:"crf"`
	Preset         string   `yaml:"preset"`
	AudioBitrate   string   `yaml:"audio_bitrate"`
	SilencePadding *float64 `yaml:"silence_padding"`
	FadeDuration   *float64 `yaml:"fade_duration"`
}

func (v VideoConfig) Padding() float64 {
	if v.SilencePadding == nil {
		return defaultSilencePadding
	}
	return *v.SilencePadding
}

func (v VideoConfig) Fade() float64 {
	if v.FadeDuration == nil {
		return defaultFadeDuration
	}
	return *v.FadeDuration
}

type PipelineConfig struct {
	FailureMode     string  `yaml:"failure_mode"`
	Workers         int     `yaml:"workers"`
	CallTimeoutSec  int     `yaml:"call_timeout_sec"`
	MaxRetries      int     `yaml:"max_retries"`
	RetryBackoffSec float64 `yaml:"retry_backoff_sec"`
	ReuseAudio      *bool   `yaml:"reuse_audio"`
	KeepScratch     bool    `yaml:"keep_scratch"`
}

func (p PipelineConfig) CallTimeout() time.Duration {
	return time.Duration(p.CallTimeoutSec) * time.Second
}

func (p PipelineConfig) RetryBackoff() time.Duration {
	return time.Duration(p.RetryBackoffSec * float64(time.Second))
}

func (p PipelineConfig) Reuse() bool {
	return p.ReuseAudio == nil || *p.ReuseAudio
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`
	JWKSURL string `yaml:"jwks_url"`
}

type PublishConfig struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

func (p PublishConfig) Enabled() bool {
	return p.Bucket != ""
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

const (
	defaultSilencePadding = 0.5
	defaultFadeDuration   = 0.5
)

// Load reads the YAML config at path and applies defaults. An empty path
// yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills unset fields with defaults and rejects values the pipeline
// cannot run with.
func (c *Config) Validate() error {
	if c.Paths.ScriptName == "" {
		c.Paths.ScriptName = "script.txt"
	}
	if c.Paths.OutputName == "" {
		c.Paths.OutputName = "final_video.mp4"
	}
	if c.Paths.CacheDir == "" {
		c.Paths.CacheDir = "narration_cache"
	}

	if c.Voice.VoiceID == "" {
		c.Voice.VoiceID = "pNInz6obpgDQGcFmaJgB"
	}
	if c.Voice.ModelID == "" {
		c.Voice.ModelID = "eleven_multilingual_v2"
	}
	if c.Voice.OutputFormat == "" {
		c.Voice.OutputFormat = "mp3_44100_128"
	}
	if c.Voice.Stability == 0 {
		c.Voice.Stability = 0.5
	}
	if c.Voice.SimilarityBoost == 0 {
		c.Voice.SimilarityBoost = 0.75
	}
	if c.Voice.WordsPerSecond <= 0 {
		c.Voice.WordsPerSecond = 2.5
	}

	if c.Video.Width <= 0 {
		c.Video.Width = 1920
	}
	if c.Video.Height <= 0 {
		c.Video.Height = 1080
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = 24
	}
	if c.Video.CRF == 0 {
		c.Video.CRF = 18
	}
	if c.Video.CRF < 0 || c.Video.CRF > 51 {
		return fmt.Errorf("video.crf must be between 0 and 51, got %d", c.Video.CRF)
	}
	if c.Video.Preset == "" {
		c.Video.Preset = "slow"
	}
	if c.Video.AudioBitrate == "" {
		c.Video.AudioBitrate = "192k"
	}
	if c.Video.SilencePadding != nil && *c.Video.SilencePadding < 0 {
		return fmt.Errorf("video.silence_padding must not be negative")
	}
	if c.Video.FadeDuration != nil && *c.Video.FadeDuration < 0 {
		return fmt.Errorf("video.fade_duration must not be negative")
	}

	if c.Pipeline.FailureMode == "" {
		c.Pipeline.FailureMode = "strict"
	}
	if c.Pipeline.FailureMode != "strict" && c.Pipeline.FailureMode != "best-effort" {
		return fmt.Errorf("pipeline.failure_mode must be strict or best-effort, got %q", c.Pipeline.FailureMode)
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 4
	}
	if c.Pipeline.CallTimeoutSec <= 0 {
		c.Pipeline.CallTimeoutSec = 120
	}
	if c.Pipeline.MaxRetries <= 0 {
		c.Pipeline.MaxRetries = 3
	}
	if c.Pipeline.RetryBackoffSec <= 0 {
		c.Pipeline.RetryBackoffSec = 2
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
