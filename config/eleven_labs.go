package config

import (
	"fmt"
	"os"
	"time"
)

const defaultElevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech"

type ElevenLabsConfig struct {
	ApiUrl          string
	ApiKey          string
	ModelId         string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	Style           float64
	UseSpeakerBoost bool
	MaxRetries      int
	RetryBackoff    time.Duration
	CallTimeout     time.Duration
}

// GetElevenLabsConfig builds the synthesizer configuration from the resolved
// file config plus the API secrets, which only ever come from the environment.
func GetElevenLabsConfig(cfg *Config) (*ElevenLabsConfig, error) {
	apiKey := os.Getenv("ELEVEN_LABS_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ELEVEN_LABS_API_KEY must be set")
	}

	apiUrl := os.Getenv("ELEVEN_LABS_API_URL")
	if apiUrl == "" {
		apiUrl = defaultElevenLabsURL
	}

	return &ElevenLabsConfig{
		ApiUrl:          apiUrl,
		ApiKey:          apiKey,
		ModelId:         cfg.Voice.ModelID,
		OutputFormat:    cfg.Voice.OutputFormat,
		Stability:       cfg.Voice.Stability,
		SimilarityBoost: cfg.Voice.SimilarityBoost,
		Style:           cfg.Voice.Style,
		UseSpeakerBoost: cfg.Voice.SpeakerBoost(),
		MaxRetries:      cfg.Pipeline.MaxRetries,
		RetryBackoff:    cfg.Pipeline.RetryBackoff(),
		CallTimeout:     cfg.Pipeline.CallTimeout(),
	}, nil
}
