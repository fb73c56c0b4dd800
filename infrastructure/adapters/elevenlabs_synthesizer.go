package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/config"
	"github.com/setegnworku/africa-rising-video/domain"
)

type ElevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelId       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsSynthesizer struct {
	client           *http.Client
	elevenLabsConfig *config.ElevenLabsConfig
	logger           outbound.LoggerPort
}

func NewElevenLabsSynthesizer(elevenLabsConfig *config.ElevenLabsConfig, logger outbound.LoggerPort) outbound.SpeechSynthesizerPort {
	return &elevenLabsSynthesizer{
		client:           &http.Client{},
		elevenLabsConfig: elevenLabsConfig,
		logger:           logger,
	}
}

// Synthesize calls the ElevenLabs API with bounded retries. Timeouts, rate
// limits and server errors are retried with doubling backoff; authentication
// and request errors fail immediately.
func (s *elevenLabsSynthesizer) Synthesize(ctx context.Context, req outbound.SynthesizeSpeechRequest) (io.ReadCloser, error) {
	backoff := s.elevenLabsConfig.RetryBackoff
	var lastErr error

	for attempt := 1; attempt <= s.elevenLabsConfig.MaxRetries; attempt++ {
		if attempt > 1 {
			s.logger.WarnWithFields("Retrying speech synthesis", map[string]interface{}{
				"slide":   req.Slide,
				"attempt": attempt,
				"backoff": backoff.String(),
			})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, &domain.SynthesisError{Slide: req.Slide, Transient: true, Err: ctx.Err()}
			}
			backoff *= 2
		}

		body, err := s.attempt(ctx, req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if isPermanent(err) {
			s.logger.ErrorWithFields(err, "Speech synthesis failed permanently", map[string]interface{}{
				"slide": req.Slide,
			})
			return nil, &domain.SynthesisError{Slide: req.Slide, Transient: false, Err: err}
		}

		s.logger.WarnWithFields("Speech synthesis attempt failed", map[string]interface{}{
			"slide":   req.Slide,
			"attempt": attempt,
			"error":   err.Error(),
		})
	}

	return nil, &domain.SynthesisError{Slide: req.Slide, Transient: true, Err: lastErr}
}

func (s *elevenLabsSynthesizer) attempt(ctx context.Context, req outbound.SynthesizeSpeechRequest) (io.ReadCloser, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.elevenLabsConfig.CallTimeout)

	httpReq, err := s.getRequest(attemptCtx, req.Text, req.VoiceID)
	if err != nil {
		cancel()
		return nil, err
	}

	res, err := s.client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		defer cancel()
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		if closeErr := res.Body.Close(); closeErr != nil {
			s.logger.Error(closeErr, "Failed to close the response body")
		}
		return nil, &httpStatusError{Status: res.StatusCode, Message: strings.TrimSpace(string(payload))}
	}

	// The attempt context must stay alive until the caller has drained the
	// audio stream.
	return &cancelOnCloseReader{ReadCloser: res.Body, cancel: cancel}, nil
}

func (s *elevenLabsSynthesizer) getRequest(ctx context.Context, text string, voiceID string) (*http.Request, error) {
	reqBody := ElevenLabsRequest{
		Text:    text,
		ModelId: s.elevenLabsConfig.ModelId,
		VoiceSettings: VoiceSettings{
			Stability:       s.elevenLabsConfig.Stability,
			SimilarityBoost: s.elevenLabsConfig.SimilarityBoost,
			Style:           s.elevenLabsConfig.Style,
			UseSpeakerBoost: s.elevenLabsConfig.UseSpeakerBoost,
		},
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := s.elevenLabsConfig.ApiUrl + "/" + voiceID +
		"?output_format=" + url.QueryEscape(s.elevenLabsConfig.OutputFormat)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Add("Accept", "audio/mpeg")
	httpReq.Header.Add("xi-api-key", s.elevenLabsConfig.ApiKey)
	httpReq.Header.Add("Content-Type", "application/json")

	return httpReq, nil
}

type httpStatusError struct {
	Status  int
	Message string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP request returned non-OK status code %d: %s", e.Status, e.Message)
}

// isPermanent reports whether retrying cannot help: any client error except
// rate limiting and request timeouts.
func isPermanent(err error) bool {
	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	switch statusErr.Status {
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return false
	}
	return statusErr.Status >= 400 && statusErr.Status < 500
}

type cancelOnCloseReader struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnCloseReader) Close() error {
	defer r.cancel()
	return r.ReadCloser.Close()
}
