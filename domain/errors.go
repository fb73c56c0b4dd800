package domain

import (
	"errors"
	"fmt"
)

// ParseError reports a malformed narration script. The run cannot proceed.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("script parse error at line %d: %s", e.Line, e.Reason)
	}
	return "script parse error: " + e.Reason
}

// MissingAssetError reports a narration entry with no matching slide image.
type MissingAssetError struct {
	Slide int
	Path  string
}

func (e *MissingAssetError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("no slide image for narration %d", e.Slide)
	}
	return fmt.Sprintf("no slide image for narration %d (expected %s)", e.Slide, e.Path)
}

// SynthesisError reports a failed speech synthesis for one slide. Transient
// failures were already retried before this error was produced.
type SynthesisError struct {
	Slide     int
	Transient bool
	Err       error
}

func (e *SynthesisError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("synthesis failed for slide %d (%s): %v", e.Slide, kind, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

type EncodeError struct {
	Slide int
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("segment encode failed for slide %d: %v", e.Slide, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("video assembly failed: %v", e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

func IsTransient(err error) bool {
	var se *SynthesisError
	return errors.As(err, &se) && se.Transient
}

// AsSlideFailure maps an error to the slide it belongs to. Errors that carry
// no slide attribution are fatal to the whole run and return false.
func AsSlideFailure(err error) (SlideFailure, bool) {
	var (
		missingErr *MissingAssetError
		synthErr   *SynthesisError
		encodeErr  *EncodeError
	)
	switch {
	case errors.As(err, &missingErr):
		return SlideFailure{Slide: missingErr.Slide, Stage: StageAssets, Reason: err.Error()}, true
	case errors.As(err, &synthErr):
		return SlideFailure{Slide: synthErr.Slide, Stage: StageSynthesis, Reason: err.Error()}, true
	case errors.As(err, &encodeErr):
		return SlideFailure{Slide: encodeErr.Slide, Stage: StageEncode, Reason: err.Error()}, true
	}
	return SlideFailure{}, false
}
