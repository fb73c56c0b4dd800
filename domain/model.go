package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

type ScriptEntry struct {
	Index int
	Title string
	Text  string
}

// SpeechText is the narration text with all whitespace runs collapsed to
// single spaces. Paragraph breaks are kept in Text for display but do not
// change what is sent to the synthesizer.
func (e ScriptEntry) SpeechText() string {
	return strings.Join(strings.Fields(e.Text), " ")
}

type VoiceSpec struct {
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// Fingerprint identifies a synthesized narration by everything that can
// change its audio. Two entries with the same fingerprint are interchangeable.
func Fingerprint(speechText string, voice VoiceSpec) string {
	h := sha256.New()
	for _, part := range []string{speechText, voice.VoiceID, voice.ModelID, voice.OutputFormat} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type AudioArtifact struct {
	Path        string
	Duration    float64
	Fingerprint string
}

type NarratedEntry struct {
	Entry     ScriptEntry
	Audio     AudioArtifact
	FromCache bool
}

type VideoSegment struct {
	Index          int
	ImagePath      string
	Audio          AudioArtifact
	FilePath       string
	OutputDuration float64
	AudioFromCache bool
}

type VideoSegmentsAscByIndex []VideoSegment

func (s VideoSegmentsAscByIndex) Len() int           { return len(s) }
func (s VideoSegmentsAscByIndex) Less(i, j int) bool { return s[i].Index < s[j].Index }
func (s VideoSegmentsAscByIndex) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

type AssembledVideo struct {
	Path      string
	Duration  float64
	SizeBytes int64
}

type FailureMode string

const (
	StrictMode     FailureMode = "strict"
	BestEffortMode FailureMode = "best-effort"
)

type RunState string

const (
	StateParsing          RunState = "parsing"
	StateLocatingAssets   RunState = "locating_assets"
	StateSynthesizing     RunState = "synthesizing"
	StateBuildingSegments RunState = "building_segments"
	StateAssembling       RunState = "assembling"
	StatePublishing       RunState = "publishing"
	StateDone             RunState = "done"
	StateFailed           RunState = "failed"
)

type Stage string

const (
	StageParse     Stage = "parse"
	StageAssets    Stage = "assets"
	StageSynthesis Stage = "synthesis"
	StageEncode    Stage = "encode"
	StageAssembly  Stage = "assembly"
	StagePublish   Stage = "publish"
)

type SlideFailure struct {
	Slide  int    `json:"slide"`
	Stage  Stage  `json:"stage"`
	Reason string `json:"reason"`
}

type RunReport struct {
	RunID           string         `json:"run_id"`
	State           RunState       `json:"state"`
	WorkDir         string         `json:"work_dir"`
	ScriptPath      string         `json:"script_path"`
	Entries         int            `json:"entries"`
	CacheHits       int            `json:"cache_hits"`
	Synthesized     int            `json:"synthesized"`
	SegmentsBuilt   int            `json:"segments_built"`
	Failures        []SlideFailure `json:"failures,omitempty"`
	OutputPath      string         `json:"output_path,omitempty"`
	OutputDuration  float64        `json:"output_duration,omitempty"`
	OutputSizeBytes int64          `json:"output_size_bytes,omitempty"`
	PublishedKey    string         `json:"published_key,omitempty"`
	PublishedRegion string         `json:"published_region,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
}

func (r RunReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type ProgressEvent struct {
	RunID   string   `json:"run_id"`
	State   RunState `json:"state"`
	Slide   int      `json:"slide,omitempty"`
	Stage   Stage    `json:"stage,omitempty"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// FormatClock renders a duration in seconds as HH:MM:SS.ss for run summaries.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600) - float64(m*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", h, m, s)
}
