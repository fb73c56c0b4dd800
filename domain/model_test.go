package domain

import (
	"sort"
	"testing"
)

func TestSpeechTextCollapsesWhitespace(t *testing.T) {
	entry := ScriptEntry{
		Index: 1,
		Text:  "Welcome to the\n\nAfrica Rising   overview.\n\tLet's begin.",
	}

	got := entry.SpeechText()
	want := "Welcome to the Africa Rising overview. Let's begin."
	if got != want {
		t.Fatalf("SpeechText() = %q, want %q", got, want)
	}
}

func TestFingerprintStableAcrossParagraphLayout(t *testing.T) {
	voice := VoiceSpec{VoiceID: "voice-a", ModelID: "model-a", OutputFormat: "mp3_44100_128"}

	a := ScriptEntry{Text: "First line.\n\nSecond line."}
	b := ScriptEntry{Text: "First line.\nSecond line."}

	if Fingerprint(a.SpeechText(), voice) != Fingerprint(b.SpeechText(), voice) {
		t.Fatal("fingerprint changed for a layout-only edit")
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := VoiceSpec{VoiceID: "voice-a", ModelID: "model-a", OutputFormat: "mp3_44100_128"}
	ref := Fingerprint("hello world", base)

	tests := []struct {
		name  string
		text  string
		voice VoiceSpec
	}{
		{"text change", "hello there", base},
		{"voice change", "hello world", VoiceSpec{VoiceID: "voice-b", ModelID: base.ModelID, OutputFormat: base.OutputFormat}},
		{"model change", "hello world", VoiceSpec{VoiceID: base.VoiceID, ModelID: "model-b", OutputFormat: base.OutputFormat}},
		{"format change", "hello world", VoiceSpec{VoiceID: base.VoiceID, ModelID: base.ModelID, OutputFormat: "pcm_16000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Fingerprint(tt.text, tt.voice) == ref {
				t.Fatal("fingerprint did not change")
			}
		})
	}
}

func TestVideoSegmentsSortByIndex(t *testing.T) {
	segments := []VideoSegment{{Index: 3}, {Index: 1}, {Index: 2}}

	sort.Sort(VideoSegmentsAscByIndex(segments))

	for i, segment := range segments {
		if segment.Index != i+1 {
			t.Fatalf("position %d holds slide %d", i, segment.Index)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00.00"},
		{61.5, "00:01:01.50"},
		{3725.25, "01:02:05.25"},
		{-3, "00:00:00.00"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Fatalf("FormatClock(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
