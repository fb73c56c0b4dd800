package adapters

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	mockmedia "github.com/setegnworku/africa-rising-video/mock"
)

func TestSilenceSynthesizerSizesAudioToReadingTime(t *testing.T) {
	runner := mockmedia.NewRecordingRunner()
	runner.Handler = func(name string, args []string) (string, error) {
		out := args[len(args)-1]
		return "", os.WriteFile(out, []byte("silence"), 0o644)
	}

	synthesizer := NewSilenceSynthesizer(2.5, runner, mockmedia.NopLogger{})

	body, err := synthesizer.Synthesize(context.Background(), outbound.SynthesizeSpeechRequest{
		Slide: 1,
		Text:  "one two three four five six seven eight nine ten",
	})
	if err != nil {
		t.Fatal("Failed to synthesize silence:", err)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		t.Fatal("Failed to read:", err)
	}
	if string(payload) != "silence" {
		t.Errorf("payload = %q", payload)
	}

	invocations := runner.ByName("ffmpeg")
	if len(invocations) != 1 {
		t.Fatalf("ffmpeg invoked %d times", len(invocations))
	}
	args := strings.Join(invocations[0].Args, " ")
	if !strings.Contains(args, "anullsrc=r=44100:cl=mono") {
		t.Errorf("missing silence source: %s", args)
	}
	// Ten words at 2.5 words per second.
	if !strings.Contains(args, "-t 4.000") {
		t.Errorf("duration args wrong: %s", args)
	}

	// Closing removes the temp file.
	name := invocations[0].Args[len(invocations[0].Args)-1]
	if err := body.Close(); err != nil {
		t.Fatal("Failed to close:", err)
	}
	if _, err := os.Stat(name); !os.IsNotExist(err) {
		t.Errorf("temp file still present: %v", err)
	}
}

func TestSilenceSynthesizerMinimumDuration(t *testing.T) {
	runner := mockmedia.NewRecordingRunner()
	runner.Handler = func(name string, args []string) (string, error) {
		out := args[len(args)-1]
		return "", os.WriteFile(out, []byte("silence"), 0o644)
	}

	synthesizer := NewSilenceSynthesizer(2.5, runner, mockmedia.NopLogger{})

	body, err := synthesizer.Synthesize(context.Background(), outbound.SynthesizeSpeechRequest{Slide: 1, Text: "hi"})
	if err != nil {
		t.Fatal("Failed to synthesize silence:", err)
	}
	defer body.Close()

	args := strings.Join(runner.ByName("ffmpeg")[0].Args, " ")
	if !strings.Contains(args, "-t 1.000") {
		t.Errorf("short narration should clamp to the minimum: %s", args)
	}
}
