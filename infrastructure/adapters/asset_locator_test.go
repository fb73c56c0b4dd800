package adapters

import (
	"os"
	"path/filepath"
	"testing"

	mockmedia "github.com/setegnworku/africa-rising-video/mock"
)

func touchFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal("Failed to create file:", err)
		}
	}
}

func TestLocateSlides(t *testing.T) {
	dir := t.TempDir()
	touchFiles(t, dir,
		"slide1.png",
		"slide2.jpg",
		"Slide3.PNG",
		"slide04.jpeg",
		"notes.txt",
		"slide.png",
		"slide5.gif",
	)

	locator := NewWorkdirAssetLocator("script.txt", mockmedia.NopLogger{})

	slides, err := locator.LocateSlides(dir)
	if err != nil {
		t.Fatal("Failed to locate slides:", err)
	}

	if len(slides) != 4 {
		t.Fatalf("found %d slides, want 4: %v", len(slides), slides)
	}
	for _, index := range []int{1, 2, 3, 4} {
		if _, ok := slides[index]; !ok {
			t.Errorf("slide %d missing", index)
		}
	}
	if filepath.Base(slides[3]) != "Slide3.PNG" {
		t.Errorf("case-insensitive match failed: %q", slides[3])
	}
}

func TestLocateSlidesPrefersPngOnDuplicates(t *testing.T) {
	dir := t.TempDir()
	touchFiles(t, dir, "slide2.jpg", "slide2.png")

	locator := NewWorkdirAssetLocator("script.txt", mockmedia.NopLogger{})

	slides, err := locator.LocateSlides(dir)
	if err != nil {
		t.Fatal("Failed to locate slides:", err)
	}
	if filepath.Base(slides[2]) != "slide2.png" {
		t.Errorf("kept %q, want slide2.png", slides[2])
	}
}

func TestLocateScript(t *testing.T) {
	parent := t.TempDir()
	workDir := filepath.Join(parent, "assets")
	if err := os.Mkdir(workDir, 0o755); err != nil {
		t.Fatal("Failed to create work dir:", err)
	}

	locator := NewWorkdirAssetLocator("script.txt", mockmedia.NopLogger{})

	if _, err := locator.LocateScript(workDir); err == nil {
		t.Fatal("expected an error when the script is absent")
	}

	// Parent fallback.
	touchFiles(t, parent, "script.txt")
	got, err := locator.LocateScript(workDir)
	if err != nil {
		t.Fatal("Failed to locate script:", err)
	}
	if got != filepath.Join(parent, "script.txt") {
		t.Errorf("script path = %q", got)
	}

	// The work directory itself wins over the parent.
	touchFiles(t, workDir, "script.txt")
	got, err = locator.LocateScript(workDir)
	if err != nil {
		t.Fatal("Failed to locate script:", err)
	}
	if got != filepath.Join(workDir, "script.txt") {
		t.Errorf("script path = %q", got)
	}
}
