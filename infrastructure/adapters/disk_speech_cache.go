package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
	"github.com/setegnworku/africa-rising-video/domain"
)

const manifestName = "manifest.json"

type manifestEntry struct {
	File     string  `json:"file"`
	Duration float64 `json:"duration"`
}

// diskSpeechCache keeps synthesized narration on disk next to a JSON manifest
// recording each entry's measured duration. Entries survive restarts, which
// is what makes interrupted runs resumable.
type diskSpeechCache struct {
	dir    string
	reuse  bool
	logger outbound.LoggerPort

	mu      sync.Mutex
	entries map[string]manifestEntry
}

func NewDiskSpeechCache(dir string, reuse bool, logger outbound.LoggerPort) (outbound.SpeechCachePort, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	cache := &diskSpeechCache{
		dir:     dir,
		reuse:   reuse,
		logger:  logger,
		entries: make(map[string]manifestEntry),
	}
	cache.loadManifest()
	return cache, nil
}

func (c *diskSpeechCache) loadManifest() {
	data, err := os.ReadFile(filepath.Join(c.dir, manifestName))
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("Failed to read speech cache manifest, starting empty")
		}
		return
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.logger.Warn("Speech cache manifest is corrupt, starting empty")
		c.entries = make(map[string]manifestEntry)
	}
}

func (c *diskSpeechCache) Lookup(_ context.Context, slide int, fingerprint string) (domain.AudioArtifact, bool, error) {
	if !c.reuse {
		return domain.AudioArtifact{}, false, nil
	}

	key := cacheKey(slide, fingerprint)
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return domain.AudioArtifact{}, false, nil
	}

	path := filepath.Join(c.dir, entry.File)
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		c.logger.WarnWithFields("Dropping stale speech cache entry", map[string]interface{}{
			"slide": slide,
			"file":  entry.File,
		})
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return domain.AudioArtifact{}, false, nil
	}

	return domain.AudioArtifact{
		Path:        path,
		Duration:    entry.Duration,
		Fingerprint: fingerprint,
	}, true, nil
}

func (c *diskSpeechCache) Store(_ context.Context, slide int, artifact domain.AudioArtifact) error {
	info, err := os.Stat(artifact.Path)
	if err != nil {
		return fmt.Errorf("cache store for slide %d: %w", slide, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("cache store for slide %d: audio file is empty", slide)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(slide, artifact.Fingerprint)] = manifestEntry{
		File:     filepath.Base(artifact.Path),
		Duration: artifact.Duration,
	}
	return c.writeManifestLocked()
}

// writeManifestLocked persists after every store, so a crash loses at most
// the entry being written.
func (c *diskSpeechCache) writeManifestLocked() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache manifest: %w", err)
	}

	target := filepath.Join(c.dir, manifestName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache manifest: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace cache manifest: %w", err)
	}
	return nil
}

func (c *diskSpeechCache) AudioPath(slide int, fingerprint string) string {
	return filepath.Join(c.dir, fmt.Sprintf("slide%d_%s.mp3", slide, shortFingerprint(fingerprint)))
}

func cacheKey(slide int, fingerprint string) string {
	return fmt.Sprintf("%d:%s", slide, fingerprint)
}

func shortFingerprint(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
