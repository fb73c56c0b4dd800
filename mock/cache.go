package mockmedia

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/setegnworku/africa-rising-video/domain"
)

// MemorySpeechCache is an in-memory speech cache with call counters.
type MemorySpeechCache struct {
	mu      sync.Mutex
	dir     string
	items   map[string]domain.AudioArtifact
	lookups int
	hits    int
}

func NewMemorySpeechCache(dir string) *MemorySpeechCache {
	return &MemorySpeechCache{
		dir:   dir,
		items: make(map[string]domain.AudioArtifact),
	}
}

func (c *MemorySpeechCache) Seed(slide int, artifact domain.AudioArtifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[cacheKey(slide, artifact.Fingerprint)] = artifact
}

func (c *MemorySpeechCache) Lookup(_ context.Context, slide int, fingerprint string) (domain.AudioArtifact, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	artifact, ok := c.items[cacheKey(slide, fingerprint)]
	if ok {
		c.hits++
	}
	return artifact, ok, nil
}

func (c *MemorySpeechCache) Store(_ context.Context, slide int, artifact domain.AudioArtifact) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[cacheKey(slide, artifact.Fingerprint)] = artifact
	return nil
}

func (c *MemorySpeechCache) AudioPath(slide int, fingerprint string) string {
	short := fingerprint
	if len(short) > 12 {
		short = short[:12]
	}
	return filepath.Join(c.dir, fmt.Sprintf("slide%d_%s.mp3", slide, short))
}

func (c *MemorySpeechCache) Lookups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups
}

func (c *MemorySpeechCache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func (c *MemorySpeechCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func cacheKey(slide int, fingerprint string) string {
	return fmt.Sprintf("%d:%s", slide, fingerprint)
}
