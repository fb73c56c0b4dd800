package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
)

var slideImagePattern = regexp.MustCompile(`(?i)^slide(\d+)\.(png|jpg|jpeg)$`)

type workdirAssetLocator struct {
	scriptName string
	logger     outbound.LoggerPort
}

func NewWorkdirAssetLocator(scriptName string, logger outbound.LoggerPort) outbound.AssetLocatorPort {
	return &workdirAssetLocator{
		scriptName: scriptName,
		logger:     logger,
	}
}

func (l *workdirAssetLocator) LocateScript(workDir string) (string, error) {
	for _, dir := range []string{workDir, filepath.Dir(workDir)} {
		candidate := filepath.Join(dir, l.scriptName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("script %s not found in %s or its parent", l.scriptName, workDir)
}

func (l *workdirAssetLocator) LocateSlides(workDir string) (map[int]string, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, fmt.Errorf("read work dir: %w", err)
	}

	slides := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := slideImagePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}

		path := filepath.Join(workDir, entry.Name())
		existing, ok := slides[index]
		if !ok {
			slides[index] = path
			continue
		}

		// Duplicate index across extensions. ReadDir is name-sorted, so
		// preferring the better-ranked extension keeps this deterministic.
		if extRank(entry.Name()) < extRank(filepath.Base(existing)) {
			slides[index] = path
		}
		l.logger.WarnWithFields("Duplicate slide image", map[string]interface{}{
			"slide": index,
			"kept":  filepath.Base(slides[index]),
		})
	}

	return slides, nil
}

func extRank(name string) int {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return 0
	case ".jpg":
		return 1
	default:
		return 2
	}
}
