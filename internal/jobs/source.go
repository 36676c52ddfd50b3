package jobs

import (
	"fmt"
	"os"
	"path/filepath"
)

// LatestInputFile returns the most recently modified file in dir matching
// the glob pattern. This is the only coupling to the upstream scraper: it
// drops timestamped JSON files into a known directory.
func LatestInputFile(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("globbing %s in %s: %w", pattern, dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no files matching %s found in %s", pattern, dir)
	}

	latest := ""
	var latestMod int64
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > latestMod {
			latest = match
			latestMod = mod
		}
	}

	if latest == "" {
		return "", fmt.Errorf("no readable files matching %s found in %s", pattern, dir)
	}

	return latest, nil
}
