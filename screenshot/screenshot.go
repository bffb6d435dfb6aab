// Package screenshot captures browser screenshots and manages the
// directory they accumulate in.
package screenshot

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/tebeka/selenium"

	"github.com/wanmail/webtest/logging"
)

const timestampLayout = "20060102_150405"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// CaptureToFile grabs a PNG screenshot and writes it under dir with a
// timestamped name derived from testName. Returns the written path.
func CaptureToFile(wd selenium.WebDriver, dir, testName string) (string, error) {
	png, err := wd.Screenshot()
	if err != nil {
		return "", errors.Wrap(err, "capturing screenshot")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating screenshot directory %s", dir)
	}
	name := unsafeChars.ReplaceAllString(testName, "_")
	path := filepath.Join(dir, name+"_"+time.Now().Format(timestampLayout)+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing screenshot %s", path)
	}
	return path, nil
}

// CaptureToBase64 grabs a screenshot and returns it base64-encoded, for
// embedding in reports without touching disk.
func CaptureToBase64(wd selenium.WebDriver) (string, error) {
	png, err := wd.Screenshot()
	if err != nil {
		return "", errors.Wrap(err, "capturing screenshot")
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// CleanupOlderThan deletes files under dir whose modification time is older
// than the retention window. Returns the number of files removed. A missing
// directory is not an error; there is simply nothing to prune.
func CleanupOlderThan(dir string, retention time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "reading screenshot directory %s", dir)
	}

	log := logging.New("screenshot")
	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Warn("failed to prune screenshot", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info("pruned old screenshots", "dir", dir, "count", removed)
	}
	return removed, nil
}
