package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// SpoolPattern matches the temporary files Encode writes.
const SpoolPattern = "coughdx-*.wav"

// DefaultSpoolMaxAge is how old a spool file must be before CleanupSpool
// treats it as abandoned.
const DefaultSpoolMaxAge = time.Hour

// CleanupSpool removes spool files in dir older than maxAge. Encode deletes
// its own files, so anything left behind belongs to a process that died
// mid-encode. It returns the number of files removed and the bytes freed.
func CleanupSpool(dir string, maxAge time.Duration, now time.Time) (int, int64, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(dir, SpoolPattern))
	if err != nil {
		return 0, 0, err
	}

	var (
		removed int
		freed   int64
		errs    []error
	)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if info.IsDir() || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
		freed += info.Size()
	}
	return removed, freed, errors.Join(errs...)
}

// FormatBytes renders b with a binary unit suffix.
func FormatBytes(b int64) string {
	const (
		_          = iota
		KB float64 = 1 << (10 * iota)
		MB
		GB
	)

	fb := float64(b)
	switch {
	case fb >= GB:
		return fmt.Sprintf("%.2fGiB", fb/GB)
	case fb >= MB:
		return fmt.Sprintf("%.2fMiB", fb/MB)
	case fb >= KB:
		return fmt.Sprintf("%.2fKiB", fb/KB)
	default:
		return fmt.Sprintf("%dB", b)
	}
}
