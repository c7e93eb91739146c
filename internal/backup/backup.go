// Package backup snapshots files before destructive writes. A snapshot
// is a timestamped copy under the data directory, so an overwrite can
// always be undone by hand.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/parleylabs/parley/internal/config"
)

// Dir returns the default snapshot directory under the data dir.
func Dir() (string, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "backups"), nil
}

// Save copies the file at path into dir under a timestamped name and
// returns the snapshot path. The source must exist; call it only for
// overwrites, not for new files.
func Save(dir, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	base := fmt.Sprintf("%s.%s", filepath.Base(path), time.Now().Format("20060102-150405"))
	dst := filepath.Join(dir, base)
	for n := 2; ; n++ {
		if _, err := os.Stat(dst); errors.Is(err, fs.ErrNotExist) {
			break
		}
		dst = filepath.Join(dir, fmt.Sprintf("%s-%d", base, n))
	}

	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}
