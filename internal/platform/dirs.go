// Package platform holds OS specific helpers: default folders and the file manager.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const DefaultDirPermissions = 0o755

// DefaultDownloadDir returns the user's Downloads folder.
func DefaultDownloadDir() (string, error) {
	if runtime.GOOS == "android" {
		return "/sdcard/Download", nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}

// EnsureDir creates dir with parents if it does not exist yet.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dir, DefaultDirPermissions)
	} else if err != nil {
		return err
	}
	return nil
}

// CheckWritableDir verifies that dir exists, is a directory and accepts new files.
func CheckWritableDir(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory is not accessible: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}
	tmp, err := os.CreateTemp(dir, ".mediagrab-write-check-*")
	if err != nil {
		return fmt.Errorf("output directory %q is not writable: %w", dir, err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(name)
	return nil
}

// ListFiles returns regular files directly inside dir, skipping yt-dlp leftovers.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || isPartialDownload(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func isPartialDownload(name string) bool {
	switch filepath.Ext(name) {
	case ".part", ".ytdl", ".temp":
		return true
	}
	return false
}
