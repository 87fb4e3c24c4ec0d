package template

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// write persists a resolved prompt at its deterministic path. A byte-identical
// existing file is left untouched so repeated resolution is idempotent;
// differing content is replaced atomically via write-then-rename.
func (f *Filler) write(rp *ResolvedPrompt) error {
	if err := os.MkdirAll(filepath.Dir(rp.Path), dirPerm); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	data := []byte(rp.Content)
	if existing, err := os.ReadFile(rp.Path); err == nil && bytes.Equal(existing, data) { //#nosec G304 -- path is constructed internally
		f.logger.Debug().Str("path", rp.Path).Msg("resolved prompt unchanged, skipping write")
		return nil
	}

	if err := atomicWrite(rp.Path, data); err != nil {
		return fmt.Errorf("failed to write resolved prompt %s: %w", rp.Path, err)
	}

	f.logger.Debug().Str("path", rp.Path).Int("bytes", len(data)).Msg("wrote resolved prompt")
	return nil
}

// atomicWrite writes data to a file atomically using write-then-rename.
// Uses filePerm (0o600) for secure file permissions.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is constructed internally
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}

	// Sync to disk (ensure data is persisted before rename)
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}
