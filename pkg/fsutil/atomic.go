package fsutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileMode is the default permission mode for newly created files.
const DefaultFileMode os.FileMode = 0644

// DefaultDirMode is the permission mode for created destination directories.
const DefaultDirMode os.FileMode = 0755

// WriteAtomic writes content to path atomically using a temp file and rename.
// Missing parent directories are created. If mode is 0, DefaultFileMode is used.
//
// The atomic write pattern:
//  1. Create a temp file in the same directory as the target.
//  2. Write all content to the temp file and sync it.
//  3. Set the file mode.
//  4. Rename the temp file to the target path (atomic on POSIX).
//
// On error, the temp file is cleaned up and the original file remains untouched.
// Every failure wraps ErrNotWritable.
func WriteAtomic(ctx context.Context, path string, content []byte, mode os.FileMode) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("write atomic: %w", ctx.Err())
	default:
	}

	if mode == 0 {
		mode = DefaultFileMode
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %s: create directory: %w", ErrNotWritable, path, err)
	}

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: %s: create temp file: %w", ErrNotWritable, path, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("%w: %s: write temp file: %w", ErrNotWritable, path, err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %s: sync temp file: %w", ErrNotWritable, path, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: close temp file: %w", ErrNotWritable, path, err)
	}

	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("%w: %s: chmod temp file: %w", ErrNotWritable, path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: %s: rename temp file: %w", ErrNotWritable, path, err)
	}

	success = true
	return nil
}

// WriteAtomicIfChanged writes content to path atomically only if the content differs.
// Returns true if the file was written, false if it was unchanged.
func WriteAtomicIfChanged(ctx context.Context, path string, content []byte, mode os.FileMode) (bool, error) {
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("write atomic: %w", ctx.Err())
	default:
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		info, statErr := os.Stat(path)
		if statErr == nil && info.IsDir() {
			return false, fmt.Errorf("%w: %s: %w", ErrNotWritable, path, ErrIsDirectory)
		}
		return false, fmt.Errorf("%w: %s: read existing: %w", ErrNotWritable, path, err)
	}

	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}

	if err := WriteAtomic(ctx, path, content, mode); err != nil {
		return false, err
	}
	return true, nil
}
