package patch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrConcurrentModification means the target changed on disk between the read
// and the rename, so the write was abandoned.
var ErrConcurrentModification = errors.New("file changed on disk while editing")

// fileState is what we remember about a file when we read it.
type fileState struct {
	mode    fs.FileMode
	size    int64
	modTime time.Time
	exists  bool
}

func statFile(path string) (fileState, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fileState{mode: 0644}, nil
	}
	if err != nil {
		return fileState{}, err
	}
	return fileState{
		mode:    info.Mode().Perm(),
		size:    info.Size(),
		modTime: info.ModTime(),
		exists:  true,
	}, nil
}

// readFile returns the content of path along with its state at read time.
func readFile(path string) ([]byte, fileState, error) {
	st, err := statFile(path)
	if err != nil {
		return nil, fileState{}, err
	}
	if !st.exists {
		return nil, st, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileState{}, err
	}
	return data, st, nil
}

// WriteNewFile creates path with data via a temp file in the same directory.
// The temp file is hard-linked to path, so a file that appeared in the
// meantime is never clobbered.
func WriteNewFile(path string, data []byte) error {
	return writeChecked(path, data, fileState{mode: 0644})
}

// writeChecked replaces path with data through a temp file and a rename, and
// removes the temp file on every failure path. A target expected not to exist
// is created with a link instead. If the target no longer matches
// expected, someone else edited it after we read it and nothing is written.
func writeChecked(path string, data []byte, expected fileState) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Chmod(expected.mode); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if !expected.exists {
		// Link fails with EEXIST instead of replacing.
		if err = os.Link(tmpPath, path); err != nil {
			if errors.Is(err, fs.ErrExist) {
				err = ErrConcurrentModification
				return err
			}
			return fmt.Errorf("failed to link temp file: %w", err)
		}
		os.Remove(tmpPath)
		return nil
	}

	current, err := statFile(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if current.exists != expected.exists ||
		current.size != expected.size ||
		!current.modTime.Equal(expected.modTime) {
		err = ErrConcurrentModification
		return err
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
