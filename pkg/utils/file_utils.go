package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TempPrefix marks in-flight files created by WriteFileAtomic.
const TempPrefix = ".tmp-"

// WriteFileAtomic streams r into dir/name through a temporary file in the same
// directory, so readers never observe a partially written file.
func WriteFileAtomic(dir, name string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0644)
	}
	if err == nil {
		err = os.Rename(tmpName, filepath.Join(dir, name))
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("write %s: %w", name, err)
	}

	return n, nil
}
