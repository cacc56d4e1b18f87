// Package writers holds the output sinks of an export: OBJ geometry, MTL
// material libraries, CSV tables, glTF scenes and JSON documents.
//
// Every sink buffers its content and writes it in one go with Write. When
// overwrite is false an existing file is left untouched.
package writers

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileExists reports whether path names an existing file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// writeFile creates path (and its parent directories) and fills it using fn.
// It reports whether the file was written.
func writeFile(path string, overwrite bool, fn func(w *bufio.Writer) error) (bool, error) {
	if !overwrite && FileExists(path) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, errors.Wrapf(err, "creating directory for %q", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return false, errors.Wrapf(err, "creating %q", path)
	}

	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return false, errors.Wrapf(err, "writing %q", path)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return false, errors.Wrapf(err, "flushing %q", path)
	}
	if err := f.Close(); err != nil {
		return false, errors.Wrapf(err, "closing %q", path)
	}
	return true, nil
}

// WriteBytes writes data to path, honouring overwrite like the other sinks.
func WriteBytes(path string, data []byte, overwrite bool) (bool, error) {
	return writeFile(path, overwrite, func(w *bufio.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
