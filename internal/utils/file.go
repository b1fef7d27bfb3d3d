package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrEmptyPath   = errors.New("filename cannot be empty")
	ErrNotRegular  = errors.New("path is a directory, not a file")
	ErrFileMissing = errors.New("file does not exist")
	ErrFileTooBig  = errors.New("file exceeds size limit")
)

// ValidateInputFile checks that filename names a readable regular file no
// larger than maxSize bytes. A maxSize of zero disables the size check.
func ValidateInputFile(filename string, maxSize int64) error {
	if filename == "" {
		return ErrEmptyPath
	}

	info, err := os.Stat(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileMissing, filename)
	case err != nil:
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	case info.IsDir():
		return fmt.Errorf("%w: %s", ErrNotRegular, filename)
	case maxSize > 0 && info.Size() > maxSize:
		return fmt.Errorf("%w: %s is %s, larger than the %s limit",
			ErrFileTooBig, filename, FormatFileSize(info.Size()), FormatFileSize(maxSize))
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	return f.Close()
}

// ValidateOutputFile makes sure the parent directory of filename exists.
// An empty filename means stdout and is always valid.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// GetFileExtension returns the extension without the dot, lowercased.
func GetFileExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// HasExtension reports whether filename ends in one of formats.
func HasExtension(filename string, formats []string) bool {
	return slices.Contains(formats, GetFileExtension(filename))
}

var sizeUnits = []string{"KB", "MB", "GB", "TB", "PB", "EB"}

// FormatFileSize renders size in binary units with one decimal, e.g. "1.5 KB".
func FormatFileSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size) / 1024
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}
