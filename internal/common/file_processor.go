package common

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumegap/internal/errors"
	"resumegap/internal/utils"
)

// InputFile is a command argument read into memory.
type InputFile struct {
	Name string
	Data []byte
}

// Text returns the file content as a string.
func (f InputFile) Text() string {
	return string(f.Data)
}

// FileProcessor handles common file operations
type FileProcessor struct {
	logger          *errors.Logger
	maxSize         int64
	documentFormats []string
}

// NewFileProcessor creates a file processor. Files above maxSize bytes are
// rejected; zero means no limit. When documentFormats is non-empty, inputs
// with any other extension produce a warning.
func NewFileProcessor(logger *errors.Logger, maxSize int64, documentFormats []string) *FileProcessor {
	return &FileProcessor{logger: logger, maxSize: maxSize, documentFormats: documentFormats}
}

// ReadFile reads a whole file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates and reads multiple input files
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]InputFile, error) {
	files := make([]InputFile, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
			code := "INVALID_INPUT_FILE"
			switch {
			case stderrors.Is(err, utils.ErrFileMissing):
				code = errors.ErrCodeFileNotFound
			case stderrors.Is(err, utils.ErrFileTooBig):
				code = "FILE_TOO_LARGE"
			}
			return nil, errors.NewValidationError(code,
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if len(fp.documentFormats) > 0 && !utils.HasExtension(filename, fp.documentFormats) {
			if fp.logger != nil {
				fp.logger.Warn("File extension is not a supported document format",
					"filename", filename, "supported", fp.documentFormats)
			} else {
				fmt.Fprintf(os.Stderr, "Warning: %s is not one of %v\n", filename, fp.documentFormats)
			}
		}

		data, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		files[i] = InputFile{Name: filepath.Base(filename), Data: data}
	}

	return files, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
