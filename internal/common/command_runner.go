package common

import (
	"context"

	"resumegap/internal/errors"
)

// OperationFunc does the work of a file-based command.
type OperationFunc[Output any] func(ctx context.Context, files []InputFile) (Output, error)

// RunFileCommand reads args as input files, runs op on them and writes the
// formatted result. Inputs are validated against the limits in cmdConfig.
func RunFileCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	op OperationFunc[Output],
) error {
	fileProcessor := NewFileProcessor(logger, cmdConfig.MaxFileSize, cmdConfig.DocumentFormats)
	outputHandler := NewOutputHandler(logger)

	files, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	logger.Debug("Running command", "files", names, "format", cmdConfig.OutputFormat)

	result, err := op(ctx, files)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
