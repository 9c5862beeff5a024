package sheet

import "errors"

var (
	// ErrUnparsableFile is returned when the input cannot be read as a
	// table, including unsupported extensions.
	ErrUnparsableFile = errors.New("unparsable file")

	// ErrEmptyFile is returned when a file parses but holds no data rows.
	ErrEmptyFile = errors.New("file contains no data rows")

	// ErrExportFailure wraps every failure to serialize a dataset.
	ErrExportFailure = errors.New("export failed")
)
