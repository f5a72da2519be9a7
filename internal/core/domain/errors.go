package domain

import "errors"

var (
	// ErrInvalidConfig marks transform parameters that cannot produce valid output.
	ErrInvalidConfig = errors.New("invalid transform configuration")

	// ErrNotFound is returned by repositories when a dataset does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingColumns is returned when an input file lacks a required column.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrEmptyFile is returned when an input file has no data rows.
	ErrEmptyFile = errors.New("file has no data rows")

	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	ErrFileTooLarge = errors.New("file too large")
)

// ErrProjection is returned when a single point has no valid projection result.
var ErrProjection = errors.New("point cannot be projected")
