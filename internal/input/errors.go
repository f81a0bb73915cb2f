package input

import "errors"

var (
	// ErrUnsupportedFormat is returned for input files that are neither
	// .xlsx nor .csv.
	ErrUnsupportedFormat = errors.New("input: unsupported file format")

	// ErrEmptySheet is returned when the input file has no header row.
	ErrEmptySheet = errors.New("input: sheet has no header row")

	// ErrColumnNotFound is returned when a selected column name does not
	// appear in the header row.
	ErrColumnNotFound = errors.New("input: column not found")
)
