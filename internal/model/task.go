package model

// Task is one row of the input list: a donor page to fetch and the
// criteria to look for on it.
//
// Tasks are materialized once per run from the input list, starting at
// the configured start row, and are immutable after creation.
type Task struct {
	// Index is the ordinal position of the row in the input list.
	// It is reported back through the progress callback so callers can
	// track the last processed row.
	Index int

	// DonorURL is the page to fetch and inspect.
	DonorURL string

	// TargetURL is the URL searched for in anchor hrefs (stage 1).
	// Empty means stage 1 is skipped for this task.
	TargetURL string

	// AnchorText is the text searched for in anchors and free text
	// nodes (stage 2). Empty means stage 2 is skipped for this task.
	AnchorText string
}
