// Package report writes run artifacts: the semicolon-delimited CSV
// partitions produced at finalize time, and the Markdown statistics
// summary shown by the stats command.
package report
