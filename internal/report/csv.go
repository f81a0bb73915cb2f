package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/backcheck/backcheck/internal/model"
)

// CSVHeader is the column header of every report partition.
var CSVHeader = []string{"donor_url", "found_url", "link_type", "follow_type", "anchor_text"}

// WriteCSV writes results to path as a semicolon-delimited CSV with a
// header row. Semicolons survive Excel's locale-dependent import
// better than commas for URL-heavy data.
func WriteCSV(path string, results []model.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'

	if err := w.Write(CSVHeader); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, r := range results {
		record := []string{r.DonorURL, r.FoundURL, r.LinkType, r.FollowType, r.AnchorText}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return f.Close()
}

// reportTimeFormat stamps report file names, matching the chunk files.
const reportTimeFormat = "20060102_150405"

// PartitionFilePrefixes maps each category to its report file prefix.
// The full report additionally holds every result.
var PartitionFilePrefixes = map[model.Category]string{
	model.CategoryDofollow: "dofollow_links",
	model.CategoryNofollow: "nofollow_links",
	model.CategoryText:     "text_links",
	model.CategoryNotFound: "not_found",
}

// PartitionFileName names one category's report for a finalize pass.
// Names carry the finalize time and the running result total so a
// resumed project's later finalize never overwrites earlier reports.
func PartitionFileName(category model.Category, ts time.Time, total int) string {
	return fmt.Sprintf("%s_%s_%d.csv", PartitionFilePrefixes[category], ts.Format(reportTimeFormat), total)
}

// FullReportFileName names the unpartitioned report for a finalize
// pass, stamped the same way as the partition files.
func FullReportFileName(ts time.Time, total int) string {
	return fmt.Sprintf("full_report_%s_%d.csv", ts.Format(reportTimeFormat), total)
}

// Partition splits results into per-category slices using the fixed
// category precedence. Errors have no partition file of their own;
// they appear only in the full report and the counters.
func Partition(results []model.Result) map[model.Category][]model.Result {
	parts := make(map[model.Category][]model.Result)
	for _, r := range results {
		c := r.Category()
		parts[c] = append(parts[c], r)
	}
	return parts
}
