package input

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/backcheck/backcheck/internal/model"
)

// Sheet is a loaded spreadsheet: a header row and the data rows below
// it. Rows may be ragged; missing trailing cells read as empty.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// LoadSheet reads the spreadsheet at path. The format is chosen by
// file extension: .xlsx is read with excelize (first sheet only), .csv
// with encoding/csv. The delimiter for CSV files is sniffed from the
// header line, accepting both comma and semicolon.
func LoadSheet(path string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadXLSX(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadXLSX(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return &Sheet{Header: rows[0], Rows: rows[1:]}, nil
}

func loadCSV(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 4096)
	n, _ := f.Read(head)
	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("rewind csv file: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if firstLine, _, _ := strings.Cut(string(head[:n]), "\n"); strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		r.Comma = ';'
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptySheet
	}
	return &Sheet{Header: records[0], Rows: records[1:]}, nil
}

// Column returns the values of the named column, in row order, with
// empty cells dropped. Dropping happens per column, so the returned
// slice may be shorter than the number of rows.
func (s *Sheet) Column(name string) ([]string, error) {
	idx := -1
	for i, h := range s.Header {
		if strings.TrimSpace(h) == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}

	values := make([]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		if idx >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[idx])
		if v == "" {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

// Tasks pairs the column values into an ordered task list starting at
// startRow. The donor column drives the length; target and anchor
// values are taken by position when present. Because empty cells were
// dropped per column, a shorter target or anchor column simply stops
// supplying values.
func Tasks(donors, targets, anchors []string, startRow int) []model.Task {
	if startRow < 0 {
		startRow = 0
	}
	if startRow > len(donors) {
		startRow = len(donors)
	}

	tasks := make([]model.Task, 0, len(donors)-startRow)
	for i := startRow; i < len(donors); i++ {
		task := model.Task{Index: i, DonorURL: donors[i]}
		if i < len(targets) {
			task.TargetURL = targets[i]
		}
		if i < len(anchors) {
			task.AnchorText = anchors[i]
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// Domains extracts the unique hosts of the given target URLs, sorted
// and lowercased. URLs that do not parse or have no host are skipped.
func Domains(targets []string) []string {
	seen := make(map[string]bool, len(targets))
	for _, raw := range targets {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Host)
		if host != "" {
			seen[host] = true
		}
	}

	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
