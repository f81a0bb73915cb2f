// Package input loads donor task lists from spreadsheet files.
//
// Supported formats are .xlsx (via excelize) and .csv. Columns are
// selected by header name; the donor URL column is required while the
// target URL and anchor text columns are optional.
package input
