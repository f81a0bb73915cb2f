// Package main provides the entry point for the backcheck CLI.
//
// Backcheck verifies backlink placements: it takes a spreadsheet of
// donor pages, fetches each page, and checks whether it still links to
// the target URL, mentions the anchor text, or links to one of the
// configured domains.
//
// Usage:
//
//	backcheck check donors.xlsx --donor-column "Donor URL"
//	backcheck proxy fetch
//	backcheck stats donors.xlsx
//
// See --help for all available options.
package main

// main is the entry point for backcheck.
func main() {
	Execute()
}
