// Package crawl runs the verification itself: a bounded worker pool
// that fetches donor pages, matches them against the criteria, and
// reports every completion to the checkpoint store and the progress
// callback.
package crawl
