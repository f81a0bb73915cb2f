package model

import "time"

// Stats holds the running category counters for one project.
//
// Counters are commutative: totals are correct regardless of the order
// in which results complete. Serialization of concurrent updates is the
// checkpoint store's responsibility, not this type's.
type Stats struct {
	// Dofollow counts anchors found without a nofollow marker.
	Dofollow int `json:"dofollow"`

	// Nofollow counts anchors found with a nofollow marker.
	Nofollow int `json:"nofollow"`

	// Text counts bare text matches.
	Text int `json:"text"`

	// Errors counts failed tasks, including invalid donor URLs.
	Errors int `json:"errors"`

	// NotFound counts pages where no stage matched.
	NotFound int `json:"not_found"`

	// TotalProcessed counts every processed task, regardless of
	// category.
	TotalProcessed int `json:"total_processed"`
}

// Add records one result in the matching counter and increments the
// total.
func (s *Stats) Add(c Category) {
	s.TotalProcessed++
	switch c {
	case CategoryDofollow:
		s.Dofollow++
	case CategoryNofollow:
		s.Nofollow++
	case CategoryText:
		s.Text++
	case CategoryNotFound:
		s.NotFound++
	case CategoryError:
		s.Errors++
	}
}

// Consistent reports whether the total matches the sum of the category
// counters. This must hold at every durable checkpoint.
func (s Stats) Consistent() bool {
	return s.TotalProcessed == s.Dofollow+s.Nofollow+s.Text+s.Errors+s.NotFound
}

// ProjectState is the durable progress record for one project. It is
// owned exclusively by the checkpoint store and persisted so a run can
// be stopped and resumed without losing progress.
type ProjectState struct {
	// LastRow is the input row to resume from. See the crawl package
	// for the ordering caveats under concurrent completion.
	LastRow int `json:"last_row"`

	// Stats are the running category counters.
	Stats Stats `json:"stats"`

	// LastProcessed is the time of the most recent durable update.
	LastProcessed time.Time `json:"last_processed"`
}
