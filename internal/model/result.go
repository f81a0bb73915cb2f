package model

// Status describes how a task finished.
type Status string

// Task completion statuses. The found_stageN statuses record which
// match stage produced the hit.
const (
	// StatusFoundStage1 means the target URL was found in an anchor href.
	StatusFoundStage1 Status = "found_stage1"

	// StatusFoundStage2 means the anchor text was found in an anchor or
	// a free text node.
	StatusFoundStage2 Status = "found_stage2"

	// StatusFoundStage3 means a configured domain was found in an
	// anchor's host.
	StatusFoundStage3 Status = "found_stage3"

	// StatusNotFound means the page was fetched but no stage matched.
	StatusNotFound Status = "not_found"

	// StatusInvalidURL means the donor URL was empty or unusable.
	// No fetch is attempted for such tasks.
	StatusInvalidURL Status = "invalid_url"

	// StatusError means every fetch attempt failed or the task could
	// not be processed.
	StatusError Status = "error"

	// StatusStopped means the run was cooperatively stopped before the
	// task was processed.
	StatusStopped Status = "stopped"
)

// Link types for a found reference.
const (
	// LinkTypeLink means the reference is an anchor element.
	LinkTypeLink = "link"

	// LinkTypeText means the reference is a bare text occurrence with
	// no surrounding anchor.
	LinkTypeText = "text"
)

// Follow types for a found reference.
const (
	// FollowDofollow means the anchor carries no rel="nofollow" marker.
	FollowDofollow = "dofollow"

	// FollowNofollow means the anchor's rel attribute contains nofollow.
	FollowNofollow = "nofollow"

	// FollowText is used for bare text matches, which have no follow
	// semantics.
	FollowText = "text"
)

// Result is the outcome of processing one donor page. It is immutable
// once produced; the checkpoint store buffers it and eventually flushes
// it into exactly one report partition.
type Result struct {
	// DonorURL is the page that was inspected.
	DonorURL string `json:"donor_url"`

	// FoundURL is the href of the matched anchor, or empty for text
	// matches and non-matches.
	FoundURL string `json:"found_url"`

	// LinkType is "link", "text", or empty when nothing was found.
	LinkType string `json:"link_type"`

	// FollowType is "dofollow", "nofollow", "text", or empty.
	FollowType string `json:"follow_type"`

	// AnchorText is the visible text of the matched element.
	AnchorText string `json:"anchor_text"`

	// Status records how the task finished.
	Status Status `json:"status"`
}

// Category is the report partition a result belongs to.
type Category string

// Report partitions. Every result falls into exactly one.
const (
	CategoryDofollow Category = "dofollow"
	CategoryNofollow Category = "nofollow"
	CategoryText     Category = "text"
	CategoryNotFound Category = "not_found"
	CategoryError    Category = "errors"
)

// Category classifies the result for statistics and report
// partitioning. The precedence is fixed: not_found first, then text
// matches, then follow type, then everything else as an error. The
// final fallback keeps the total-processed invariant intact for
// statuses like invalid_url, which carry no link or follow type.
func (r Result) Category() Category {
	switch {
	case r.Status == StatusNotFound:
		return CategoryNotFound
	case r.LinkType == LinkTypeText:
		return CategoryText
	case r.FollowType == FollowDofollow:
		return CategoryDofollow
	case r.FollowType == FollowNofollow:
		return CategoryNofollow
	default:
		return CategoryError
	}
}

// Found reports whether the result represents a successful match.
func (r Result) Found() bool {
	switch r.Status {
	case StatusFoundStage1, StatusFoundStage2, StatusFoundStage3:
		return true
	default:
		return false
	}
}
