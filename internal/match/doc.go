// Package match inspects donor page HTML for references to a target.
//
// Matching runs in three stages of decreasing strictness: the target
// URL as an href substring, the anchor text in anchors or free text,
// and finally any configured domain in an anchor's host. The first
// stage that hits wins.
package match
