package match

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/backcheck/backcheck/internal/model"
)

// Criteria is what to look for on a donor page. Empty fields disable
// their stage.
type Criteria struct {
	// TargetURL is matched as a substring of anchor hrefs (stage 1).
	TargetURL string

	// AnchorText is matched case-insensitively inside anchor texts and
	// then free text nodes (stage 2).
	AnchorText string

	// Domains are matched case-insensitively as substrings of anchor
	// hosts (stage 3).
	Domains []string
}

// Found describes a successful match.
type Found struct {
	// URL is the matched anchor's href, empty for bare text matches.
	URL string

	// LinkType is model.LinkTypeLink or model.LinkTypeText.
	LinkType string

	// FollowType is dofollow, nofollow, or text.
	FollowType string

	// AnchorText is the visible text of the matched element.
	AnchorText string

	// Status is the found_stageN status of the stage that hit.
	Status model.Status
}

// Page scans the document once and answers all three stages. The HTML
// parser never fails on malformed input, so Page returns an error only
// for truly unreadable content.
func Page(content string, criteria Criteria) (*Found, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	if target := strings.TrimSpace(criteria.TargetURL); target != "" {
		if found := findTargetURL(doc, target); found != nil {
			found.Status = model.StatusFoundStage1
			return found, nil
		}
	}

	if anchor := strings.TrimSpace(criteria.AnchorText); anchor != "" {
		if found := findAnchorText(doc, anchor); found != nil {
			found.Status = model.StatusFoundStage2
			return found, nil
		}
	}

	if len(criteria.Domains) > 0 {
		if found := findDomainLink(doc, criteria.Domains); found != nil {
			found.Status = model.StatusFoundStage3
			return found, nil
		}
	}

	return nil, nil
}

// findTargetURL looks for an anchor whose href contains target.
func findTargetURL(doc *html.Node, target string) *Found {
	for n := range doc.Descendants() {
		if !isAnchor(n) {
			continue
		}
		href := getAttr(n, "href")
		if href == "" || !strings.Contains(href, target) {
			continue
		}
		return &Found{
			URL:        href,
			LinkType:   model.LinkTypeLink,
			FollowType: followType(n),
			AnchorText: strings.TrimSpace(nodeText(n)),
		}
	}
	return nil
}

// findAnchorText looks for the anchor text inside anchors first, then
// in free text nodes. The anchor pass runs over the whole document
// before the text pass so a linked mention always beats a bare one.
func findAnchorText(doc *html.Node, anchor string) *Found {
	needle := strings.ToLower(anchor)

	for n := range doc.Descendants() {
		if !isAnchor(n) {
			continue
		}
		text := nodeText(n)
		if text == "" || !strings.Contains(strings.ToLower(text), needle) {
			continue
		}
		return &Found{
			URL:        getAttr(n, "href"),
			LinkType:   model.LinkTypeLink,
			FollowType: followType(n),
			AnchorText: strings.TrimSpace(text),
		}
	}

	for n := range doc.Descendants() {
		if n.Type != html.TextNode {
			continue
		}
		text := strings.TrimSpace(n.Data)
		if text == "" || !strings.Contains(strings.ToLower(n.Data), needle) {
			continue
		}
		return &Found{
			LinkType:   model.LinkTypeText,
			FollowType: model.FollowText,
			AnchorText: text,
		}
	}
	return nil
}

// findDomainLink looks for an anchor whose host contains any of the
// domains. Hrefs are normalized the minimal way: protocol-relative
// ones get http:, everything without a scheme is skipped because its
// host would be the donor's own.
func findDomainLink(doc *html.Node, domains []string) *Found {
	for n := range doc.Descendants() {
		if !isAnchor(n) {
			continue
		}
		href := getAttr(n, "href")
		if href == "" {
			continue
		}

		host := linkHost(href)
		if host == "" {
			continue
		}

		for _, domain := range domains {
			domain = strings.ToLower(strings.TrimSpace(domain))
			if domain == "" || !strings.Contains(host, domain) {
				continue
			}
			return &Found{
				URL:        href,
				LinkType:   model.LinkTypeLink,
				FollowType: followType(n),
				AnchorText: strings.TrimSpace(nodeText(n)),
			}
		}
	}
	return nil
}

// linkHost extracts the lowercased host of an absolute href.
func linkHost(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "http:" + href
	} else if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// followType classifies an anchor as dofollow or nofollow based on its
// rel attribute.
func followType(n *html.Node) string {
	rel := strings.ToLower(getAttr(n, "rel"))
	if strings.Contains(rel, "nofollow") {
		return model.FollowNofollow
	}
	return model.FollowDofollow
}

func isAnchor(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "a"
}

// getAttr returns the value of the named attribute, or empty.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}

// nodeText collects the visible text of a node's subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			sb.WriteString(d.Data)
		}
	}
	return sb.String()
}
