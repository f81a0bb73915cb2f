package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeBody turns a raw response body into valid UTF-8 HTML.
//
// Donor servers misbehave in every way imaginable: truncated gzip,
// deflate bodies sent without the zlib wrapper, charsets declared only
// in meta tags, or bytes that match no declared charset at all. The
// chain therefore never fails: each step falls back to the previous
// representation, and the final result is repaired to valid UTF-8.
func DecodeBody(body []byte, contentEncoding, contentType string) string {
	decoded := decompress(body, contentEncoding)

	converted := convertToUTF8(decoded, detectCharset(contentType, decoded))

	return strings.ToValidUTF8(string(converted), "")
}

// decompress undoes the Content-Encoding. Corrupt streams fall back to
// the raw bytes, which for truncated gzip is often still parseable
// HTML up to the cut.
func decompress(body []byte, contentEncoding string) []byte {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return body
		}
		decoded, err := io.ReadAll(r)
		if err != nil && len(decoded) == 0 {
			return body
		}
		return decoded
	case "deflate":
		// RFC-conforming deflate is zlib-wrapped, but many servers send
		// raw flate streams. Try both.
		if r, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			if decoded, err := io.ReadAll(r); err == nil {
				return decoded
			}
		}
		if decoded, err := io.ReadAll(flate.NewReader(bytes.NewReader(body))); err == nil {
			return decoded
		}
		return body
	default:
		return body
	}
}

// detectCharset finds the page charset from the Content-Type header or
// the document's meta tags, defaulting to utf-8.
func detectCharset(contentType string, body []byte) string {
	if cs := charsetFromContentType(contentType); cs != "" {
		return cs
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err == nil {
		if cs := findMetaCharset(doc); cs != "" {
			return cs
		}
	}
	return "utf-8"
}

func charsetFromContentType(contentType string) string {
	for _, part := range strings.Split(contentType, ";") {
		part = strings.TrimSpace(strings.ToLower(part))
		if cs, ok := strings.CutPrefix(part, "charset="); ok {
			return strings.Trim(cs, "\"'")
		}
	}
	return ""
}

func findMetaCharset(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var httpEquiv, content, charsetAttr string
		for _, attr := range n.Attr {
			switch strings.ToLower(attr.Key) {
			case "http-equiv":
				httpEquiv = strings.ToLower(attr.Val)
			case "content":
				content = attr.Val
			case "charset":
				charsetAttr = attr.Val
			}
		}

		if charsetAttr != "" {
			return charsetAttr
		}
		if httpEquiv == "content-type" {
			if cs := charsetFromContentType(content); cs != "" {
				return cs
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cs := findMetaCharset(c); cs != "" {
			return cs
		}
	}
	return ""
}

// convertToUTF8 decodes body from the named charset. Unknown charsets
// and decode failures fall back to the original bytes.
func convertToUTF8(body []byte, charsetName string) []byte {
	charsetName = strings.ToLower(strings.TrimSpace(charsetName))
	if charsetName == "" || charsetName == "utf-8" || charsetName == "utf8" {
		return body
	}

	enc, err := htmlindex.Get(charsetName)
	if err != nil {
		return body
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}
