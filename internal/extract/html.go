package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Elements whose subtrees carry chrome rather than content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"iframe":   true,
	"svg":      true,
}

// URL substrings that mark decorative images: favicons, logos, sprite
// sheets, and tracking pixels.
var decorativeImage = []string{"favicon", "icon-", "logo-", "sprite", "1x1", "pixel", "blank."}

// extractHTML walks the parsed document collecting visible text, the page
// title, and content image candidates with their URLs resolved against
// baseURL.
func extractHTML(data []byte, baseURL string) (*Content, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	var base *url.URL
	if baseURL != "" {
		base, _ = url.Parse(baseURL)
	}

	content := &Content{}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			switch n.Data {
			case "title":
				if content.Title == "" {
					content.Title = strings.TrimSpace(nodeText(n))
				}
				return
			case "img":
				if u := imageURL(n, base); u != "" {
					content.Images = append(content.Images, Image{URL: u, Position: len(content.Images)})
				}
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	content.Text = sb.String()
	return content, nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// imageURL picks the best source for an img element and filters out images
// that cannot carry content. Preference order is the first srcset entry,
// then src, then the common lazy-loading attributes. Inline data URLs,
// decorative names, and images declared smaller than 30px are dropped.
func imageURL(n *html.Node, base *url.URL) string {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}

	src := firstSrcsetEntry(attrs["srcset"])
	for _, key := range []string{"src", "data-src", "data-lazy-src"} {
		if src != "" {
			break
		}
		src = strings.TrimSpace(attrs[key])
	}
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}

	if base != nil {
		if ref, err := url.Parse(src); err == nil {
			src = base.ResolveReference(ref).String()
		}
	}

	lower := strings.ToLower(src)
	for _, marker := range decorativeImage {
		if strings.Contains(lower, marker) {
			return ""
		}
	}
	if declaredTooSmall(attrs) {
		return ""
	}
	return src
}

func firstSrcsetEntry(srcset string) string {
	if srcset == "" {
		return ""
	}
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// declaredTooSmall reports images whose width and height attributes are
// both present and either falls under 30px. Missing or unparsable
// dimensions never disqualify an image.
func declaredTooSmall(attrs map[string]string) bool {
	w, okW := parsePixels(attrs["width"])
	h, okH := parsePixels(attrs["height"])
	return okW && okH && (w < 30 || h < 30)
}

func parsePixels(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
