package answer

import (
	"regexp"
	"strings"
)

// Completion cleanup. Models return markdown and run list items together
// on one line; widget consumers render plain text, so markers are stripped
// and list items are put on their own lines.
var (
	codeFence  = regexp.MustCompile("(?m)^```[a-zA-Z0-9]*[ \t]*$\n?")
	heading    = regexp.MustCompile(`(?m)^#{1,6} +`)
	boldText   = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italicText = regexp.MustCompile(`\*([^*\n]+)\*`)
	underText  = regexp.MustCompile(`__([^_\n]+)__`)
	citation   = regexp.MustCompile(`\[\d+\]`)
	htmlTag    = regexp.MustCompile(`</?[a-zA-Z][^>\n]*>`)

	// A bullet or numbered item mid-line starts a new line. The numbered
	// variant requires a leading space so decimals like 3.5 survive.
	midlineBullet = regexp.MustCompile(`([^\n]) *([•●○◦]) `)
	midlineNumber = regexp.MustCompile(`([^\n]) (\d+\.) `)

	bulletSpacing = regexp.MustCompile(`(?m)^([•●○◦]) {2,}`)
	numberSpacing = regexp.MustCompile(`(?m)^(\d+\.) {2,}`)

	blankLines = regexp.MustCompile(`\n{3,}`)

	leadIn = regexp.MustCompile(`(?i)^(based on|according to) (the )?(provided |given |available )?(context|documents|information)[,:]? ?`)
)

// Clean normalizes a raw completion for plain-text display.
func Clean(text string) string {
	text = codeFence.ReplaceAllString(text, "")
	text = heading.ReplaceAllString(text, "")
	text = boldText.ReplaceAllString(text, "$1")
	text = underText.ReplaceAllString(text, "$1")
	text = italicText.ReplaceAllString(text, "$1")
	text = citation.ReplaceAllString(text, "")
	text = htmlTag.ReplaceAllString(text, "")

	text = midlineBullet.ReplaceAllString(text, "$1\n$2 ")
	text = midlineNumber.ReplaceAllString(text, "$1\n$2 ")
	text = bulletSpacing.ReplaceAllString(text, "$1 ")
	text = numberSpacing.ReplaceAllString(text, "$1 ")

	text = blankLines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if stripped := leadIn.ReplaceAllString(text, ""); stripped != text {
		// Stripping the lead-in leaves the sentence starting lowercase.
		if r := []rune(stripped); len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] = r[0] - 'a' + 'A'
			stripped = string(r)
		}
		text = stripped
	}
	return strings.TrimSpace(text)
}
