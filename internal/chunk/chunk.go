// Package chunk splits normalized text into bounded, overlapping,
// sentence-aware fragments sized for embedding requests.
package chunk

import (
	"regexp"
	"strings"
)

const (
	// DefaultMaxChars is the chunk size used when the caller passes zero.
	DefaultMaxChars = 3000
	// DefaultOverlap is the shared context between adjacent chunks.
	DefaultOverlap = 400
)

var whitespace = regexp.MustCompile(`\s+`)

// Normalize collapses every whitespace run to a single space and trims the
// ends. Chunking always operates on normalized text so that layout noise
// from extraction does not leak into the index.
func Normalize(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// Split breaks text into chunks of at most maxChars characters, preferring
// to cut just after a sentence terminator (". ", "? ", "! ") when the
// window holds one. Adjacent chunks share up to overlap characters of
// trailing context. Empty or whitespace-only input yields no chunks, and
// text at most maxChars long comes back as a single chunk. Character
// counts are rune counts, so multi-byte scripts chunk the same as ASCII.
func Split(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(Normalize(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= maxChars {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		window := runes[start:end]

		cut := lastSentenceEnd(window)
		if cut <= 0 || end == len(runes) {
			cut = len(window)
		}

		if c := strings.TrimSpace(string(window[:cut])); c != "" {
			chunks = append(chunks, c)
		}

		if end == len(runes) {
			break
		}

		// The overlap pulls the next window back for context, but the
		// start must always advance or a short cut would loop forever.
		next := start + cut - overlap
		if next <= start {
			step := cut / 2
			if step < 1 {
				step = 1
			}
			next = start + step
		}
		start = next
	}

	return dropRepeats(chunks)
}

// lastSentenceEnd returns the index one past the last sentence terminator
// that is followed by a space, or -1 when the window has none.
func lastSentenceEnd(window []rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		if window[i+1] != ' ' {
			continue
		}
		switch window[i] {
		case '.', '?', '!':
			return i + 1
		}
	}
	return -1
}

// dropRepeats removes consecutive duplicate chunks, which heavy overlap can
// produce near the end of the text.
func dropRepeats(chunks []string) []string {
	out := make([]string, 0, len(chunks))
	last := ""
	for _, c := range chunks {
		if c == last {
			continue
		}
		out = append(out, c)
		last = c
	}
	return out
}
