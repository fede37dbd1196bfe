package discord

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MessageLimit is Discord's per-message character cap.
const MessageLimit = 2000

// minSectionLen filters degenerate poster sections: text this short
// with no poster is a bare header not worth its own message.
const minSectionLen = 50

// posterPattern matches the inline poster directive emitted by the
// tool layer. It is a private wire convention and must never reach the
// user as literal text.
var posterPattern = regexp.MustCompile(`\[POSTER:(https?://[^\]\s]+)\]`)

// Section is one renderable unit of agent output: a block of text,
// optionally paired with a poster image.
type Section struct {
	Text      string
	PosterURL string
}

// ParseSections splits agent output on poster directives. Each section
// is the text preceding a directive paired with that directive's URL;
// trailing text after the last directive forms a posterless section.
// With zero or one directive the whole text stays a single section.
// Posterless sections shorter than minSectionLen are dropped.
func ParseSections(text string) []Section {
	matches := posterPattern.FindAllStringSubmatchIndex(text, -1)

	if len(matches) <= 1 {
		url := ""
		if len(matches) == 1 {
			url = text[matches[0][2]:matches[0][3]]
		}
		clean := strings.TrimSpace(posterPattern.ReplaceAllString(text, ""))
		if clean == "" && url == "" {
			return nil
		}
		return []Section{{Text: clean, PosterURL: url}}
	}

	var sections []Section
	prev := 0
	for _, m := range matches {
		section := Section{
			Text:      strings.TrimSpace(text[prev:m[0]]),
			PosterURL: text[m[2]:m[3]],
		}
		sections = append(sections, section)
		prev = m[1]
	}
	if trailing := strings.TrimSpace(text[prev:]); trailing != "" {
		sections = append(sections, Section{Text: trailing})
	}

	filtered := sections[:0]
	for _, s := range sections {
		if s.PosterURL == "" && len(s.Text) < minSectionLen {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

// ChunkMessage splits text into pieces of at most limit characters.
// Break points prefer a trailing newline, then a trailing space, then a
// hard cut; a newline or space break is only taken when it is not
// unreasonably early in the window (past the halfway point), so a
// single stray separator cannot produce a tiny fragment.
func ChunkMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MessageLimit
	}
	if len(text) <= limit {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		window := text[:limit]
		cut, sep := limit, 0

		if i := strings.LastIndexByte(window, '\n'); i >= limit/2 {
			cut, sep = i, 1
		} else if i := strings.LastIndexByte(window, ' '); i >= limit/2 {
			cut, sep = i, 1
		} else {
			// Hard cut must not split a multi-byte rune.
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}

		chunks = append(chunks, text[:cut])
		text = text[cut+sep:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// runeCut slices s to at most n bytes without splitting a multi-byte
// rune at the boundary.
func runeCut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
