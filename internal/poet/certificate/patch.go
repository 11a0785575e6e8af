package certificate

import (
	"regexp"
	"strings"
)

// Patch replaces every occurrence of wildcard in text with value. A
// single-line value is a plain string replace; a multi-line value has its
// indentation re-derived from whatever preceded the wildcard on its own
// line, so a value substituted into an indented template keeps every
// continuation line aligned under the first.
func Patch(text, wildcard, value string) string {
	lines := strings.Split(value, "\n")
	if len(lines) == 1 {
		return strings.ReplaceAll(text, wildcard, value)
	}

	lineWithWildcard := regexp.MustCompile(`(?m)^(.*)` + regexp.QuoteMeta(wildcard))
	return lineWithWildcard.ReplaceAllStringFunc(text, func(match string) string {
		sub := lineWithWildcard.FindStringSubmatch(match)
		firstIndent := sub[1]
		followIndent := indentOf(firstIndent)

		var b strings.Builder
		b.WriteString(firstIndent)
		b.WriteString(lines[0])
		for _, l := range lines[1:] {
			b.WriteString("\n")
			b.WriteString(followIndent)
			b.WriteString(l)
		}
		return b.String()
	})
}

// indentOf turns the preceding-text capture into blank padding of the same
// width, preserving tabs so alignment survives mixed indentation.
func indentOf(prefix string) string {
	out := make([]rune, 0, len(prefix))
	for _, r := range prefix {
		if r == '\t' {
			out = append(out, '\t')
		} else {
			out = append(out, ' ')
		}
	}
	return string(out)
}

// ConditionalCutPatch removes every span of text between wildcardStart and
// wildcardEnd. When cut is true, every enclosed span (and both wildcards) is
// removed entirely and the first span's text is returned as the second
// result; when cut is false,
// only the wildcard markers are stripped and the enclosed text is kept in
// place.
func ConditionalCutPatch(text, wildcardStart, wildcardEnd string, cut bool) (string, string) {
	if !cut {
		text = strings.ReplaceAll(text, wildcardStart, "")
		text = strings.ReplaceAll(text, wildcardEnd, "")
		return text, ""
	}

	re := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(wildcardStart) + `(.*?)` + regexp.QuoteMeta(wildcardEnd))
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if locs == nil {
		return text, ""
	}
	cutText := text[locs[0][2]:locs[0][3]]
	return re.ReplaceAllString(text, ""), cutText
}
