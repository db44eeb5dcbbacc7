package services

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

const (
	DefaultMaxSnippets = 3

	skillMarkOpen   = "<mark style='background: #90EE90'>"
	keywordMarkOpen = "<mark style='background: #FFFF99'>"
	markClose       = "</mark>"
)

var sentenceBoundary = regexp.MustCompile(`([.!?])\s+|\n+`)

// splitSentences breaks text at sentence punctuation followed by whitespace, or
// at newlines. Punctuation stays with the unit it ends.
func splitSentences(text string) []string {
	var units []string
	start := 0
	for _, m := range sentenceBoundary.FindAllStringSubmatchIndex(text, -1) {
		end := m[0]
		if m[2] >= 0 {
			end = m[3]
		}
		units = append(units, text[start:end])
		start = m[1]
	}
	return append(units, text[start:])
}

// ExtractSnippets returns up to max trimmed sentence units of text that contain
// any keyword, compared case-insensitively, in text order.
func ExtractSnippets(text string, keywords []string, max int) []string {
	snippets := []string{}
	needles := lowerNonEmpty(keywords)
	if strings.TrimSpace(text) == "" || len(needles) == 0 || max <= 0 {
		return snippets
	}

	for _, unit := range splitSentences(text) {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		lowered := strings.ToLower(unit)
		for _, needle := range needles {
			if strings.Contains(lowered, needle) {
				snippets = append(snippets, unit)
				break
			}
		}
		if len(snippets) >= max {
			break
		}
	}
	return snippets
}

// MatchedKeywords returns the keywords found in text, case-insensitively, in
// keyword order.
func MatchedKeywords(text string, keywords []string) []string {
	matched := []string{}
	lowered := strings.ToLower(text)
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(k)) {
			matched = append(matched, k)
		}
	}
	return matched
}

type markSpan struct {
	start, end int
	skill      bool
}

// Highlight wraps every case-insensitive occurrence of a keyword or skill in a
// <mark> element. Longer terms claim their spans first, so a term nested in a
// longer match is never wrapped on its own. Skills use a distinct colour.
func Highlight(text string, keywords, skills []string) string {
	skillSet := make(map[string]struct{}, len(skills))
	for _, s := range lowerNonEmpty(skills) {
		skillSet[s] = struct{}{}
	}

	terms := lowerNonEmpty(append(append([]string{}, keywords...), skills...))
	sort.SliceStable(terms, func(i, j int) bool {
		return len(terms[i]) > len(terms[j])
	})

	var spans []markSpan
	for _, term := range terms {
		_, skill := skillSet[term]
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if overlapsAny(spans, loc[0], loc[1]) {
				continue
			}
			spans = append(spans, markSpan{start: loc[0], end: loc[1], skill: skill})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var sb strings.Builder
	pos := 0
	for _, s := range spans {
		sb.WriteString(html.EscapeString(text[pos:s.start]))
		if s.skill {
			sb.WriteString(skillMarkOpen)
		} else {
			sb.WriteString(keywordMarkOpen)
		}
		sb.WriteString(html.EscapeString(text[s.start:s.end]))
		sb.WriteString(markClose)
		pos = s.end
	}
	sb.WriteString(html.EscapeString(text[pos:]))
	return sb.String()
}

var markupTag = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes tags and unescapes entities.
func StripMarkup(s string) string {
	return html.UnescapeString(markupTag.ReplaceAllString(s, ""))
}

func overlapsAny(spans []markSpan, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

// lowerNonEmpty lowercases, trims and deduplicates terms, keeping order.
func lowerNonEmpty(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
