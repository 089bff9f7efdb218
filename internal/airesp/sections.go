// Package airesp extracts structure from free-text model responses.
package airesp

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zulandar/launchpad/internal/models"
)

// Confidence reports how sections were found.
type Confidence string

const (
	// ConfidenceStrict means explicit section markers were present.
	ConfidenceStrict Confidence = "strict"
	// ConfidenceHeuristic means sections were inferred from heading lines.
	ConfidenceHeuristic Confidence = "heuristic"
	// ConfidenceNone means nothing could be extracted.
	ConfidenceNone Confidence = "none"
)

// Sections maps PRD section names to their text. Sections that were not
// found are absent from Values.
type Sections struct {
	Values     map[string]string `json:"sections"`
	Confidence Confidence        `json:"confidence"`
}

// Get returns a section and whether it was found.
func (s Sections) Get(name string) (string, bool) {
	v, ok := s.Values[name]
	return v, ok
}

var (
	sectionRe = regexp.MustCompile(`(?s)\[SECTION:(\w+)\](.*?)\[/SECTION\]`)
	updatedRe = regexp.MustCompile(`(?s)\[UPDATED_SECTION:(\w+)\](.*?)\[/UPDATED_SECTION\]`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// headingKeywords is checked in order; the more specific entries come first
// so "UX 요구사항" is not read as a problem heading.
var headingKeywords = []struct {
	section  string
	keywords []string
}{
	{models.SectionUXRequirements, []string{"ux 요구사항", "ux requirements", "ux requirement", "ux"}},
	{models.SectionEdgeCases, []string{"엣지 케이스", "엣지케이스", "edge cases", "edge case", "예외"}},
	{models.SectionBackground, []string{"배경", "background"}},
	{models.SectionProblem, []string{"문제", "problem"}},
	{models.SectionSolution, []string{"해결방안", "해결 방안", "solution"}},
}

// maxHeadingRunes bounds a plain heading line with no markup.
const maxHeadingRunes = 40

var validSection = func() map[string]bool {
	m := make(map[string]bool, len(models.SectionNames))
	for _, n := range models.SectionNames {
		m[n] = true
	}
	return m
}()

// ExtractSections pulls PRD sections out of a response. Explicit
// [SECTION:x] or [UPDATED_SECTION:x] blocks win; otherwise heading lines are
// used. Unknown marker names are ignored.
func ExtractSections(text string) Sections {
	if values := extractMarked(text); len(values) > 0 {
		return Sections{Values: values, Confidence: ConfidenceStrict}
	}
	if values := extractByHeadings(text); len(values) > 0 {
		return Sections{Values: values, Confidence: ConfidenceHeuristic}
	}
	return Sections{Values: map[string]string{}, Confidence: ConfidenceNone}
}

func extractMarked(text string) map[string]string {
	values := make(map[string]string)
	for _, re := range []*regexp.Regexp{sectionRe, updatedRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := strings.ToLower(m[1])
			body := strings.TrimSpace(m[2])
			if !validSection[name] || body == "" {
				continue
			}
			values[name] = body
		}
	}
	return values
}

func extractByHeadings(text string) map[string]string {
	buffers := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if name, rest, ok := parseHeading(line); ok {
			current = name
			if rest != "" {
				buffers[current] = append(buffers[current], rest)
			}
			continue
		}
		if current == "" || strings.TrimSpace(line) == "" {
			continue
		}
		buffers[current] = append(buffers[current], strings.TrimRight(line, " \t"))
	}

	values := make(map[string]string, len(buffers))
	for name, lines := range buffers {
		if body := strings.TrimSpace(strings.Join(lines, "\n")); body != "" {
			values[name] = body
		}
	}
	return values
}

// parseHeading reports whether line introduces a section. Text after a colon
// on the heading line is returned as the section's first line.
func parseHeading(line string) (section, rest string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", "", false
	}

	marked := false
	if strings.HasPrefix(trimmed, "#") {
		marked = true
		trimmed = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	}
	if strings.HasPrefix(trimmed, "**") {
		marked = true
	}
	trimmed = strings.TrimSpace(strings.Trim(trimmed, "*"))
	trimmed = trimNumbering(trimmed)

	head := trimmed
	if i := strings.IndexAny(trimmed, ":："); i >= 0 {
		head = trimmed[:i]
		rest = strings.TrimSpace(strings.Trim(trimmed[i:], ":：* "))
		marked = true
	}
	head = strings.TrimSpace(strings.Trim(head, "*"))
	if head == "" || utf8.RuneCountInString(head) > maxHeadingRunes {
		return "", "", false
	}
	if !marked && utf8.RuneCountInString(trimmed) > maxHeadingRunes/2 {
		return "", "", false
	}

	lower := strings.ToLower(head)
	for _, h := range headingKeywords {
		for _, kw := range h.keywords {
			if containsWord(lower, kw) {
				return h.section, rest, true
			}
		}
	}
	return "", "", false
}

// containsWord matches kw in s. Latin keywords must not be part of a longer
// word, so "ux" does not match "luxury".
func containsWord(s, kw string) bool {
	idx := strings.Index(s, kw)
	if idx < 0 {
		return false
	}
	if !isASCIIWord(kw) {
		return true
	}
	for idx >= 0 {
		before := idx == 0 || !isLetter(s[idx-1])
		end := idx + len(kw)
		after := end >= len(s) || !isLetter(s[end])
		if before && after {
			return true
		}
		next := strings.Index(s[idx+1:], kw)
		if next < 0 {
			break
		}
		idx += next + 1
	}
	return false
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func trimNumbering(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// StripUpdatedSections removes every section marker block from a chat reply
// so only the conversational text remains.
func StripUpdatedSections(text string) string {
	text = updatedRe.ReplaceAllString(text, "")
	text = sectionRe.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
