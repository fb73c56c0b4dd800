package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/setegnworku/africa-rising-video/application/ports/inbound"
	"github.com/setegnworku/africa-rising-video/domain"
)

type scriptParser struct {
	headerRegexp    *regexp.Regexp
	separatorRegexp *regexp.Regexp
	blankRunRegexp  *regexp.Regexp
}

// NewScriptParser builds the narration script parser. The expected grammar is
// a header line "SLIDE <n>" (case-insensitive, optional title after a dash or
// colon), narration body until the next header, with separator lines made of
// = or - and END OF SCRIPT / END OF NARRATION footers stripped.
func NewScriptParser() inbound.ScriptParserPort {
	return &scriptParser{
		headerRegexp:    regexp.MustCompile(`(?mi)^SLIDE\s+(\d+)\b(.*)$`),
		separatorRegexp: regexp.MustCompile(`^[=\-]{3,}$`),
		blankRunRegexp:  regexp.MustCompile(`\n{3,}`),
	}
}

func (s *scriptParser) Parse(script string) ([]domain.ScriptEntry, error) {
	matches := s.headerRegexp.FindAllStringSubmatchIndex(script, -1)
	if len(matches) == 0 {
		return nil, &domain.ParseError{Reason: "no SLIDE markers found"}
	}

	entries := make([]domain.ScriptEntry, 0, len(matches))
	for i, match := range matches {
		headerLine := s.lineAt(script, match[0])

		index, err := strconv.Atoi(script[match[2]:match[3]])
		if err != nil {
			return nil, &domain.ParseError{Line: headerLine, Reason: "invalid slide ordinal"}
		}
		if want := i + 1; index != want {
			return nil, &domain.ParseError{
				Line:   headerLine,
				Reason: fmt.Sprintf("slide headers must run 1..N in order, got SLIDE %d where SLIDE %d was expected", index, want),
			}
		}

		bodyEnd := len(script)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}

		body := s.cleanBody(script[match[1]:bodyEnd])
		if body == "" {
			return nil, &domain.ParseError{Line: headerLine, Reason: fmt.Sprintf("slide %d has no narration text", index)}
		}

		entries = append(entries, domain.ScriptEntry{
			Index: index,
			Title: s.headerTitle(script[match[4]:match[5]]),
			Text:  body,
		})
	}

	return entries, nil
}

// cleanBody strips separator lines and footer tokens, trims each line, and
// collapses runs of blank lines to a single paragraph break.
func (s *scriptParser) cleanBody(raw string) string {
	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if s.separatorRegexp.MatchString(stripped) {
			continue
		}
		if upper := strings.ToUpper(stripped); upper == "END OF SCRIPT" || upper == "END OF NARRATION" {
			continue
		}
		cleaned = append(cleaned, stripped)
	}

	body := strings.TrimSpace(strings.Join(cleaned, "\n"))
	return s.blankRunRegexp.ReplaceAllString(body, "\n\n")
}

func (s *scriptParser) headerTitle(rest string) string {
	return strings.TrimSpace(strings.TrimLeft(rest, " \t—–:-"))
}

func (s *scriptParser) lineAt(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}
