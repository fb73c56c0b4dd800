package inbound

import "github.com/setegnworku/africa-rising-video/domain"

// ScriptParserPort turns a narration script into ordered slide entries.
// Parsing is pure: same input, same entries.
type ScriptParserPort interface {
	Parse(script string) ([]domain.ScriptEntry, error)
}
