// Package hostproto turns raw serial bytes into command.Request values
// per the line grammar of §6. The scanner is hand-rolled in the teacher's
// no-fmt style for the common case (space-separated bare tokens); quoted
// or escaped arguments fall back to google/shlex, which already handles
// that correctly and isn't worth re-deriving by hand.
package hostproto

import (
	"strings"

	"github.com/google/shlex"
)

// Request is a tokenized host command: a verb and its string arguments.
type Request struct {
	Name string
	Args []string
}

// Tokenize parses one line of input into a Request. Blank lines (after
// trimming CR/LF/whitespace) return ok=false so the caller can silently
// skip them instead of treating them as a malformed command.
func Tokenize(line string) (Request, bool) {
	line = trimLineEnding(line)
	if line == "" {
		return Request{}, false
	}

	if strings.ContainsAny(line, `"'\`) {
		fields, err := shlex.Split(line)
		if err != nil || len(fields) == 0 {
			return Request{}, false
		}
		return Request{Name: strings.ToUpper(fields[0]), Args: fields[1:]}, true
	}

	fields := splitFields(line)
	if len(fields) == 0 {
		return Request{}, false
	}
	return Request{Name: strings.ToUpper(fields[0]), Args: fields[1:]}, true
}

// trimLineEnding strips trailing CR/LF and surrounding whitespace without
// reaching for strings.TrimFunc's closure allocation on every call.
func trimLineEnding(s string) string {
	for len(s) > 0 {
		c := s[len(s)-1]
		if c == '\r' || c == '\n' || c == ' ' || c == '\t' {
			s = s[:len(s)-1]
			continue
		}
		break
	}
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}

// splitFields splits on runs of whitespace without allocating a closure
// per call the way strings.Fields's FieldsFunc variant would.
func splitFields(s string) []string {
	var fields []string
	start := -1
	for i := 0; i < len(s); i++ {
		isSpace := s[i] == ' ' || s[i] == '\t'
		if isSpace {
			if start >= 0 {
				fields = append(fields, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, s[start:])
	}
	return fields
}
