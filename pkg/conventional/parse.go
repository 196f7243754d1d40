// pkg/conventional/parse.go
//
// Conventional-commit message parsing: the summary line `type(scope)!?: ...`
// plus breaking-change trailers.

package conventional

import (
	"regexp"
	"strings"
)

var summaryRE = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*)(\([^)]*\))?(!)?:\s+\S`)

// Message is the parsed form of one commit message.
type Message struct {
	Kind     string // lowercased conventional type; "" when not conventional
	Scope    string
	Summary  string // first line, verbatim
	Breaking bool   // `!` after the type, or a breaking-change trailer
	Parsed   bool   // false when the summary is not conventional
}

// Parse splits a full commit message into its conventional parts. A message
// that does not match the conventional shape still yields the summary line,
// with Parsed false.
func Parse(full string) Message {
	lines := strings.Split(strings.ReplaceAll(full, "\r\n", "\n"), "\n")
	summary := strings.TrimSpace(lines[0])

	msg := Message{Summary: summary, Breaking: hasBreakingTrailer(lines[1:])}

	m := summaryRE.FindStringSubmatch(summary)
	if m == nil {
		return msg
	}

	msg.Parsed = true
	msg.Kind = strings.ToLower(m[1])
	if m[2] != "" {
		msg.Scope = strings.Trim(m[2], "()")
	}
	if m[3] == "!" {
		msg.Breaking = true
	}
	return msg
}

func hasBreakingTrailer(body []string) bool {
	for _, line := range body {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "BREAKING CHANGE:") || strings.HasPrefix(trimmed, "BREAKING-CHANGE:") {
			return true
		}
	}
	return false
}
