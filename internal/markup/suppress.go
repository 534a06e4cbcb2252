package markup

import "strings"

// SuppressKind determines which spans a disable directive covers.
type SuppressKind uint8

const (
	// SuppressLine covers diagnostics on the directive's own line.
	SuppressLine SuppressKind = iota
	// SuppressNextLine covers diagnostics on the following line.
	SuppressNextLine
	// SuppressFile covers the whole document.
	SuppressFile
)

// Suppression is one inline disable directive, recognized inside
// comments:
//
//	<!-- frost-disable rule-id other-rule -->
//	<!-- frost-disable-next-line rule-id: reason -->
//	<!-- frost-disable-file rule-id -->
type Suppression struct {
	Kind   SuppressKind
	Rules  []string
	Line   uint32 // 1-based line of the directive
	Reason string
}

// Matches reports whether the directive names the rule, or names "all".
func (s *Suppression) Matches(rule string) bool {
	for _, r := range s.Rules {
		if r == rule || r == "all" {
			return true
		}
	}
	return false
}

const (
	directivePrefix   = "frost-disable"
	directiveNextLine = "frost-disable-next-line"
	directiveFile     = "frost-disable-file"
)

// parseSuppression interprets a comment body as a disable directive.
// Returns false for ordinary comments.
func parseSuppression(comment string, line uint32) (Suppression, bool) {
	body := strings.TrimSpace(comment)
	if !strings.HasPrefix(body, directivePrefix) {
		return Suppression{}, false
	}

	kind := SuppressLine
	switch {
	case strings.HasPrefix(body, directiveNextLine):
		kind = SuppressNextLine
		body = strings.TrimPrefix(body, directiveNextLine)
	case strings.HasPrefix(body, directiveFile):
		kind = SuppressFile
		body = strings.TrimPrefix(body, directiveFile)
	default:
		body = strings.TrimPrefix(body, directivePrefix)
	}
	if body != "" && body[0] != ' ' && body[0] != '\t' {
		// e.g. "frost-disabled": not a directive
		return Suppression{}, false
	}

	// optional trailing reason after ":" or "--"
	reason := ""
	if idx := strings.Index(body, ":"); idx >= 0 {
		reason = strings.TrimSpace(body[idx+1:])
		body = body[:idx]
	} else if idx := strings.Index(body, "--"); idx >= 0 {
		reason = strings.TrimSpace(body[idx+2:])
		body = body[:idx]
	}

	rules := strings.Fields(body)
	if len(rules) == 0 {
		return Suppression{}, false
	}
	return Suppression{Kind: kind, Rules: rules, Line: line, Reason: reason}, true
}
