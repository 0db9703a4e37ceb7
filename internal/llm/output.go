package llm

import (
	"strings"
	"unicode/utf8"
)

// CleanJSON strips a BOM and markdown code fences from model output and
// returns the outermost JSON object or array. It returns "" when no
// balanced value is found.
func CleanJSON(raw string) string {
	text := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	text = stripFences(text)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return ""
	}
	open, closing := text[start], byte('}')
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inStr:
			escaped = true
		case c == '"':
			inStr = !inStr
		case inStr:
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the info string, e.g. ```json
		text = text[nl+1:]
	}
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}
