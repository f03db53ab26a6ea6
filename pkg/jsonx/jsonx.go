// Package jsonx recovers JSON objects from free-text LLM output.
//
// Models asked for "JSON only" still wrap the object in prose lead-ins,
// markdown code fences, and leave trailing commas. The helpers here strip
// those violations in a fixed order and, as a last resort, hand the text
// to a general JSON repairer.
package jsonx

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	fenceRe         = regexp.MustCompile("```(?:[a-zA-Z]+)?")
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// leadIns are response prefixes models emit despite instructions. Matched
// case-insensitively against the first line only; the brace extraction
// below handles prose that survives this pass.
var leadIns = []string{
	"here is",
	"here's",
	"sure",
	"certainly",
	"of course",
	"json:",
}

// Sanitize applies the tolerant cleaning pipeline: trim, drop lead-in
// prose, strip code fences, extract the outermost object, remove trailing
// commas. It never fails; the output may still be invalid JSON.
func Sanitize(raw string) string {
	s := stripControl(strings.TrimSpace(raw))
	s = stripLeadIn(s)
	s = fenceRe.ReplaceAllString(s, "")
	s = extractObject(s)
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// Repair sanitizes raw and guarantees the returned string is valid JSON,
// invoking jsonrepair when sanitization alone is not enough.
func Repair(raw string) (string, error) {
	s := Sanitize(raw)
	if s == "" {
		return "", fmt.Errorf("repair: no object found in %d bytes of input", len(raw))
	}
	if json.Valid([]byte(s)) {
		return s, nil
	}
	fixed, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return "", fmt.Errorf("repair: %w", err)
	}
	if !json.Valid([]byte(fixed)) {
		return "", fmt.Errorf("repair: output still invalid after %d -> %d bytes", len(s), len(fixed))
	}
	return fixed, nil
}

// stripControl removes control characters except tab/newline/CR, which
// otherwise break strict parsing of model output.
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripLeadIn(s string) string {
	head, rest, found := strings.Cut(s, "\n")
	if !found {
		return s
	}
	lower := strings.ToLower(strings.TrimSpace(head))
	for _, p := range leadIns {
		if strings.HasPrefix(lower, p) && !strings.Contains(head, "{") {
			return strings.TrimSpace(rest)
		}
	}
	return s
}

// extractObject returns the substring spanning the first '{' to its
// matching closing brace, recovering JSON surrounded by stray prose.
// Input without a balanced object is returned unchanged.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return s
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	// Unbalanced: fall back to the greedy first-{ .. last-} span.
	if end := strings.LastIndex(s, "}"); end > start {
		return s[start : end+1]
	}
	return s
}
