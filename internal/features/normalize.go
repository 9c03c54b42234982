// Package features turns raw movie rows into normalized items and the weighted feature
// strings the vectorizers consume.
package features

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizationVersion identifies the cleanup rules below. It is part of the vector cache
// fingerprint, so bump it whenever Normalize or ParseContributors change output.
const NormalizationVersion = "1"

var (
	// ErrMissingContributors reports a crew cell absent from the source row.
	ErrMissingContributors = errors.New("contributor field missing")
	// ErrMalformedContributors reports crew text that cannot be read as a name list.
	ErrMalformedContributors = errors.New("contributor field malformed")
)

// Normalize lowercases text, drops every rune that is not an ASCII letter, ASCII digit or
// whitespace, collapses whitespace runs to a single space and trims the ends.
// The output only contains [a-z0-9 ], so Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))

	pendingSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case isASCIIAlnum(r):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeValue coerces v to its string form before normalizing. nil yields "".
func NormalizeValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return Normalize(s)
	}
	return Normalize(fmt.Sprint(v))
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// ParseContributors reads a comma separated name list: each name is trimmed and lowercased,
// empty names are dropped, and the rest are joined with single spaces.
func ParseContributors(raw string, present bool) (string, error) {
	if !present {
		return "", ErrMissingContributors
	}
	if !utf8.ValidString(raw) {
		return "", ErrMalformedContributors
	}

	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return strings.Join(names, " "), nil
}

// NormalizeContributors is ParseContributors with the no-cast fallback: any parse error
// degrades to an empty string and fellBack reports that it happened.
func NormalizeContributors(raw string, present bool) (cast string, fellBack bool) {
	cast, err := ParseContributors(raw, present)
	if err != nil {
		return "", true
	}
	return cast, false
}
