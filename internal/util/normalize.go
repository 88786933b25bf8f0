package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding whitespace and applies NFKC so that
// visually identical nicknames compare equal server-side regardless of
// how the input method composed them.
func Normalize(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}
