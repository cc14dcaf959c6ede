package util

import (
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKD normalization so that visually identical
// passwords hash and verify identically regardless of how the client
// composed them.
func Normalize(s string) string {
	return norm.NFKD.String(s)
}
