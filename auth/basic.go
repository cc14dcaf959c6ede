package auth

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

const basicPrefix = "Basic "

// decodeBasicHeader extracts the email/password pair from an Authorization
// header value. The prefix match is exact and case-sensitive, the payload
// must be strict standard base64 decoding to ASCII text (the Basic scheme
// leaves other charsets undefined, so anything else is rejected), and the
// split is on the first colon only since passwords may themselves contain
// colons. Every failure mode reports ok=false; none are distinguished.
func decodeBasicHeader(header string) (email, password string, ok bool) {
	if !strings.HasPrefix(header, basicPrefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(header[len(basicPrefix):])
	if err != nil {
		return "", "", false
	}
	for _, b := range raw {
		if b >= utf8.RuneSelf {
			return "", "", false
		}
	}
	decoded := string(raw)
	i := strings.Index(decoded, ":")
	if i < 0 {
		return "", "", false
	}
	return decoded[:i], decoded[i+1:], true
}
