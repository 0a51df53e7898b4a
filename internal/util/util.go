// Package util provides small shared helpers: time, hashing, canonical JSON.
package util

import (
	"encoding/json"
	"strings"
	"time"

	"lukechampine.com/blake3"
)

// NowMs returns the current time in Unix milliseconds.
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// CanonicalJSON marshals a value deterministically (map keys sorted, no
// indentation), suitable for hashing.
func CanonicalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Blake3HashHex returns the lowercase hex blake3-256 digest of content.
func Blake3HashHex(content []byte) string {
	sum := blake3.Sum256(content)
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(sum)*2)
	for i, b := range sum {
		out[i*2] = hexdigits[b>>4]
		out[i*2+1] = hexdigits[b&0x0f]
	}
	return string(out)
}

// SingleLine collapses newlines into spaces for one-line display.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// Truncate shortens a string to at most width runes, appending an ellipsis
// when anything was cut. Width values below 1 return the empty string.
func Truncate(s string, width int) string {
	if width < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
