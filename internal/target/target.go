package target

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// urlPattern accepts http(s) URLs whose host is a dotted hostname or a
// dotted quad, with an optional numeric port and an optional path or query.
// Octets and ports are not range checked.
var urlPattern = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+(?:[A-Z]{2,6}\.?|[A-Z0-9-]{2,}\.?)` +
	`|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// Validate reports whether raw is an archivable http(s) URL.
func Validate(raw string) bool {
	return urlPattern.MatchString(raw)
}

var nameReplacer = strings.NewReplacer(":", "-", ".", "_", "/", "_")

// Filename maps a URL to the base name of its local capture.
//
//	https://example.com/page -> example_com_page
//
// The mapping is lossy: URLs differing only in scheme or in characters other
// than ':', '.' and '/' share a name. Use UniqueFilename to disambiguate.
func Filename(raw string) string {
	return nameReplacer.Replace(schemePattern.ReplaceAllString(raw, ""))
}

// UniqueFilename appends a short digest of the full URL to Filename so
// distinct URLs never share a capture name.
func UniqueFilename(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return Filename(raw) + "-" + hex.EncodeToString(sum[:])[:8]
}
