package store

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

// nonNameRE strips everything that is not a Cyrillic letter, a Latin letter,
// or whitespace from an already lowercased name.
var nonNameRE = regexp.MustCompile(`[^а-яёa-z\s]`)

// Normalize canonicalizes a full name for fingerprinting: lowercase,
// internal whitespace collapsed to single spaces, digits and punctuation
// stripped. Returns "" when the name is the sentinel, empty, or left with
// nothing after stripping. Normalize is idempotent.
func Normalize(name string) string {
	if name == "" || name == "-" {
		return ""
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	normalized = nonNameRE.ReplaceAllString(normalized, "")
	normalized = strings.Join(strings.Fields(normalized), " ")
	return normalized
}

// Fingerprint returns the MD5 hex digest of the normalized name, or "" when
// the name has no usable normalization. MD5 here is a content fingerprint,
// not a security primitive; it matches the digests in existing store files.
func Fingerprint(name string) string {
	normalized := Normalize(name)
	if normalized == "" {
		return ""
	}
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
