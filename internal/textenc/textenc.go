// Package textenc recovers readable text from dumps saved in legacy
// single-byte encodings. UTF-8 input passes through untouched; only byte
// streams with no recognizable letters go through the fallback list.
package textenc

import (
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// probeLimit bounds how much of the document is inspected for letters.
const probeLimit = 1000

// fallbacks is the small set of legacy encodings these dumps show up in.
var fallbacks = []encoding.Encoding{
	charmap.Windows1251,
	charmap.ISO8859_1,
	charmap.CodePage866,
}

// Decode interprets raw document bytes as text. When the leading bytes
// decode to no letters at all under UTF-8, each fallback encoding is tried
// and the first one producing letters wins. Input that defeats every
// fallback is returned as-is.
func Decode(data []byte) string {
	text := string(data)
	if HasLetters(text) {
		return text
	}
	for _, enc := range fallbacks {
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if s := string(decoded); HasLetters(s) {
			return s
		}
	}
	return text
}

// HasLetters reports whether the leading portion of s contains at least one
// letter rune.
func HasLetters(s string) bool {
	checked := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
		checked++
		if checked >= probeLimit {
			break
		}
	}
	return false
}
