// Package segment splits a raw text dump into candidate record chunks.
//
// Dumps come in several shapes: numbered credential lists, blank-line
// separated paragraphs, and continuous key:value runs. Three strategies are
// tried in order; the first one producing more than one chunk wins.
package segment

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrNoTextualContent signals a document of only whitespace and newlines.
// It is distinct from a well-formed document where every chunk fell below
// the size filter, which yields an empty chunk list and no error.
var ErrNoTextualContent = errors.New("document contains no textual content")

// minChunkSize is the size filter applied to every produced chunk: anything
// this short is separator noise, not a record.
const minChunkSize = 10

var (
	numberedEmailLineRE = regexp.MustCompile(`^\d+\.\s*[^:|]+@[^:|]+:[^|\s]+`)
	numberedPhoneLineRE = regexp.MustCompile(`^\d+\.\s*\+?7\d{10}:[^|\s]+`)
	bareEmailLineRE     = regexp.MustCompile(`^[^:|]+@[^:|]+:[^|\s]+`)
	barePhoneLineRE     = regexp.MustCompile(`^\+?7\d{10}:[^|\s]+`)

	paragraphSplitRE = regexp.MustCompile(`\n\s*\n`)
	numberedItemRE   = regexp.MustCompile(`^\d+\.\s`)
)

// recordStartKeywords mark a line as the likely first line of a new record
// when it directly follows a blank line.
var recordStartKeywords = []string{"СНИЛС", "ФИО", "ИНН", "Паспорт"}

// Split breaks a document into ordered candidate chunks. The order
// determines slot numbering downstream.
func Split(text string) ([]string, error) {
	rawLines := strings.Split(text, "\n")

	type line struct {
		text           string
		afterBlankLine bool
	}
	var lines []line
	prevBlank := true // document start counts as a boundary
	for _, raw := range rawLines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			prevBlank = true
			continue
		}
		lines = append(lines, line{text: trimmed, afterBlankLine: prevBlank})
		prevBlank = false
	}
	if len(lines) == 0 {
		return nil, ErrNoTextualContent
	}

	// Strategy 1: group lines, starting a new chunk at credential lines and
	// at keyword lines that followed a blank line.
	var chunks []string
	var current []string
	for i, ln := range lines {
		isNewRecord := numberedEmailLineRE.MatchString(ln.text) ||
			numberedPhoneLineRE.MatchString(ln.text) ||
			bareEmailLineRE.MatchString(ln.text) ||
			barePhoneLineRE.MatchString(ln.text) ||
			(i > 0 && ln.afterBlankLine && containsAny(ln.text, recordStartKeywords))
		if isNewRecord && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, ln.text)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}

	// Strategy 2: blank-line paragraphs.
	if len(chunks) <= 1 {
		chunks = paragraphSplitRE.Split(text, -1)
	}

	// Strategy 3: split before numbered items.
	if len(chunks) <= 1 {
		chunks = splitBeforeNumberedItems(text)
	}

	var out []string
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) > minChunkSize {
			out = append(out, c)
		}
	}
	return out, nil
}

// splitBeforeNumberedItems cuts the document right before every line that
// begins with "<digits>. ".
func splitBeforeNumberedItems(text string) []string {
	lines := strings.Split(text, "\n")
	var chunks []string
	var current []string
	for _, ln := range lines {
		if numberedItemRE.MatchString(strings.TrimSpace(ln)) && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, ln)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
