package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minChunkLength is the minimum collapsed chunk length worth parsing.
// Anything shorter cannot hold a name plus one identifier.
const minChunkLength = 15

var (
	// Leading credential pairs, optionally prefixed with "<n>. ".
	emailPassRE = regexp.MustCompile(`^(?:\d+\.\s*)?([^:|]+@[^:|]+):([^|\s]+)`)
	phonePassRE = regexp.MustCompile(`^(?:\d+\.\s*)?(\+?7\d{10}):([^|\s]+)`)

	// phoneShapeRE recognizes a bare RU mobile number landing in the email slot.
	phoneShapeRE = regexp.MustCompile(`^\+?7\d{10}`)

	// Parts already consumed by the leading credential match.
	emailCredPartRE = regexp.MustCompile(`^(?:\d+\.\s*)?[^:|]+@[^:|]+:[^|\s]+`)
	phoneCredPartRE = regexp.MustCompile(`^(?:\d+\.\s*)?\+?7\d{10}:[^|\s]+`)

	// Fallback scans over the whole collapsed chunk.
	dobFallbackRE      = regexp.MustCompile(`(?i)дата\s*рожд(?:ения)?\s*[:\-]?\s*(\d{2}\.\d{2}\.\d{4})`)
	innFallbackRE      = regexp.MustCompile(`\b(\d{12})\b`)
	passportFallbackRE = regexp.MustCompile(`\d{4}\s*\d{6}`)
	anyDateRE          = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
	unitCodeFallbackRE = regexp.MustCompile(`\d{3}-\d{3}`)
	phoneFallbackRE    = regexp.MustCompile(`\+7\s?\d{3}\s?\d{3}[\s-]?\d{2}[\s-]?\d{2}`)

	// Birth-date key aliases. Go's \b is ASCII-only, so the standalone "др"
	// alias needs explicit letter boundaries.
	dobKeyRE      = regexp.MustCompile(`дата\s*рожд`)
	dobShortKeyRE = regexp.MustCompile(`(?:^|[^a-zа-яё0-9])др(?:$|[^a-zа-яё0-9])`)
)

// separators tried in order; the first that splits the chunk into more than
// two parts wins, otherwise the last one is used.
var separators = []string{"|", ";", ",", "\t"}

// placeholderValues are treated as "no data" for fields that support
// placeholder rejection.
var placeholderValues = map[string]bool{
	"не найдено": true,
	"не найден":  true,
	"нет":        true,
	"none":       true,
	"null":       true,
	"no":         true,
}

// keywordRule routes a lowercased part key to a Record field. Rules are
// evaluated in order with first-match-wins semantics.
type keywordRule struct {
	field              Field
	words              []string         // substring match
	patterns           []*regexp.Regexp // boundary-sensitive match
	rejectPlaceholders bool
}

func defaultRules() []keywordRule {
	return []keywordRule{
		{field: FieldSNILS, words: []string{"снилс", "snils"}, rejectPlaceholders: true},
		{field: FieldINN, words: []string{"инн", "inn"}, rejectPlaceholders: true},
		{field: FieldName, words: []string{"фио", "fio", "фам", "имя", "отчество"}},
		{field: FieldBirthDate, patterns: []*regexp.Regexp{dobKeyRE, dobShortKeyRE}},
		{field: FieldPhone, words: []string{"тел", "phone", "номер тел"}},
		{field: FieldEmail, words: []string{"почта", "email", "e-mail"}},
		{field: FieldKey, words: []string{"ключ", "key"}},
		{field: FieldPassport, words: []string{"серия", "номер паспорт", "паспорт"}},
		{field: FieldIssueDate, words: []string{"дата выд", "выдан"}},
		{field: FieldUnitCode, words: []string{"код подр", "код отделен"}},
		{field: FieldRegAddress, words: []string{"адрес рег", "регистрац", "прописк"}, rejectPlaceholders: true},
		{field: FieldFactAddress, words: []string{"факт", "проживан"}, rejectPlaceholders: true},
		{field: FieldPassword, words: []string{"парол", "password"}},
	}
}

// Extractor extracts Records from text chunks using an ordered rule table.
type Extractor struct {
	rules []keywordRule
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithKeywords merges extra keyword aliases into the matching rules. Keys
// are Field names; unknown names are ignored. This is how new locales or
// dump formats are taught to the extractor without touching the rule logic.
func WithKeywords(extra map[string][]string) Option {
	return func(e *Extractor) {
		for name, words := range extra {
			for i := range e.rules {
				if e.rules[i].field == Field(name) {
					e.rules[i].words = append(e.rules[i].words, lowerAll(words)...)
				}
			}
		}
	}
}

// NewExtractor creates an Extractor with the default rule table.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{rules: defaultRules()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses one chunk into a fully populated Record. It never fails:
// a chunk that cannot be parsed yields the all-sentinel Record.
func (e *Extractor) Extract(chunk string) Record {
	out := NewRecord()

	collapsed := strings.Join(strings.Fields(chunk), " ")
	if utf8.RuneCountInString(collapsed) < minChunkLength {
		return out
	}

	e.matchLeadingCredentials(collapsed, &out)

	var parts []string
	for _, sep := range separators {
		parts = strings.Split(collapsed, sep)
		if len(parts) > 2 {
			break
		}
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if emailCredPartRE.MatchString(part) || phoneCredPartRE.MatchString(part) {
			continue
		}
		key, value := part, ""
		if idx := strings.Index(part, ":"); idx >= 0 {
			key = strings.TrimSpace(part[:idx])
			value = strings.TrimSpace(part[idx+1:])
		}
		e.applyRules(strings.ToLower(key), value, &out)
	}

	applyFallbacks(collapsed, &out)
	out.deriveResidence()
	return out
}

// matchLeadingCredentials consumes an "email:secret" or "phone:secret" pair
// at the start of the chunk.
func (e *Extractor) matchLeadingCredentials(collapsed string, out *Record) {
	if m := emailPassRE.FindStringSubmatch(collapsed); m != nil {
		out.Email = strings.TrimSpace(m[1])
		out.Password = strings.TrimSpace(m[2])
		if phoneShapeRE.MatchString(out.Email) {
			out.Phone = out.Email
		}
		return
	}
	if m := phonePassRE.FindStringSubmatch(collapsed); m != nil {
		out.Phone = strings.TrimSpace(m[1])
		out.Password = strings.TrimSpace(m[2])
	}
}

// applyRules assigns value to the field of the first rule matching keyLower.
func (e *Extractor) applyRules(keyLower, value string, out *Record) {
	for _, rule := range e.rules {
		if !rule.matches(keyLower) {
			continue
		}
		if rule.rejectPlaceholders {
			value = rejectPlaceholder(value)
		}
		setters[rule.field](out, value)
		return
	}
}

func (r keywordRule) matches(keyLower string) bool {
	for _, w := range r.words {
		if strings.Contains(keyLower, w) {
			return true
		}
	}
	for _, p := range r.patterns {
		if p.MatchString(keyLower) {
			return true
		}
	}
	return false
}

// applyFallbacks scans the whole chunk for fields the keyword pass left at
// the sentinel.
func applyFallbacks(collapsed string, out *Record) {
	if out.BirthDate == Sentinel || out.BirthDate == "" {
		if m := dobFallbackRE.FindStringSubmatch(collapsed); m != nil {
			out.BirthDate = m[1]
		}
	}
	if out.INN == Sentinel {
		if m := innFallbackRE.FindStringSubmatch(collapsed); m != nil {
			out.INN = m[1]
		}
	}
	if out.Passport == Sentinel {
		if m := passportFallbackRE.FindString(collapsed); m != "" {
			out.Passport = m
		}
	}
	if out.IssueDate == Sentinel {
		dates := anyDateRE.FindAllString(collapsed, -1)
		switch {
		case len(dates) > 1:
			out.IssueDate = dates[1]
		case len(dates) == 1 && out.BirthDate == Sentinel:
			out.IssueDate = dates[0]
		}
	}
	if out.UnitCode == Sentinel {
		if m := unitCodeFallbackRE.FindString(collapsed); m != "" {
			out.UnitCode = m
		}
	}
	if out.Phone == Sentinel {
		if m := phoneFallbackRE.FindString(collapsed); m != "" {
			out.Phone = m
		}
	}
}

// rejectPlaceholder maps empty and "no data" placeholder values to the
// sentinel.
func rejectPlaceholder(value string) string {
	if value == "" || placeholderValues[strings.ToLower(value)] {
		return Sentinel
	}
	return value
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, strings.ToLower(w))
	}
	return out
}
