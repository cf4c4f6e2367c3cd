// Package extract turns a single text chunk into a fixed-schema Record.
//
// The extractor is rule-based and fully offline: an ordered keyword table
// routes "key: value" parts to record fields, and a set of fallback regex
// scans fills fields the keyword pass missed. Extraction is a pure function
// of the chunk text.
package extract

import "unicode/utf8"

// Sentinel marks a field with no extracted value. Every Record field is
// always populated; absence of data is never a missing field.
const Sentinel = "-"

// Record is the fixed-schema result of extracting one chunk.
type Record struct {
	SNILS       string // national-ID number
	INN         string // tax-ID number
	FullName    string
	BirthDate   string
	Phone       string
	Email       string
	Key         string // access key
	Passport    string // document series/number
	IssueDate   string
	UnitCode    string // issuing-office code
	RegAddress  string // registration address
	FactAddress string // actual-residence address
	Residence   string // derived: FactAddress, else RegAddress
	Password    string
}

// NewRecord returns a Record with every field at the sentinel.
func NewRecord() Record {
	return Record{
		SNILS:       Sentinel,
		INN:         Sentinel,
		FullName:    Sentinel,
		BirthDate:   Sentinel,
		Phone:       Sentinel,
		Email:       Sentinel,
		Key:         Sentinel,
		Passport:    Sentinel,
		IssueDate:   Sentinel,
		UnitCode:    Sentinel,
		RegAddress:  Sentinel,
		FactAddress: Sentinel,
		Residence:   Sentinel,
		Password:    Sentinel,
	}
}

// NameLength reports the full name length in runes, 0 for the sentinel.
func (r Record) NameLength() int {
	if r.FullName == Sentinel {
		return 0
	}
	return utf8.RuneCountInString(r.FullName)
}

// HasIdentifier reports whether at least one strong identifier besides the
// name is set. Records without one carry too little evidence to count.
func (r Record) HasIdentifier() bool {
	for _, v := range []string{r.SNILS, r.Phone, r.Email, r.Passport, r.INN} {
		if v != Sentinel {
			return true
		}
	}
	return false
}

// deriveResidence computes the residence address once, after all other
// fields are final.
func (r *Record) deriveResidence() {
	switch {
	case r.FactAddress != Sentinel:
		r.Residence = r.FactAddress
	case r.RegAddress != Sentinel:
		r.Residence = r.RegAddress
	default:
		r.Residence = Sentinel
	}
}

// Field identifies a Record field in the keyword-rule table and in
// configuration overrides.
type Field string

// Field names accepted in keyword-set overrides.
const (
	FieldSNILS       Field = "snils"
	FieldINN         Field = "inn"
	FieldName        Field = "name"
	FieldBirthDate   Field = "birth_date"
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
	FieldKey         Field = "key"
	FieldPassport    Field = "passport"
	FieldIssueDate   Field = "issue_date"
	FieldUnitCode    Field = "unit_code"
	FieldRegAddress  Field = "reg_address"
	FieldFactAddress Field = "fact_address"
	FieldPassword    Field = "password"
)

// setters maps a Field to its Record assignment. Keeping assignment out of
// the rule entries lets config merge extra keywords by field name alone.
var setters = map[Field]func(*Record, string){
	FieldSNILS:       func(r *Record, v string) { r.SNILS = v },
	FieldINN:         func(r *Record, v string) { r.INN = v },
	FieldName:        func(r *Record, v string) { r.FullName = v },
	FieldBirthDate:   func(r *Record, v string) { r.BirthDate = v },
	FieldPhone:       func(r *Record, v string) { r.Phone = v },
	FieldEmail:       func(r *Record, v string) { r.Email = v },
	FieldKey:         func(r *Record, v string) { r.Key = v },
	FieldPassport:    func(r *Record, v string) { r.Passport = v },
	FieldIssueDate:   func(r *Record, v string) { r.IssueDate = v },
	FieldUnitCode:    func(r *Record, v string) { r.UnitCode = v },
	FieldRegAddress:  func(r *Record, v string) { r.RegAddress = v },
	FieldFactAddress: func(r *Record, v string) { r.FactAddress = v },
	FieldPassword:    func(r *Record, v string) { r.Password = v },
}
