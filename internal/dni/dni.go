// Package dni parses the PDF417 barcode payload printed on Argentine
// national identity cards. Payloads are @-delimited but card formats vary,
// so parsing is best effort: any field that cannot be extracted is simply
// left empty.
package dni

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is a partial parse result. Every field is optional; callers must
// let the user correct the values before using them.
type Record struct {
	DNI       string `json:"dni,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

const (
	lastNameField   = 1
	firstNameField  = 2
	dniField        = 4
	minSchemaFields = 5
)

var (
	dniExact   = regexp.MustCompile(`^\d{7,8}$`)
	dniBounded = regexp.MustCompile(`(?:^|[^0-9])(\d{7,8})(?:[^0-9]|$)`)
	dniTrailer = regexp.MustCompile(`(\d{7,8})$`)

	titler = cases.Title(language.Spanish)
)

// Parse extracts DNI and name fields from a raw barcode payload. Malformed
// input degrades to an empty or partial Record, never an error.
//
// Precedence: a field that is exactly 7-8 digits wins first, then a bounded
// digit run anywhere in the payload. When the payload has at least five
// fields the fixed positional schema applies, and its DNI field overrides
// whatever the scans found.
func Parse(raw string) Record {
	var rec Record
	if raw == "" {
		return rec
	}

	fields := strings.Split(raw, "@")

	for _, field := range fields {
		if dniExact.MatchString(strings.TrimSpace(field)) {
			rec.DNI = strings.TrimSpace(field)
			break
		}
	}
	if rec.DNI == "" {
		if m := dniBounded.FindStringSubmatch(raw); m != nil {
			rec.DNI = m[1]
		} else if m := dniTrailer.FindStringSubmatch(raw); m != nil {
			rec.DNI = m[1]
		}
	}

	if len(fields) >= minSchemaFields {
		rec.LastName = cleanName(fields[lastNameField])
		rec.FirstName = cleanName(fields[firstNameField])
		if candidate := strings.TrimSpace(fields[dniField]); dniExact.MatchString(candidate) {
			// Positional data is more authoritative when the schema matches.
			rec.DNI = candidate
		}
	}

	return rec
}

// cleanName strips everything that is not a letter or space, then title-cases
// the remainder. Results of one letter or less are discarded as noise.
func cleanName(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	name := strings.TrimSpace(b.String())
	if len([]rune(name)) <= 1 {
		return ""
	}
	return titler.String(strings.ToLower(name))
}
