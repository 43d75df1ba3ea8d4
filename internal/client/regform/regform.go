// Package regform drives the registration form for every profile: an
// anonymous diner only gives a name, full registration adds email,
// password, and document numbers, and employees also pick a position.
package regform

import (
	"errors"
	"regexp"
	"strings"

	authmodels "bellatavola/internal/auth/models"
)

type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
	FieldDNI      Field = "dni"
	FieldCUIL     Field = "cuil"
	FieldPosition Field = "position_code"
)

type State int

const (
	Idle State = iota
	Validating
	Submitting
)

var (
	ErrValidation  = errors.New("form has validation errors")
	ErrInFlight    = errors.New("submission already in flight")
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	minPasswordLen = 6
)

// Values is what a successful submit hands to the caller.
type Values map[Field]string

type Form struct {
	profile string
	values  Values
	touched map[Field]bool
	errs    map[Field]string
	state   State
	submit  func(Values) error
}

func New(profileCode string, submit func(Values) error) *Form {
	return &Form{
		profile: profileCode,
		values:  make(Values),
		touched: make(map[Field]bool),
		errs:    make(map[Field]string),
		submit:  submit,
	}
}

func (f *Form) SetValue(field Field, value string) {
	f.values[field] = value
	// Re-validate live once the field has been visited.
	if f.touched[field] {
		f.validateField(field)
	}
}

// Blur marks a field visited and validates just that field.
func (f *Form) Blur(field Field) {
	f.touched[field] = true
	f.validateField(field)
}

// Submit validates every relevant field, marking them all touched. Any
// error aborts submission; otherwise the submit callback runs and its
// error propagates to the caller untouched.
func (f *Form) Submit() error {
	if f.state == Submitting {
		return ErrInFlight
	}
	f.state = Validating
	for _, field := range f.relevantFields() {
		f.touched[field] = true
		f.validateField(field)
	}
	if len(f.errs) > 0 {
		f.state = Idle
		return ErrValidation
	}

	f.state = Submitting
	err := f.submit(f.trimmedValues())
	f.state = Idle
	return err
}

func (f *Form) State() State { return f.state }

// FieldError returns the message for a touched, invalid field.
func (f *Form) FieldError(field Field) string { return f.errs[field] }

func (f *Form) Errors() map[Field]string {
	out := make(map[Field]string, len(f.errs))
	for field, message := range f.errs {
		out[field] = message
	}
	return out
}

func (f *Form) relevantFields() []Field {
	if f.profile == authmodels.ProfileAnonymous {
		return []Field{FieldName}
	}
	fields := []Field{FieldName, FieldEmail, FieldPassword, FieldDNI, FieldCUIL}
	if f.profile == authmodels.ProfileEmployee {
		fields = append(fields, FieldPosition)
	}
	return fields
}

func (f *Form) validateField(field Field) {
	value := strings.TrimSpace(f.values[field])
	var message string
	switch field {
	case FieldName:
		if value == "" {
			message = "name is required"
		}
	case FieldEmail:
		if !emailPattern.MatchString(value) {
			message = "email is invalid"
		}
	case FieldPassword:
		if len(f.values[field]) < minPasswordLen {
			message = "password must be at least 6 characters"
		}
	case FieldDNI:
		if value == "" {
			message = "dni is required"
		}
	case FieldCUIL:
		if value == "" {
			message = "cuil is required"
		}
	case FieldPosition:
		if !authmodels.ValidPosition(value) {
			message = "position is required"
		}
	}
	if message == "" {
		delete(f.errs, field)
		return
	}
	f.errs[field] = message
}

func (f *Form) trimmedValues() Values {
	out := make(Values, len(f.values))
	for _, field := range f.relevantFields() {
		if field == FieldPassword {
			out[field] = f.values[field]
			continue
		}
		out[field] = strings.TrimSpace(f.values[field])
	}
	return out
}
