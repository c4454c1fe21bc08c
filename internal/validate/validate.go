// Package validate holds the pure customer-field validators used by
// checkout. Functions have no side effects; the aggregate validator checks
// every field even when an earlier one already failed.
package validate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vrstore/storefront/internal/domain"
)

// Rules bundles the locale-specific formats. Postal and phone patterns vary
// per country; the defaults target France.
type Rules struct {
	NamePattern      *regexp.Regexp
	NameMinLength    int
	NameMaxLength    int
	AddressMinLength int
	AddressMaxLength int
	CityMinLength    int
	CityMaxLength    int
	PostalPattern    *regexp.Regexp
	PhonePattern     *regexp.Regexp
}

var (
	// Letters including accented ones, spaces, apostrophes and hyphens.
	namePattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s'-]+$`)

	// Exactly five digits (French postal codes).
	frenchPostalPattern = regexp.MustCompile(`^\d{5}$`)

	// French mobile and landline numbers, with optional +33/0033 prefix and
	// optional spaces, dots or hyphens between digit pairs.
	frenchPhonePattern = regexp.MustCompile(`^(?:(?:\+|00)33|0)\s*[1-9](?:[\s.-]*\d{2}){4}$`)
)

// DefaultRules returns the French-locale rule set.
func DefaultRules() Rules {
	return Rules{
		NamePattern:      namePattern,
		NameMinLength:    2,
		NameMaxLength:    100,
		AddressMinLength: 5,
		AddressMaxLength: 200,
		CityMinLength:    2,
		CityMaxLength:    100,
		PostalPattern:    frenchPostalPattern,
		PhonePattern:     frenchPhonePattern,
	}
}

func (r Rules) checkLength(value string, minLen, maxLen int) (string, bool) {
	trimmed := strings.TrimSpace(value)
	n := len([]rune(trimmed))
	return trimmed, n >= minLen && n <= maxLen
}

// Name reports whether the customer name is acceptable.
func (r Rules) Name(name string) bool {
	trimmed, ok := r.checkLength(name, r.NameMinLength, r.NameMaxLength)
	return ok && r.NamePattern.MatchString(trimmed)
}

// Address checks length bounds only; any characters are allowed.
func (r Rules) Address(address string) bool {
	_, ok := r.checkLength(address, r.AddressMinLength, r.AddressMaxLength)
	return ok
}

// City uses the same character class as Name.
func (r Rules) City(city string) bool {
	trimmed, ok := r.checkLength(city, r.CityMinLength, r.CityMaxLength)
	return ok && r.NamePattern.MatchString(trimmed)
}

// PostalCode checks the configured locale pattern.
func (r Rules) PostalCode(postal string) bool {
	return r.PostalPattern.MatchString(strings.TrimSpace(postal))
}

// Phone checks the configured locale pattern.
func (r Rules) Phone(phone string) bool {
	return r.PhonePattern.MatchString(strings.TrimSpace(phone))
}

// Result is the outcome of validating a full customer record.
type Result struct {
	Valid  bool
	Errors map[string]string
}

// Field-level messages surfaced to the form.
const (
	msgInvalidName    = "invalid name (2-100 characters, letters only)"
	msgInvalidAddress = "invalid address (5-200 characters)"
	msgInvalidCity    = "invalid city (2-100 characters, letters only)"
	msgInvalidPostal  = "invalid postal code"
	msgInvalidPhone   = "invalid phone number"
)

// Customer runs all five field validators and returns the combined result.
// It never short-circuits: every field is checked so the form can show all
// problems at once.
func (r Rules) Customer(c domain.Customer) Result {
	errors := make(map[string]string)

	if !r.Name(c.Name) {
		errors["name"] = msgInvalidName
	}
	if !r.Address(c.Address) {
		errors["address"] = msgInvalidAddress
	}
	if !r.City(c.City) {
		errors["city"] = msgInvalidCity
	}
	if !r.PostalCode(c.PostalCode) {
		errors["postal_code"] = msgInvalidPostal
	}
	if !r.Phone(c.Phone) {
		errors["phone"] = msgInvalidPhone
	}

	return Result{Valid: len(errors) == 0, Errors: errors}
}

// ValidationError carries per-field messages for a rejected submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}
