// Package phone interprets keystroke-level phone number input against a
// selected country: it derives input masks and placeholders from example
// numbers and reconstructs a canonical full number from raw input.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	// ErrUnparseableNumber is reported when the numbering plan rejects a
	// reconstructed number.
	ErrUnparseableNumber = errors.New("unparseable phone number")

	// ErrUnavailablePlaceholder is reported when the numbering plan has no
	// example number for a region.
	ErrUnavailablePlaceholder = errors.New("no example number available")
)

// NumberingPlan is the phone numbering metadata the package depends on.
type NumberingPlan interface {
	Parse(number string) (*phonenumbers.PhoneNumber, error)
	Format(num *phonenumbers.PhoneNumber, style phonenumbers.PhoneNumberFormat) string
	ExampleNumberFor(iso2 string) (*phonenumbers.PhoneNumber, error)
	IsValid(num *phonenumbers.PhoneNumber) bool
	NationalSignificantNumber(num *phonenumbers.PhoneNumber) string
	RegionFor(num *phonenumbers.PhoneNumber) string
}

// LibPlan implements NumberingPlan on top of libphonenumber metadata.
type LibPlan struct{}

// Parse parses a number in international form. No default region is
// assumed, so the number must carry its country calling code.
func (LibPlan) Parse(number string) (num *phonenumbers.PhoneNumber, err error) {
	defer func() {
		if r := recover(); r != nil {
			num, err = nil, fmt.Errorf("%w: %v", ErrUnparseableNumber, r)
		}
	}()

	num, err = phonenumbers.Parse(number, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableNumber, err)
	}
	return num, nil
}

// Format renders num in the given style.
func (LibPlan) Format(num *phonenumbers.PhoneNumber, style phonenumbers.PhoneNumberFormat) string {
	return phonenumbers.Format(num, style)
}

// ExampleNumberFor returns the fixed-line example number for a region.
func (LibPlan) ExampleNumberFor(iso2 string) (num *phonenumbers.PhoneNumber, err error) {
	defer func() {
		if r := recover(); r != nil {
			num, err = nil, fmt.Errorf("%w: %v", ErrUnavailablePlaceholder, r)
		}
	}()

	num = phonenumbers.GetExampleNumber(strings.ToUpper(iso2))
	if num == nil {
		return nil, fmt.Errorf("%w: region %q", ErrUnavailablePlaceholder, iso2)
	}
	return num, nil
}

// IsValid reports whether num is a valid number for its region.
func (LibPlan) IsValid(num *phonenumbers.PhoneNumber) bool {
	return num != nil && phonenumbers.IsValidNumber(num)
}

// NationalSignificantNumber returns the national digits of num, keeping
// leading zeros where the region uses them.
func (LibPlan) NationalSignificantNumber(num *phonenumbers.PhoneNumber) string {
	if num == nil {
		return ""
	}
	return phonenumbers.GetNationalSignificantNumber(num)
}

// RegionFor returns the lowercase ISO2 region of num, or "" when unknown.
func (LibPlan) RegionFor(num *phonenumbers.PhoneNumber) string {
	if num == nil {
		return ""
	}
	region := phonenumbers.GetRegionCodeForNumber(num)
	if region == "ZZ" {
		return ""
	}
	return strings.ToLower(region)
}
