package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// MaskDigit replaces every digit of an example number in a mask.
const MaskDigit = '0'

// BrazilMobileMask is the nine-digit Brazilian mobile mask.
const BrazilMobileMask = " 00 00000-0000"

// Deriver turns a country's example number into a placeholder and a mask.
type Deriver struct {
	plan NumberingPlan
}

// NewDeriver creates a Deriver backed by plan.
func NewDeriver(plan NumberingPlan) *Deriver {
	return &Deriver{plan: plan}
}

// ExampleNumber returns the international form of the country's example
// number, e.g. "+1 201-555-0123".
func (d *Deriver) ExampleNumber(c Country) (string, error) {
	num, err := d.plan.ExampleNumberFor(c.ISO2)
	if err != nil {
		return "", err
	}
	return d.plan.Format(num, phonenumbers.INTERNATIONAL), nil
}

// Placeholder is the human-readable placeholder shown in an empty input.
func (d *Deriver) Placeholder(c Country) string {
	return d.Mask(c, false)
}

// Mask drops the calling-code group from the example number and puts a
// single space token in its place. With convertToMask every digit becomes
// MaskDigit. A region without an example number yields "".
func (d *Deriver) Mask(c Country, convertToMask bool) string {
	example, err := d.ExampleNumber(c)
	if err != nil {
		return ""
	}

	pieces := strings.Split(example, " ")
	pieces[0] = " "
	joined := strings.Join(pieces, " ")

	if !convertToMask {
		return joined
	}
	return maskDigits(joined)
}

func maskDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return MaskDigit
		}
		return r
	}, s)
}
