package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"
)

var nonDigitRegex = regexp.MustCompile(`\D`)

// State is the selection state of one phone input.
type State struct {
	Country     Country `json:"country"`
	Raw         string  `json:"raw"`
	Mask        string  `json:"mask"`
	MaskPrefix  string  `json:"maskPrefix"`
	Placeholder string  `json:"placeholder"`
}

// Result is produced on every change of the input.
type Result struct {
	NationalNumber uint64 `json:"nationalNumber,omitempty"`
	FullNumber     string `json:"fullNumber"`
	ParseSucceeded bool   `json:"parseSucceeded"`

	// Err is ErrUnparseableNumber (wrapped) when parsing failed.
	Err error `json:"-"`

	number *phonenumbers.PhoneNumber
}

// Value is what the input exposes: the national number after a successful
// parse, otherwise the reconstructed full number so validators can flag it.
func (r Result) Value() any {
	if r.ParseSucceeded {
		return r.NationalNumber
	}
	return r.FullNumber
}

// Number is the parsed number, nil when parsing failed.
func (r Result) Number() *phonenumbers.PhoneNumber {
	return r.number
}

// Normalizer runs the keystroke-level normalisation.
type Normalizer struct {
	plan    NumberingPlan
	deriver *Deriver
	log     zerolog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for parse failures.
func WithLogger(l zerolog.Logger) Option {
	return func(n *Normalizer) {
		n.log = l
	}
}

// NewNormalizer creates a Normalizer backed by plan.
func NewNormalizer(plan NumberingPlan, opts ...Option) *Normalizer {
	n := &Normalizer{
		plan:    plan,
		deriver: NewDeriver(plan),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Deriver returns the mask deriver the normalizer uses.
func (n *Normalizer) Deriver() *Deriver {
	return n.deriver
}

// Plan returns the numbering plan the normalizer uses.
func (n *Normalizer) Plan() NumberingPlan {
	return n.plan
}

// ReconstructFullNumber rebuilds the full number from raw input, putting the
// country's dial code back when the input does not start with '+'.
func ReconstructFullNumber(raw string, c Country) string {
	val := strings.TrimSpace(raw)
	dialCode := c.DialCode
	numericVal := nonDigitRegex.ReplaceAllString(val, "")

	// leading 1 so NANP dial codes can be compared in full
	normalizedVal := numericVal
	if !strings.HasPrefix(numericVal, "1") {
		normalizedVal = "1" + numericVal
	}

	var prefix string
	switch {
	case !strings.HasPrefix(val, "+"):
		prefix = "+" + dialCode
	case val != "" && !strings.HasPrefix(val, "+") && !strings.HasPrefix(val, "1") &&
		strings.HasPrefix(dialCode, "1") && len(dialCode) == 4 &&
		dialCode != head(normalizedVal, 4):
		// national NANP numbers must carry the area code
		prefix = dialCode[1:]
	default:
		prefix = ""
	}

	return prefix + numericVal
}

func head(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// thirdRune returns the third character of s, or 0 when s is shorter.
func thirdRune(s string) rune {
	i := 0
	for _, r := range s {
		if i == 2 {
			return r
		}
		i++
	}
	return 0
}

// OnPhoneNumberChange normalises raw against the selected country and
// returns the updated state. Parse failures are reported in the Result.
func (n *Normalizer) OnPhoneNumberChange(s State, raw string) (State, Result) {
	s.Raw = raw

	if s.Country.ISO2 == "br" && thirdRune(raw) == '9' {
		s.Mask = BrazilMobileMask
	} else {
		s.Mask = n.deriver.Mask(s.Country, true)
	}

	res := Result{FullNumber: ReconstructFullNumber(raw, s.Country)}

	num, err := n.plan.Parse(res.FullNumber)
	if err != nil {
		n.log.Debug().
			Err(err).
			Str("country", s.Country.ISO2).
			Str("number", res.FullNumber).
			Msg("phone number not parseable")
		res.Err = err
		return s, res
	}

	res.ParseSucceeded = true
	res.NationalNumber = num.GetNationalNumber()
	res.number = num
	s.MaskPrefix = "+" + s.Country.DialCode

	return s, res
}

// OnCountrySelect switches the selected country and resets the value for
// the new country.
func (n *Normalizer) OnCountrySelect(s State, c Country) (State, Result) {
	s = n.Select(s, c)
	return n.OnPhoneNumberChange(s, "")
}

// Select switches the selected country and re-derives placeholder, mask and
// prefix without touching the raw input.
func (n *Normalizer) Select(s State, c Country) State {
	s.Country = c
	s.Placeholder = n.deriver.Placeholder(c)
	s.Mask = n.deriver.Mask(c, true)
	s.MaskPrefix = "+" + c.DialCode
	return s
}
