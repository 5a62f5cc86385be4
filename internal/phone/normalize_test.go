package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	brazil = Country{Name: "Brazil", ISO2: "br", DialCode: "55"}
	usa    = Country{Name: "United States", ISO2: "us", DialCode: "1"}
	// four-character NANP dial code as some datasets list them
	jamaica = Country{Name: "Jamaica", ISO2: "jm", DialCode: "1876"}
)

func TestReconstructFullNumber(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		country Country
		want    string
	}{
		{name: "national digits get the dial code", raw: "91234567", country: brazil, want: "+5591234567"},
		{name: "mask formatting is stripped", raw: " 11 2345-6789", country: brazil, want: "+551123456789"},
		{name: "surrounding spaces are trimmed", raw: "  2015550123  ", country: usa, want: "+12015550123"},
		{name: "plus input keeps its own code", raw: "+55 11 2345-6789", country: usa, want: "551123456789"},
		{name: "empty input is just the dial code", raw: "", country: brazil, want: "+55"},
		{name: "letters only", raw: "abc", country: brazil, want: "+55"},
		{name: "leading one with nanp", raw: "1 201 555 0123", country: usa, want: "+112015550123"},
		{name: "four digit nanp code", raw: "5550123", country: jamaica, want: "+18765550123"},
		{name: "four digit nanp code with plus", raw: "+1 876 555 0123", country: jamaica, want: "18765550123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconstructFullNumber(tt.raw, tt.country))
		})
	}
}

func TestReconstructFullNumber_Idempotent(t *testing.T) {
	inputs := []struct {
		raw     string
		country Country
	}{
		{"+5511987654321", brazil},
		{"+12015550123", usa},
		{"+18765550123", jamaica},
	}

	for _, in := range inputs {
		first := ReconstructFullNumber(in.raw, in.country)
		second := ReconstructFullNumber("+"+first, in.country)
		assert.Equal(t, digits(first), digits(second), in.raw)
		assert.Equal(t, digits(in.raw), digits(first), in.raw)
	}
}

func digits(s string) string {
	return nonDigitRegex.ReplaceAllString(s, "")
}

func TestNormalizer_OnPhoneNumberChange(t *testing.T) {
	n := NewNormalizer(LibPlan{})
	s := n.Select(State{}, brazil)

	s, res := n.OnPhoneNumberChange(s, "91234567")
	assert.Equal(t, "91234567", s.Raw)
	assert.Equal(t, "+5591234567", res.FullNumber)
	require.True(t, res.ParseSucceeded)
	assert.NoError(t, res.Err)
	assert.Equal(t, uint64(91234567), res.NationalNumber)
	assert.Equal(t, uint64(91234567), res.Value())
	assert.Equal(t, "+55", s.MaskPrefix)
	assert.Equal(t, n.Deriver().Mask(brazil, true), s.Mask)
	require.NotNil(t, res.Number())
	assert.Equal(t, int32(55), res.Number().GetCountryCode())
}

func TestNormalizer_BrazilMobileMask(t *testing.T) {
	n := NewNormalizer(LibPlan{})
	s := n.Select(State{}, brazil)

	for _, raw := range []string{"119", "11987654321", "ab9", "  9", "xx9-garbage", "é19", "ăș9"} {
		next, _ := n.OnPhoneNumberChange(s, raw)
		assert.Equal(t, BrazilMobileMask, next.Mask, raw)
	}

	for _, raw := range []string{"1123456789", "é91", "9", "19"} {
		next, _ := n.OnPhoneNumberChange(s, raw)
		assert.NotEqual(t, BrazilMobileMask, next.Mask, raw)
	}

	// only Brazil gets the mobile mask
	other := n.Select(State{}, usa)
	next, _ := n.OnPhoneNumberChange(other, "119")
	assert.Equal(t, n.Deriver().Mask(usa, true), next.Mask)
}

func TestNormalizer_ParseFailure(t *testing.T) {
	n := NewNormalizer(LibPlan{})
	s := n.Select(State{}, brazil)

	var res Result
	assert.NotPanics(t, func() {
		s, res = n.OnPhoneNumberChange(s, "abc")
	})
	assert.False(t, res.ParseSucceeded)
	assert.ErrorIs(t, res.Err, ErrUnparseableNumber)
	assert.Equal(t, "+55", res.FullNumber)
	assert.Equal(t, "+55", res.Value())
	assert.Zero(t, res.NationalNumber)
	assert.Nil(t, res.Number())
}

func TestNormalizer_CountrySwitchResets(t *testing.T) {
	n := NewNormalizer(LibPlan{})

	viaOther, _ := n.OnCountrySelect(State{}, usa)
	viaOther, resA := n.OnCountrySelect(viaOther, brazil)

	direct, resB := n.OnCountrySelect(State{}, brazil)

	assert.Equal(t, direct, viaOther)
	assert.Equal(t, resB.Value(), resA.Value())
	assert.Equal(t, resB.ParseSucceeded, resA.ParseSucceeded)
	assert.Equal(t, "+55", direct.MaskPrefix)
	assert.Equal(t, "", direct.Raw)
}

func TestLibPlan(t *testing.T) {
	plan := LibPlan{}

	_, err := plan.Parse("")
	assert.ErrorIs(t, err, ErrUnparseableNumber)

	_, err = plan.Parse("0721234567")
	assert.ErrorIs(t, err, ErrUnparseableNumber, "no default region is assumed")

	num, err := plan.Parse("+40721234567")
	require.NoError(t, err)
	assert.True(t, plan.IsValid(num))
	assert.Equal(t, "ro", plan.RegionFor(num))

	assert.False(t, plan.IsValid(nil))
	assert.Equal(t, "", plan.RegionFor(nil))
}
