package templates

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/AlexTLDR/intltel/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome(t *testing.T) {
	data := HomeData{
		Lang:   "en",
		Name:   `<b>Ana</b>`,
		Errors: []string{"Invalid phone number"},
		Phone: PhoneField{
			ID:          "intl-tel-input-0",
			Selected:    "ro",
			Raw:         "721234567",
			Placeholder: "  21 123 4567",
			MaskPrefix:  "+40",
			Preferred:   []CountryOption{{ISO2: "ro", Name: "Romania", DialCode: "40", FlagClass: "RO"}},
			Countries: []CountryOption{
				{ISO2: "br", Name: "Brazil", DialCode: "55", FlagClass: "BR"},
				{ISO2: "ro", Name: "Romania", DialCode: "40", FlagClass: "RO"},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Home(data).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `<html lang="en">`)
	assert.Contains(t, html, "International phone number")
	assert.Contains(t, html, "&lt;b&gt;Ana&lt;/b&gt;")
	assert.NotContains(t, html, "<b>Ana</b>")
	assert.Contains(t, html, "<li>Invalid phone number</li>")
	assert.Contains(t, html, `<span class="prefix">+40</span>`)
	assert.Contains(t, html, `value="721234567"`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(" selected>")))
}

func TestAdminSubmissionsList(t *testing.T) {
	subs := []database.Submission{{
		Reference:   "ref-1",
		Name:        "Ana",
		Surname:     "Pop",
		PhoneRaw:    "0721",
		PhoneFull:   "+40721234567",
		CountryISO2: "ro",
		Valid:       true,
		CreatedAt:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, AdminSubmissionsList("Admin", subs).Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), "Submissions (1)")
	assert.Contains(t, buf.String(), "+40721234567")
	assert.Contains(t, buf.String(), `value="ref-1"`)
	assert.Contains(t, buf.String(), "2026-03-01 10:30")
}
