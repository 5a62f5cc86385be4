package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLanguageFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		cookie string
		accept string
		want   Language
	}{
		{name: "default", url: "/", want: Romanian},
		{name: "query", url: "/?lang=en", want: English},
		{name: "query wins over cookie", url: "/?lang=ro", cookie: "en", want: Romanian},
		{name: "cookie", url: "/", cookie: "en", want: English},
		{name: "unknown query falls through", url: "/?lang=fr", cookie: "en", want: English},
		{name: "accept language english", url: "/", accept: "en-US,en;q=0.9", want: English},
		{name: "accept language romanian", url: "/", accept: "ro-RO", want: Romanian},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "lang", Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			assert.Equal(t, tt.want, GetLanguageFromRequest(r))
		})
	}
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "Germany", CountryName(English, "de", "fallback"))
	assert.Equal(t, "Germania", CountryName(Romanian, "DE", "fallback"))
	assert.Equal(t, "fallback", CountryName(English, "not-a-region", "fallback"))
}

func TestT(t *testing.T) {
	assert.Equal(t, "Invalid phone number", T(English, MsgInvalidPhone))
	assert.Equal(t, "Număr de telefon invalid", T(Romanian, MsgInvalidPhone))
	assert.Equal(t, "missing_key", T(English, "missing_key"))
}
