package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Language string

const (
	Romanian Language = "ro"
	English  Language = "en"
)

var matcher = language.NewMatcher([]language.Tag{language.Romanian, language.English})

// GetLanguageFromRequest extracts language from request (query param, cookie, then Accept-Language)
func GetLanguageFromRequest(r *http.Request) Language {
	if lang, ok := parse(r.URL.Query().Get("lang")); ok {
		return lang
	}

	if cookie, err := r.Cookie("lang"); err == nil {
		if lang, ok := parse(cookie.Value); ok {
			return lang
		}
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(tags) > 0 {
			_, index, confidence := matcher.Match(tags...)
			if confidence != language.No && index == 1 {
				return English
			}
			if confidence != language.No {
				return Romanian
			}
		}
	}

	// Default to Romanian
	return Romanian
}

func parse(value string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ro":
		return Romanian, true
	case "en":
		return English, true
	}
	return "", false
}

// Tag returns the BCP 47 tag of the language
func (l Language) Tag() language.Tag {
	if l == English {
		return language.English
	}
	return language.Romanian
}

// CountryName returns the localized name of a region, or fallback when the
// region is unknown to CLDR
func CountryName(lang Language, iso2, fallback string) string {
	region, err := language.ParseRegion(iso2)
	if err != nil {
		return fallback
	}
	if name := display.Regions(lang.Tag()).Name(region); name != "" {
		return name
	}
	return fallback
}

// Message keys
const (
	MsgInvalidPhone   = "invalid_phone"
	MsgRequired       = "required"
	MsgUnknownCountry = "unknown_country"
	MsgInvalidRequest = "invalid_request"
	MsgSubmitFailed   = "submit_failed"
	MsgSubmitted      = "submitted"
	MsgNotFound       = "not_found"
)

var messages = map[Language]map[string]string{
	Romanian: {
		MsgInvalidPhone:   "Număr de telefon invalid",
		MsgRequired:       "Toate câmpurile sunt obligatorii",
		MsgUnknownCountry: "Țară necunoscută",
		MsgInvalidRequest: "Cerere invalidă",
		MsgSubmitFailed:   "Eroare la salvarea formularului",
		MsgSubmitted:      "Mulțumim! Formularul a fost trimis.",
		MsgNotFound:       "Nu a fost găsit",
	},
	English: {
		MsgInvalidPhone:   "Invalid phone number",
		MsgRequired:       "All fields are required",
		MsgUnknownCountry: "Unknown country",
		MsgInvalidRequest: "Invalid request",
		MsgSubmitFailed:   "Failed to save the form",
		MsgSubmitted:      "Thank you! The form was submitted.",
		MsgNotFound:       "Not found",
	},
}

// T returns the message for key in lang, falling back to the key itself
func T(lang Language, key string) string {
	if msg, ok := messages[lang][key]; ok {
		return msg
	}
	return key
}
