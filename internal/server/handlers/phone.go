package handlers

import (
	"errors"
	"net/http"

	"github.com/AlexTLDR/intltel/internal/i18n"
	"github.com/AlexTLDR/intltel/internal/logger"
	"github.com/AlexTLDR/intltel/internal/widget"
)

// HandleCountries lists the selectable countries, preferred ones separately
func HandleCountries(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.GetLanguageFromRequest(r)

		wgt, _, err := newWidget(s)
		if err != nil {
			logger.Error().Err(err).Msg("failed to build phone widget")
			writeJSONError(w, http.StatusInternalServerError, lang, i18n.MsgInvalidRequest)
			return
		}
		defer wgt.Destroy()

		preferred := wgt.PreferredCountries()
		countries := wgt.Countries()

		resp := struct {
			Preferred []countryView `json:"preferred"`
			Countries []countryView `json:"countries"`
		}{
			Preferred: make([]countryView, 0, len(preferred)),
			Countries: make([]countryView, 0, len(countries)),
		}
		for _, c := range preferred {
			resp.Preferred = append(resp.Preferred, newCountryView(c, lang))
		}
		for _, c := range countries {
			resp.Countries = append(resp.Countries, newCountryView(c, lang))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// phoneAction applies one widget event and answers with the new view.
func phoneAction[T any](s Server, apply func(pw *phoneWidget, req T) (int, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.GetLanguageFromRequest(r)

		var req T
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, lang, i18n.MsgInvalidRequest)
			return
		}

		pw, err := loadWidget(s, r)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load phone widget")
			writeJSONError(w, http.StatusInternalServerError, lang, i18n.MsgInvalidRequest)
			return
		}
		defer pw.Destroy()

		if status, key := apply(pw, req); status != http.StatusOK {
			writeJSONError(w, status, lang, key)
			return
		}

		if err := pw.save(w, r); err != nil {
			logger.Error().Err(err).Msg("failed to save phone widget session")
			writeJSONError(w, http.StatusInternalServerError, lang, i18n.MsgInvalidRequest)
			return
		}

		writeJSON(w, http.StatusOK, newWidgetView(pw.Widget, lang))
	}
}

type countryRequest struct {
	ISO2 string `json:"iso2"`
}

// HandlePhoneCountry selects a country and resets the number
func HandlePhoneCountry(s Server) http.HandlerFunc {
	return phoneAction(s, func(pw *phoneWidget, req countryRequest) (int, string) {
		if _, err := pw.SelectCountry(req.ISO2); err != nil {
			if errors.Is(err, widget.ErrNoSuchCountry) {
				return http.StatusBadRequest, i18n.MsgUnknownCountry
			}
			return http.StatusInternalServerError, i18n.MsgInvalidRequest
		}
		return http.StatusOK, ""
	})
}

type inputRequest struct {
	Value string `json:"value"`
}

// HandlePhoneInput normalises the typed number
func HandlePhoneInput(s Server) http.HandlerFunc {
	return phoneAction(s, func(pw *phoneWidget, req inputRequest) (int, string) {
		pw.Input(req.Value)
		return http.StatusOK, ""
	})
}

type focusRequest struct {
	Focused bool `json:"focused"`
}

// HandlePhoneFocus relays focus and blur of the number field
func HandlePhoneFocus(s Server) http.HandlerFunc {
	return phoneAction(s, func(pw *phoneWidget, req focusRequest) (int, string) {
		pw.focus.Set(req.Focused)
		return http.StatusOK, ""
	})
}

type keyRequest struct {
	Key string `json:"key"`
}

// HandlePhoneKey reports whether a key may be typed into the number field
func HandlePhoneKey(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.GetLanguageFromRequest(r)

		var req keyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, lang, i18n.MsgInvalidRequest)
			return
		}

		wgt, _, err := newWidget(s)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, lang, i18n.MsgInvalidRequest)
			return
		}
		defer wgt.Destroy()

		writeJSON(w, http.StatusOK, map[string]bool{"allowed": wgt.KeyAllowed(req.Key)})
	}
}
