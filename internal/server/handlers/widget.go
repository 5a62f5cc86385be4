package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexTLDR/intltel/internal/i18n"
	"github.com/AlexTLDR/intltel/internal/logger"
	"github.com/AlexTLDR/intltel/internal/phone"
	"github.com/AlexTLDR/intltel/internal/widget"
	"github.com/AlexTLDR/intltel/templates"
	"github.com/gorilla/sessions"
)

const (
	widgetSessionName = "phone-widget"
	snapshotKey       = "snapshot"
)

// phoneWidget is a widget bound to the request's session.
type phoneWidget struct {
	*widget.Widget
	focus   *widget.FocusTracker
	session *sessions.Session
}

// newWidget builds a widget from the phone configuration.
func newWidget(s Server) (*widget.Widget, *widget.FocusTracker, error) {
	cfg := s.GetConfig().Phone
	log := logger.Component("widget")
	focus := widget.NewFocusTracker()

	opts := widget.DefaultOptions()
	opts.PreferredCountries = cfg.PreferredCountries
	opts.OnlyCountries = cfg.OnlyCountries
	opts.DefaultCountry = cfg.DefaultCountry
	opts.EnablePlaceholder = cfg.EnablePlaceholder
	opts.EnableMask = cfg.EnableMask
	opts.Required = cfg.Required
	opts.FocusMonitor = focus
	opts.Logger = &log

	w, err := widget.New(s.GetRegistry(), s.GetNormalizer(), opts)
	if err != nil {
		return nil, nil, err
	}
	return w, focus, nil
}

// loadWidget restores the widget kept in the session. A fresh session
// starts from the configured initial value.
func loadWidget(s Server, r *http.Request) (*phoneWidget, error) {
	w, focus, err := newWidget(s)
	if err != nil {
		return nil, err
	}

	// a session that fails to decode is replaced by a new one
	session, _ := s.GetSessionStore().Get(r, widgetSessionName)
	pw := &phoneWidget{Widget: w, focus: focus, session: session}

	if raw, ok := session.Values[snapshotKey].(string); ok && raw != "" {
		var snap widget.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			logger.Warn().Err(err).Msg("discarding unreadable widget snapshot")
			return pw, nil
		}
		if err := w.Restore(snap); err != nil {
			logger.Warn().Err(err).Str("country", snap.Country).Msg("widget snapshot restored partially")
		}
		return pw, nil
	}

	if initial := s.GetConfig().Phone.InitialValue; initial != "" {
		if err := w.WriteValue(initial); err != nil {
			logger.Warn().Err(err).Str("value", initial).Msg("ignoring initial phone value")
			return pw, nil
		}
		if err := w.Settle(r.Context()); err != nil {
			return nil, err
		}
	}

	return pw, nil
}

// save stores the widget snapshot in the session.
func (pw *phoneWidget) save(w http.ResponseWriter, r *http.Request) error {
	data, err := json.Marshal(pw.Snapshot())
	if err != nil {
		return err
	}
	pw.session.Values[snapshotKey] = string(data)
	return pw.session.Save(r, w)
}

// reset clears the widget from the session.
func (pw *phoneWidget) reset(w http.ResponseWriter, r *http.Request) error {
	delete(pw.session.Values, snapshotKey)
	return pw.session.Save(r, w)
}

type countryView struct {
	ISO2        string `json:"iso2"`
	Name        string `json:"name"`
	DialCode    string `json:"dialCode"`
	FlagClass   string `json:"flagClass"`
	Placeholder string `json:"placeholder"`
}

func newCountryView(c phone.Country, lang i18n.Language) countryView {
	return countryView{
		ISO2:        c.ISO2,
		Name:        i18n.CountryName(lang, c.ISO2, c.Name),
		DialCode:    c.DialCode,
		FlagClass:   c.FlagClass,
		Placeholder: c.Placeholder,
	}
}

// widgetView is the JSON answer of the phone API.
type widgetView struct {
	ID               string      `json:"id"`
	Country          countryView `json:"country"`
	Raw              string      `json:"raw"`
	Mask             string      `json:"mask"`
	MaskPrefix       string      `json:"maskPrefix"`
	Placeholder      string      `json:"placeholder"`
	Value            any         `json:"value"`
	FullNumber       string      `json:"fullNumber"`
	ParseSucceeded   bool        `json:"parseSucceeded"`
	E164             string      `json:"e164,omitempty"`
	Empty            bool        `json:"empty"`
	ShouldLabelFloat bool        `json:"shouldLabelFloat"`
	Touched          bool        `json:"touched"`
	ErrorState       bool        `json:"errorState"`
	Error            string      `json:"error,omitempty"`
}

func newWidgetView(w *widget.Widget, lang i18n.Language) widgetView {
	state := w.State()
	res := w.CurrentResult()
	e164, _ := w.E164()

	v := widgetView{
		ID:               w.ID(),
		Country:          newCountryView(state.Country, lang),
		Raw:              state.Raw,
		Mask:             state.Mask,
		MaskPrefix:       state.MaskPrefix,
		Placeholder:      state.Placeholder,
		Value:            w.CurrentValue(),
		FullNumber:       res.FullNumber,
		ParseSucceeded:   res.ParseSucceeded,
		E164:             e164,
		Empty:            w.Empty(),
		ShouldLabelFloat: w.ShouldLabelFloat(),
		Touched:          w.Touched(),
		ErrorState:       w.ErrorState(),
	}
	if v.ErrorState {
		v.Error = i18n.T(lang, phoneErrorKey(w.Validate()))
	}
	return v
}

func phoneErrorKey(err error) string {
	if errors.Is(err, widget.ErrRequired) {
		return i18n.MsgRequired
	}
	return i18n.MsgInvalidPhone
}

func countryOptions(countries []phone.Country, lang i18n.Language) []templates.CountryOption {
	out := make([]templates.CountryOption, 0, len(countries))
	for _, c := range countries {
		v := newCountryView(c, lang)
		out = append(out, templates.CountryOption{
			ISO2:        v.ISO2,
			Name:        v.Name,
			DialCode:    v.DialCode,
			FlagClass:   v.FlagClass,
			Placeholder: v.Placeholder,
		})
	}
	return out
}

// phoneField renders the widget for the demo form.
func phoneField(w *widget.Widget, lang i18n.Language) templates.PhoneField {
	state := w.State()
	return templates.PhoneField{
		ID:          w.ID(),
		Selected:    state.Country.ISO2,
		Raw:         state.Raw,
		Placeholder: state.Placeholder,
		Mask:        state.Mask,
		MaskPrefix:  state.MaskPrefix,
		Required:    w.Required(),
		Disabled:    w.Disabled(),
		ErrorState:  w.ErrorState(),
		Float:       w.ShouldLabelFloat(),
		Preferred:   countryOptions(w.PreferredCountries(), lang),
		Countries:   countryOptions(w.Countries(), lang),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, lang i18n.Language, key string) {
	writeJSON(w, status, map[string]string{"error": i18n.T(lang, key)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
