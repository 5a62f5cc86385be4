package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/AlexTLDR/intltel/internal/database"
	"github.com/AlexTLDR/intltel/internal/i18n"
	"github.com/AlexTLDR/intltel/internal/logger"
	"github.com/AlexTLDR/intltel/internal/widget"
	"github.com/AlexTLDR/intltel/templates"
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

var validate = validator.New()

// submitForm holds the posted demo form
type submitForm struct {
	Name    string `validate:"required,max=100"`
	Surname string `validate:"required,max=100"`
	Country string `validate:"required,len=2,alpha"`
	Phone   string `validate:"max=32"`
}

func parseSubmitForm(r *http.Request) (submitForm, error) {
	if err := r.ParseForm(); err != nil {
		return submitForm{}, err
	}
	return submitForm{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Surname: strings.TrimSpace(r.FormValue("surname")),
		Country: strings.ToLower(strings.TrimSpace(r.FormValue("country"))),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
	}, nil
}

// validateSubmission collects every problem with the form and the number
func validateSubmission(form submitForm, wgt *widget.Widget) error {
	var errs error
	errs = multierr.Append(errs, validate.Struct(form))
	errs = multierr.Append(errs, wgt.Validate())
	return errs
}

// submissionMessages turns validation failures into localised messages
func submissionMessages(err error, lang i18n.Language) []string {
	seen := make(map[string]bool)
	var messages []string
	for _, e := range multierr.Errors(err) {
		key := i18n.MsgInvalidRequest
		var verrs validator.ValidationErrors
		switch {
		case errors.As(e, &verrs):
			key = i18n.MsgRequired
		case errors.Is(e, widget.ErrRequired), errors.Is(e, widget.ErrInvalidNumber):
			key = phoneErrorKey(e)
		case errors.Is(e, widget.ErrNoSuchCountry):
			key = i18n.MsgUnknownCountry
		}
		if !seen[key] {
			seen[key] = true
			messages = append(messages, i18n.T(lang, key))
		}
	}
	return messages
}

// HandleSubmit validates the demo form and stores the number
func HandleSubmit(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.GetLanguageFromRequest(r)

		form, err := parseSubmitForm(r)
		if err != nil {
			http.Error(w, i18n.T(lang, i18n.MsgInvalidRequest), http.StatusBadRequest)
			return
		}

		pw, err := loadWidget(s, r)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load phone widget")
			http.Error(w, i18n.T(lang, i18n.MsgInvalidRequest), http.StatusInternalServerError)
			return
		}
		defer pw.Destroy()

		restoreErr := pw.Restore(widget.Snapshot{Country: form.Country, Raw: form.Phone, Touched: true})
		if err := multierr.Append(restoreErr, validateSubmission(form, pw.Widget)); err != nil {
			logger.Debug().Err(err).Msg("rejected submission")
			if err := pw.save(w, r); err != nil {
				logger.Warn().Err(err).Msg("failed to save phone widget session")
			}
			renderForm(w, r, form, pw.Widget, lang, submissionMessages(err, lang), http.StatusBadRequest)
			return
		}

		res := pw.CurrentResult()
		submission := &database.Submission{
			Name:           form.Name,
			Surname:        form.Surname,
			PhoneRaw:       form.Phone,
			PhoneFull:      res.FullNumber,
			NationalNumber: int64(res.NationalNumber),
			CountryISO2:    pw.SelectedCountry().ISO2,
			Valid:          true,
		}
		if e164, ok := pw.E164(); ok {
			submission.PhoneFull = e164
		}

		if err := s.GetDB().CreateSubmission(r.Context(), submission); err != nil {
			logger.Error().Err(err).Msg("failed to store submission")
			renderForm(w, r, form, pw.Widget, lang, []string{i18n.T(lang, i18n.MsgSubmitFailed)}, http.StatusInternalServerError)
			return
		}

		logger.Info().
			Str("reference", submission.Reference).
			Str("country", submission.CountryISO2).
			Msg("submission stored")

		if err := pw.reset(w, r); err != nil {
			logger.Warn().Err(err).Msg("failed to reset phone widget session")
		}

		http.Redirect(w, r, "/?submitted="+url.QueryEscape(submission.Reference), http.StatusSeeOther)
	}
}

func renderForm(w http.ResponseWriter, r *http.Request, form submitForm, wgt *widget.Widget, lang i18n.Language, errs []string, status int) {
	data := templates.HomeData{
		Lang:    string(lang),
		Name:    form.Name,
		Surname: form.Surname,
		Phone:   phoneField(wgt, lang),
		Errors:  errs,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Home(data).Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("failed to render form")
	}
}
