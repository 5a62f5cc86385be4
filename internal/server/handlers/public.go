package handlers

import (
	"net/http"

	"github.com/AlexTLDR/intltel/internal/config"
	"github.com/AlexTLDR/intltel/internal/database"
	"github.com/AlexTLDR/intltel/internal/i18n"
	"github.com/AlexTLDR/intltel/internal/logger"
	"github.com/AlexTLDR/intltel/internal/phone"
	"github.com/AlexTLDR/intltel/templates"
	"github.com/gorilla/sessions"
)

// Server interface defines the methods needed by handlers
type Server interface {
	GetDB() *database.DB
	GetConfig() *config.Config
	GetRegistry() *phone.Registry
	GetNormalizer() *phone.Normalizer
	GetSessionStore() sessions.Store
}

// loadSubmittedNotice returns the thank-you notice for a stored reference
func loadSubmittedNotice(s Server, r *http.Request, lang i18n.Language) string {
	reference := r.URL.Query().Get("submitted")
	if reference == "" {
		return ""
	}

	submission, err := s.GetDB().GetSubmissionByReference(r.Context(), reference)
	if err != nil {
		logger.Debug().Err(err).Str("reference", reference).Msg("submitted reference not found")
		return ""
	}

	return i18n.T(lang, i18n.MsgSubmitted) + " " + submission.Reference
}

// HandleHome renders the demo form
func HandleHome(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.GetLanguageFromRequest(r)

		pw, err := loadWidget(s, r)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load phone widget")
			http.Error(w, i18n.T(lang, i18n.MsgInvalidRequest), http.StatusInternalServerError)
			return
		}
		defer pw.Destroy()

		if err := pw.save(w, r); err != nil {
			logger.Warn().Err(err).Msg("failed to save phone widget session")
		}

		data := templates.HomeData{
			Lang:   string(lang),
			Phone:  phoneField(pw.Widget, lang),
			Notice: loadSubmittedNotice(s, r, lang),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Home(data).Render(r.Context(), w); err != nil {
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
	}
}
