package handlers

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/AlexTLDR/intltel/internal/database"
	"github.com/AlexTLDR/intltel/internal/i18n"
	"github.com/AlexTLDR/intltel/internal/logger"
	"github.com/AlexTLDR/intltel/templates"
	"github.com/google/uuid"
)

// AdminServer extends Server with admin-specific methods
type AdminServer interface {
	Server
	GetCurrentUser(r *http.Request) (string, string)
}

// parseFormReference parses and validates a submission reference from a POST form
// Returns the reference and true if successful, or writes an error response and returns false
func parseFormReference(r *http.Request, w http.ResponseWriter) (string, bool) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/admin/submissions", http.StatusSeeOther)
		return "", false
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return "", false
	}

	reference := strings.TrimSpace(r.FormValue("reference"))
	if err := uuid.Validate(reference); err != nil {
		http.Error(w, "Invalid submission reference", http.StatusBadRequest)
		return "", false
	}

	return reference, true
}

// HandleAdminDashboard renders the admin dashboard
func HandleAdminDashboard(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, name := s.GetCurrentUser(r)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, `
			<!DOCTYPE html>
			<html>
			<head>
				<title>Admin Dashboard</title>
			</head>
			<body>
				<h1>Admin Dashboard</h1>
				<p>Welcome, %s (%s)</p>
				<nav>
					<a href="/admin/submissions">Submissions</a> |
					<a href="/admin/submissions.csv">CSV</a> |
					<a href="/auth/logout">Logout</a>
				</nav>
			</body>
			</html>
		`, html.EscapeString(name), html.EscapeString(email))
	}
}

// HandleAdminSubmissions lists all submissions
func HandleAdminSubmissions(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, userName := s.GetCurrentUser(r)

		submissions, err := s.GetDB().GetAllSubmissions(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("failed to load submissions")
			http.Error(w, "Failed to load submissions", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.AdminSubmissionsList(userName, submissions).Render(r.Context(), w); err != nil {
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
	}
}

// HandleAdminDeleteSubmission deletes a submission
func HandleAdminDeleteSubmission(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference, ok := parseFormReference(r, w)
		if !ok {
			return
		}

		if err := s.GetDB().DeleteSubmission(r.Context(), reference); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				http.Error(w, i18n.T(i18n.GetLanguageFromRequest(r), i18n.MsgNotFound), http.StatusNotFound)
				return
			}
			logger.Error().Err(err).Str("reference", reference).Msg("failed to delete submission")
			http.Error(w, "Failed to delete submission", http.StatusInternalServerError)
			return
		}

		email, _ := s.GetCurrentUser(r)
		logger.Info().Str("reference", reference).Str("admin", email).Msg("submission deleted")

		http.Redirect(w, r, "/admin/submissions", http.StatusSeeOther)
	}
}
