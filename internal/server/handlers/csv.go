package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/AlexTLDR/intltel/internal/database"
	"github.com/AlexTLDR/intltel/internal/logger"
)

// csvRowData holds formatted data for a single CSV row
type csvRowData struct {
	name           string
	surname        string
	country        string
	phoneRaw       string
	phoneFull      string
	nationalNumber string
	valid          string
	createdAt      string
	reference      string
}

// escapeCSVField escapes a string for CSV format. Cells that a spreadsheet
// would evaluate as a formula are prefixed with a single quote.
func escapeCSVField(field string) string {
	// Escape double quotes by doubling them
	escaped := strings.ReplaceAll(field, "\"", "\"\"")
	escaped = strings.ReplaceAll(escaped, "\n", " ")
	if escaped != "" && strings.ContainsRune("=+-@\t\r", rune(escaped[0])) {
		escaped = "'" + escaped
	}
	return escaped
}

// formatSubmissionForCSV converts a submission to CSV row data
func formatSubmissionForCSV(s database.Submission) csvRowData {
	row := csvRowData{
		name:           escapeCSVField(s.Name),
		surname:        escapeCSVField(s.Surname),
		country:        strings.ToUpper(s.CountryISO2),
		phoneRaw:       escapeCSVField(s.PhoneRaw),
		phoneFull:      escapeCSVField(s.PhoneFull),
		nationalNumber: "-",
		valid:          "Nu",
		createdAt:      s.CreatedAt.Format("2006-01-02 15:04:05"),
		reference:      s.Reference,
	}

	if s.NationalNumber > 0 {
		row.nationalNumber = fmt.Sprintf("%d", s.NationalNumber)
	}

	if s.Valid {
		row.valid = "Da"
	}

	return row
}

// buildCSVRow creates a CSV line from row data
func buildCSVRow(row csvRowData) string {
	return fmt.Sprintf("\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\"\n",
		row.name, row.surname, row.country, row.phoneRaw, row.phoneFull,
		row.nationalNumber, row.valid, row.createdAt, row.reference)
}

// writeCSVHeaders sets HTTP headers and writes CSV header row
func writeCSVHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=submissions.csv")

	// Write UTF-8 BOM for Excel compatibility
	_, _ = w.Write([]byte{0xEF, 0xBB, 0xBF})

	_, _ = w.Write([]byte("Prenume,Nume,Țară,Introdus,Număr,Număr național,Valid,Data,Referință\n"))
}

// HandleAdminDownloadCSV exports submissions to CSV
func HandleAdminDownloadCSV(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissions, err := s.GetDB().GetAllSubmissions(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("failed to load submissions")
			http.Error(w, "Failed to load submissions", http.StatusInternalServerError)
			return
		}

		writeCSVHeaders(w)

		for _, sub := range submissions {
			line := buildCSVRow(formatSubmissionForCSV(sub))
			_, _ = w.Write([]byte(line))
		}
	}
}
