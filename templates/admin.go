package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/AlexTLDR/intltel/internal/database"
	"github.com/a-h/templ"
)

// AdminSubmissionsList renders the stored submissions with a delete button each.
func AdminSubmissionsList(userName string, submissions []database.Submission) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}

		p.raw(`<!DOCTYPE html><html lang="ro"><head><meta charset="utf-8"><title>Submissions</title></head><body>`)
		p.raw(`<header><p>`)
		p.text(userName)
		p.raw(`</p><nav><a href="/admin">Dashboard</a> | <a href="/admin/submissions.csv">CSV</a> | <a href="/auth/logout">Logout</a></nav></header>`)
		p.raw(`<h1>Submissions (`)
		p.text(strconv.Itoa(len(submissions)))
		p.raw(`)</h1>`)

		if len(submissions) == 0 {
			p.raw(`<p>Nicio înregistrare.</p></body></html>`)
			return p.err
		}

		p.raw(`<table><thead><tr><th>Nume</th><th>Țară</th><th>Introdus</th><th>Număr</th><th>Valid</th><th>Data</th><th></th></tr></thead><tbody>`)
		for _, s := range submissions {
			p.raw(`<tr><td>`)
			p.text(s.Name + " " + s.Surname)
			p.raw(`</td><td>`)
			p.text(s.CountryISO2)
			p.raw(`</td><td>`)
			p.text(s.PhoneRaw)
			p.raw(`</td><td>`)
			p.text(s.PhoneFull)
			p.raw(`</td><td>`)
			if s.Valid {
				p.raw(`Da`)
			} else {
				p.raw(`Nu`)
			}
			p.raw(`</td><td>`)
			p.text(s.CreatedAt.Format("2006-01-02 15:04"))
			p.raw(`</td><td><form method="post" action="/admin/submissions/delete"><input type="hidden" name="reference" value="`)
			p.text(s.Reference)
			p.raw(`"><button type="submit">Șterge</button></form></td></tr>`)
		}
		p.raw(`</tbody></table></body></html>`)

		return p.err
	})
}
