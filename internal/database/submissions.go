package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("submission not found")

const submissionColumns = `id, reference, name, surname, phone_raw, phone_full,
	national_number, country_iso2, valid, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*Submission, error) {
	s := &Submission{}
	err := row.Scan(&s.ID, &s.Reference, &s.Name, &s.Surname, &s.PhoneRaw, &s.PhoneFull,
		&s.NationalNumber, &s.CountryISO2, &s.Valid, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSubmission stores s and fills in its ID, Reference and CreatedAt.
func (db *DB) CreateSubmission(ctx context.Context, s *Submission) error {
	s.Reference = uuid.NewString()
	s.CreatedAt = time.Now().UTC().Truncate(time.Second)

	err := db.QueryRowContext(ctx,
		`INSERT INTO submissions (reference, name, surname, phone_raw, phone_full,
			national_number, country_iso2, valid, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		s.Reference, s.Name, s.Surname, s.PhoneRaw, s.PhoneFull,
		s.NationalNumber, s.CountryISO2, s.Valid, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// GetSubmissionByReference retrieves a submission by its public reference
func (db *DB) GetSubmissionByReference(ctx context.Context, reference string) (*Submission, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE reference = $1`,
		reference,
	)

	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return s, nil
}

// GetAllSubmissions returns every submission, newest first
func (db *DB) GetAllSubmissions(ctx context.Context) ([]Submission, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var submissions []Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	return submissions, nil
}

// UpdateSubmissionPhone overwrites the normalised phone data of a submission.
// The raw input is left as typed.
func (db *DB) UpdateSubmissionPhone(ctx context.Context, id int64, u PhoneUpdate) error {
	result, err := db.ExecContext(ctx,
		`UPDATE submissions
		 SET phone_full = $1, national_number = $2, country_iso2 = $3, valid = $4
		 WHERE id = $5`,
		u.PhoneFull, u.NationalNumber, u.CountryISO2, u.Valid, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	return expectOneRow(result)
}

// DeleteSubmission deletes a submission by reference
func (db *DB) DeleteSubmission(ctx context.Context, reference string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM submissions WHERE reference = $1`, reference)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}

	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
