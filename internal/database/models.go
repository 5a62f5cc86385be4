package database

import "time"

// Submission is one phone number sent through the demo form.
type Submission struct {
	ID             int64
	Reference      string
	Name           string
	Surname        string
	PhoneRaw       string
	PhoneFull      string
	NationalNumber int64
	CountryISO2    string
	Valid          bool
	CreatedAt      time.Time
}

// PhoneUpdate is the normalised phone data written back by a re-run.
type PhoneUpdate struct {
	PhoneFull      string
	NationalNumber int64
	CountryISO2    string
	Valid          bool
}
