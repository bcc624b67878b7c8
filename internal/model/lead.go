package model

import "time"

// Lead is a persisted lead record as returned by a record store backend.
type Lead struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Source       string    `json:"source,omitempty"`
	Status       string    `json:"status,omitempty"`
	Organization string    `json:"organization,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Candidate is a normalized row ready to be submitted for creation.
// Name and Email are required for import; all other fields may be empty.
type Candidate struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Source       string `json:"source,omitempty"`
	Status       string `json:"status,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// Valid reports whether the candidate satisfies the required-field rule:
// trimmed name and email are both non-empty. Candidates are produced with
// name/email already trimmed, so a plain emptiness check suffices.
func (c Candidate) Valid() bool {
	return c.Name != "" && c.Email != ""
}

// LeadSource is a reference-data entry used to populate default-value choices.
type LeadSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LeadStatus is a reference-data entry used to populate default-value choices.
type LeadStatus struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
