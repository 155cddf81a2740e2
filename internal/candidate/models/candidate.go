package models

import "time"

// Candidate is the record the workflow engine owns. Version backs the
// optimistic concurrency contract: every conditional write compares it
// against the value observed at read time and bumps it on success.
type Candidate struct {
	ID               int64            `json:"id"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Status           Status           `json:"status"`
	OnboardingStatus OnboardingStatus `json:"onboardingStatus"`
	Version          int64            `json:"version"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Document is one verifiable file owned by a candidate. Verified starts
// false and only ever flips to true through the verification gate.
type Document struct {
	ID          string    `json:"id"`
	CandidateID int64     `json:"candidateId"`
	Name        string    `json:"name"`
	BlobLocator string    `json:"blobLocator"`
	Verified    bool      `json:"verified"`
	UploadedAt  time.Time `json:"uploadedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BankInfo holds the candidate's payout details collected during onboarding.
type BankInfo struct {
	CandidateID   int64     `json:"candidateId"`
	BankName      string    `json:"bankName"`
	AccountNumber string    `json:"accountNumber"`
	IFSCCode      string    `json:"ifscCode"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Education holds the candidate's highest-degree record.
type Education struct {
	CandidateID int64     `json:"candidateId"`
	Degree      string    `json:"degree"`
	Institution string    `json:"institution"`
	PassingYear int       `json:"passingYear"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
