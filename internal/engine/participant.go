package engine

import (
	"time"

	"github.com/google/uuid"
)

/* Person holds the identity fields shared by people in the system */
type Person struct {
	FirstName string  `json:"FirstName"`
	LastName  string  `json:"LastName"`
	Email     string  `json:"Email"`
	Phone     *string `json:"Phone"`
}

/* Participant is a person enrolled under a client */
type Participant struct {
	ID       uuid.UUID `json:"id"`
	ClientId uuid.UUID `json:"ClientId"`
	Person
	OnboardingDate *time.Time `json:"OnboardingDate"`
	CreatedAt      time.Time  `json:"CreatedAt"`
	UpdatedAt      time.Time  `json:"UpdatedAt"`
}

/* CreateParticipantModel is a validated participant create request */
type CreateParticipantModel struct {
	ClientId       uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	Phone          *string
	OnboardingDate *time.Time
}
