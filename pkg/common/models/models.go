package models

import (
	"time"

	"github.com/google/uuid"
)

// CanonicalPatient is the unified view of a patient exposed to the rest of
// the application, regardless of which store a record originated in. The
// primary store owns the UUID identity; LegacyID is present once a legacy
// row is mirrored.
type CanonicalPatient struct {
	ID              uuid.UUID              `json:"id"`
	LegacyID        *int64                 `json:"legacy_id,omitempty"`
	FirstName       string                 `json:"first_name"`
	LastName        string                 `json:"last_name"`
	BirthDate       string                 `json:"birth_date"` // YYYY-MM-DD
	BirthNumber     string                 `json:"birth_number"`
	InsuranceNumber string                 `json:"insurance_number,omitempty"`
	Phone           string                 `json:"phone,omitempty"`
	Email           string                 `json:"email,omitempty"`
	Address         string                 `json:"address,omitempty"`
	AssignedDoctor  string                 `json:"assigned_doctor,omitempty"`
	ConsentAt       *time.Time             `json:"consent_at,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// NewPatientInput carries the canonical-shaped fields of a patient creation
// request. Field-level validation happens before it reaches the coordinator.
type NewPatientInput struct {
	FirstName       string                 `json:"first_name"`
	LastName        string                 `json:"last_name"`
	BirthDate       string                 `json:"birth_date"`
	BirthNumber     string                 `json:"birth_number"`
	InsuranceNumber string                 `json:"insurance_number,omitempty"`
	Phone           string                 `json:"phone,omitempty"`
	Email           string                 `json:"email,omitempty"`
	Address         string                 `json:"address,omitempty"`
	AssignedDoctor  string                 `json:"assigned_doctor,omitempty"`
	ConsentGranted  bool                   `json:"consent_granted,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// ActorContext identifies the already-authenticated caller. It is passed
// explicitly into write operations, never read from ambient state; the
// gateway in front of this service is responsible for authentication.
type ActorContext struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// ListQuery selects one source store, a filter and an ordering for a
// patient listing. Listings never merge both stores.
type ListQuery struct {
	Source   string `json:"source"` // primary (default) or legacy
	Search   string `json:"search,omitempty"`
	Sort     string `json:"sort,omitempty"`  // last_name, first_name, created_at
	Order    string `json:"order,omitempty"` // asc or desc
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type PatientPage struct {
	Items    []CanonicalPatient `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // patient.created, patient.backfilled
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// MagicLink is an expiring single-use token that lets an unauthenticated
// questionnaire submission act on behalf of one patient.
type MagicLink struct {
	Token     string    `json:"token"`
	PatientID uuid.UUID `json:"patient_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
