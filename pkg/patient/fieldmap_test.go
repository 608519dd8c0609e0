package patient

import (
	"testing"
	"time"

	"github.com/clinicore/platform/pkg/common/models"
)

func TestMapInputToLegacy(t *testing.T) {
	input := models.NewPatientInput{
		FirstName:       "Jana",
		LastName:        "Nová",
		BirthDate:       "1990-05-01",
		BirthNumber:     "9005011234",
		InsuranceNumber: "123456789",
		Phone:           "+420777123456",
		Email:           "jana@example.com",
	}

	row := MapInputToLegacy(input)
	if row.FirstName != "Jana" {
		t.Fatalf("expected other_names Jana, got %q", row.FirstName)
	}
	if row.LastName != "Nová" {
		t.Fatalf("expected name Nová, got %q", row.LastName)
	}
	if row.BirthDate != time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("expected dob 1990-05-01, got %v", row.BirthDate)
	}
	if row.HospitalNumber != "9005011234" {
		t.Fatalf("expected hospital_number 9005011234, got %q", row.HospitalNumber)
	}
	if row.OHIP != "123456789" {
		t.Fatalf("expected ohip 123456789, got %q", row.OHIP)
	}
}

func TestFieldRoundTrip(t *testing.T) {
	input := models.NewPatientInput{
		FirstName:       "Jana",
		LastName:        "Nová",
		BirthDate:       "1990-05-01",
		BirthNumber:     "9005011234",
		InsuranceNumber: "123456789",
		Phone:           "+420777123456", // no legacy column, dropped
		Address:         "Hlavní 12",     // no legacy column, dropped
	}

	back := MapLegacyToInput(MapInputToLegacy(input))

	if back.FirstName != input.FirstName || back.LastName != input.LastName {
		t.Fatalf("names did not survive round trip: %+v", back)
	}
	if back.BirthDate != input.BirthDate {
		t.Fatalf("birth date did not survive round trip: %q", back.BirthDate)
	}
	if back.BirthNumber != input.BirthNumber || back.InsuranceNumber != input.InsuranceNumber {
		t.Fatalf("identifiers did not survive round trip: %+v", back)
	}
	if back.Phone != "" || back.Address != "" {
		t.Fatalf("fields without a legacy column should come back empty, got %+v", back)
	}
}

func TestMapLegacyToCanonical(t *testing.T) {
	row := LegacyPatientRow{
		ID:             42,
		Site:           "CL1",
		LastName:       "Nová",
		FirstName:      "Jana",
		BirthDate:      time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		HospitalNumber: "9005011234",
		OHIP:           "123456789",
	}

	patient := MapLegacyToCanonical(row)
	if patient.LegacyID == nil || *patient.LegacyID != 42 {
		t.Fatalf("expected legacy id 42, got %v", patient.LegacyID)
	}
	if patient.BirthDate != "1990-05-01" {
		t.Fatalf("expected birth date 1990-05-01, got %q", patient.BirthDate)
	}
	if patient.ID.String() != "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("legacy rows must not invent a primary identity, got %v", patient.ID)
	}
	if patient.Phone != "" || patient.Email != "" || patient.Address != "" {
		t.Fatalf("legacy rows carry no contact fields, got %+v", patient)
	}
}

func TestMapLegacyToCanonicalUnsavedRow(t *testing.T) {
	patient := MapLegacyToCanonical(LegacyPatientRow{LastName: "Nová"})
	if patient.LegacyID != nil {
		t.Fatalf("row without an id must not claim a legacy link, got %v", *patient.LegacyID)
	}
}
