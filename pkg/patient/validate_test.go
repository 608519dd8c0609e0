package patient

import (
	"testing"

	"github.com/clinicore/platform/pkg/common/models"
)

func validInput() models.NewPatientInput {
	return models.NewPatientInput{
		FirstName:   "Jana",
		LastName:    "Nová",
		BirthDate:   "1990-05-01",
		BirthNumber: "9005011234",
	}
}

func TestValidateNew(t *testing.T) {
	validator := NewValidator()

	if err := validator.ValidateNew(validInput()); err != nil {
		t.Fatalf("expected valid input to pass, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*models.NewPatientInput)
	}{
		{"missing first name", func(i *models.NewPatientInput) { i.FirstName = " " }},
		{"missing last name", func(i *models.NewPatientInput) { i.LastName = "" }},
		{"bad birth date", func(i *models.NewPatientInput) { i.BirthDate = "01.05.1990" }},
		{"future birth date", func(i *models.NewPatientInput) { i.BirthDate = "2999-01-01" }},
		{"short birth number", func(i *models.NewPatientInput) { i.BirthNumber = "1234" }},
		{"birth number with letters", func(i *models.NewPatientInput) { i.BirthNumber = "90050112ab" }},
		{"bad insurance number", func(i *models.NewPatientInput) { i.InsuranceNumber = "abc" }},
		{"bad email", func(i *models.NewPatientInput) { i.Email = "not-an-email" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			err := validator.ValidateNew(input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !IsValidationError(err) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateNewOptionalFieldsEmpty(t *testing.T) {
	input := validInput()
	input.InsuranceNumber = ""
	input.Email = ""
	if err := NewValidator().ValidateNew(input); err != nil {
		t.Fatalf("optional fields may be empty, got %v", err)
	}
}
