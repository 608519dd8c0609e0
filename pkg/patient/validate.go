package patient

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/clinicore/platform/pkg/common/models"
)

var (
	errNameRequired       = errors.New("first and last name required")
	errInvalidBirthDate   = errors.New("invalid birth date")
	errInvalidBirthNumber = errors.New("invalid birth number")
	errInvalidInsurance   = errors.New("invalid insurance number")
	errInvalidEmail       = errors.New("invalid email")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

var (
	birthNumberPattern = regexp.MustCompile(`^[0-9]{9,10}$`)
	insurancePattern   = regexp.MustCompile(`^[0-9]{6,12}$`)
	emailPattern       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateNew checks a creation input field by field. It runs before any
// store is touched; a rejected input leaves both stores untouched.
func (v *Validator) ValidateNew(input models.NewPatientInput) error {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return ValidationError{reason: errNameRequired}
	}

	birthDate, err := time.Parse(dateLayout, input.BirthDate)
	if err != nil {
		return ValidationError{reason: fmt.Errorf("%q is not a YYYY-MM-DD date: %w", input.BirthDate, errInvalidBirthDate)}
	}
	if birthDate.After(time.Now()) {
		return ValidationError{reason: fmt.Errorf("birth date in the future: %w", errInvalidBirthDate)}
	}

	if !birthNumberPattern.MatchString(input.BirthNumber) {
		return ValidationError{reason: errInvalidBirthNumber}
	}

	if input.InsuranceNumber != "" && !insurancePattern.MatchString(input.InsuranceNumber) {
		return ValidationError{reason: errInvalidInsurance}
	}

	if input.Email != "" && !emailPattern.MatchString(input.Email) {
		return ValidationError{reason: errInvalidEmail}
	}

	return nil
}
