package patient

import (
	"time"

	"github.com/clinicore/platform/pkg/common/models"
)

const dateLayout = "2006-01-02"

// The legacy schema accepts only its fixed column subset. Canonical fields
// with no legacy column are dropped when writing to the legacy store and
// live exclusively in the primary store. Kept as an explicit list so the
// gap is visible in code rather than silently implied by the mapping below.
var LegacyDroppedFields = []string{
	"phone",
	"email",
	"address",
	"assigned_doctor",
	"consent_at",
	"metadata",
}

// MapInputToLegacy translates a canonical creation input into the legacy
// row shape. The birth date must already be validated; an unparseable date
// maps to the zero time. The site discriminator is stamped by the legacy
// repository on insert.
func MapInputToLegacy(input models.NewPatientInput) LegacyPatientRow {
	birthDate, _ := time.Parse(dateLayout, input.BirthDate)
	return LegacyPatientRow{
		LastName:       input.LastName,
		FirstName:      input.FirstName,
		BirthDate:      birthDate,
		HospitalNumber: input.BirthNumber,
		OHIP:           input.InsuranceNumber,
	}
}

// MapLegacyToCanonical translates a legacy row into canonical shape. The
// result has no primary-store identity; the resolver assigns one when it
// backfills a mirror.
func MapLegacyToCanonical(row LegacyPatientRow) models.CanonicalPatient {
	legacyID := row.ID
	patient := models.CanonicalPatient{
		LastName:        row.LastName,
		FirstName:       row.FirstName,
		BirthDate:       row.BirthDate.Format(dateLayout),
		BirthNumber:     row.HospitalNumber,
		InsuranceNumber: row.OHIP,
	}
	if legacyID != 0 {
		patient.LegacyID = &legacyID
	}
	return patient
}

// MapLegacyToInput is the reverse of MapInputToLegacy over the fields the
// legacy schema supports.
func MapLegacyToInput(row LegacyPatientRow) models.NewPatientInput {
	return models.NewPatientInput{
		LastName:        row.LastName,
		FirstName:       row.FirstName,
		BirthDate:       row.BirthDate.Format(dateLayout),
		BirthNumber:     row.HospitalNumber,
		InsuranceNumber: row.OHIP,
	}
}
