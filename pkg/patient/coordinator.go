package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicore/platform/pkg/common/logger"
	"github.com/clinicore/platform/pkg/common/models"
	"github.com/google/uuid"
)

const (
	EventPatientCreated    = "patient.created"
	EventPatientBackfilled = "patient.backfilled"

	eventSource = "patient-service"
)

// sagaState tags the progress of one dual write so every transition is
// inspectable in the log, rather than being implicit in control flow.
type sagaState string

const (
	sagaStarted        sagaState = "started"
	sagaLegacyWritten  sagaState = "legacy_written"
	sagaPrimaryWritten sagaState = "primary_written"
	sagaCompensated    sagaState = "compensated"
	sagaOrphanLogged   sagaState = "orphan_logged"
)

// UpstreamWriteError reports that the legacy insert itself failed. Nothing
// was written, so there is nothing to compensate and the caller may simply
// retry.
type UpstreamWriteError struct {
	Err error
}

func (e *UpstreamWriteError) Error() string {
	return fmt.Sprintf("legacy write failed: %v", e.Err)
}

func (e *UpstreamWriteError) Unwrap() error {
	return e.Err
}

// DualWriteError reports that the primary insert failed after the legacy
// insert succeeded. CompensationSucceeded says whether the legacy row was
// deleted again; when false, an orphaned legacy row remains and has been
// logged for manual reconciliation.
type DualWriteError struct {
	LegacyID              int64
	CompensationSucceeded bool
	Err                   error
}

func (e *DualWriteError) Error() string {
	if e.CompensationSucceeded {
		return fmt.Sprintf("primary write failed (legacy row %d compensated): %v", e.LegacyID, e.Err)
	}
	return fmt.Sprintf("primary write failed (legacy row %d left orphaned): %v", e.LegacyID, e.Err)
}

func (e *DualWriteError) Unwrap() error {
	return e.Err
}

// Coordinator creates a brand-new patient in both stores. The two stores
// cannot share a transaction, so creation is a two-step saga with a single
// compensating step: legacy insert first (its auto-assigned integer id is
// needed by the primary row), then the primary insert, then on primary
// failure a compensating delete of the legacy row.
//
// Known operational gaps, preserved deliberately from the system this
// replaces: creation is not idempotent (two calls with the same person make
// two patients — callers are expected to search before creating), and an
// orphaned legacy row left by a failed compensation is not retried, only
// logged for manual cleanup.
type Coordinator struct {
	legacy   LegacyPatientStore
	primary  PrimaryPatientStore
	site     SiteProfile
	producer Publisher
}

func NewCoordinator(legacy LegacyPatientStore, primary PrimaryPatientStore, site SiteProfile, producer Publisher) *Coordinator {
	return &Coordinator{legacy: legacy, primary: primary, site: site, producer: producer}
}

// Create writes the patient to the legacy store, then to the primary store,
// and returns the assembled canonical patient. The input must already have
// passed field-level validation.
func (c *Coordinator) Create(ctx context.Context, actor models.ActorContext, input models.NewPatientInput) (models.CanonicalPatient, error) {
	log := logger.Log.WithFields(map[string]interface{}{
		"actor_id":   actor.UserID,
		"actor_role": actor.Role,
	})
	log.WithField("saga_state", sagaStarted).Debug("patient create started")

	row := MapInputToLegacy(input)
	if err := c.legacy.Insert(ctx, &row); err != nil {
		return models.CanonicalPatient{}, &UpstreamWriteError{Err: err}
	}
	log.WithFields(map[string]interface{}{
		"saga_state": sagaLegacyWritten,
		"legacy_id":  row.ID,
	}).Debug("legacy row written")

	patient := c.assemble(input, row.ID)
	if err := c.primary.Insert(ctx, &patient); err != nil {
		return models.CanonicalPatient{}, c.compensate(row.ID, patient.ID, err)
	}
	log.WithFields(map[string]interface{}{
		"saga_state": sagaPrimaryWritten,
		"legacy_id":  row.ID,
		"patient_id": patient.ID,
	}).Info("patient created in both stores")

	c.publish(ctx, EventPatientCreated, map[string]interface{}{
		"patient_id": patient.ID.String(),
		"legacy_id":  row.ID,
		"actor_id":   actor.UserID.String(),
	})

	return patient, nil
}

func (c *Coordinator) assemble(input models.NewPatientInput, legacyID int64) models.CanonicalPatient {
	doctor := input.AssignedDoctor
	if doctor == "" {
		doctor = c.site.DefaultDoctor
	}

	var consentAt *time.Time
	if input.ConsentGranted {
		now := time.Now().UTC()
		consentAt = &now
	}

	return models.CanonicalPatient{
		ID:              uuid.New(),
		LegacyID:        &legacyID,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		BirthDate:       input.BirthDate,
		BirthNumber:     input.BirthNumber,
		InsuranceNumber: input.InsuranceNumber,
		Phone:           input.Phone,
		Email:           input.Email,
		Address:         input.Address,
		AssignedDoctor:  doctor,
		ConsentAt:       consentAt,
		Metadata:        input.Metadata,
	}
}

// compensate deletes the legacy row written in step one. The request
// context may already be cancelled (a primary-store timeout lands here), so
// the delete runs on a fresh context.
func (c *Coordinator) compensate(legacyID int64, attemptedID uuid.UUID, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.legacy.Delete(ctx, legacyID); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"saga_state":         sagaOrphanLogged,
			"legacy_id":          legacyID,
			"attempted_primary":  attemptedID,
			"primary_write_err":  cause.Error(),
			"needs_manual_fixup": true,
		}).Error("orphan legacy record: compensation failed")
		return &DualWriteError{LegacyID: legacyID, CompensationSucceeded: false, Err: cause}
	}

	logger.Log.WithFields(map[string]interface{}{
		"saga_state": sagaCompensated,
		"legacy_id":  legacyID,
	}).Warn("primary write failed, legacy row compensated")
	return &DualWriteError{LegacyID: legacyID, CompensationSucceeded: true, Err: cause}
}

// publish is best effort: the stores define success, the bus does not.
func (c *Coordinator) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if c.producer == nil {
		return
	}
	if err := c.producer.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("event publish failed")
	}
}
