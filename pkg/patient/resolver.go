package patient

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/clinicore/platform/pkg/common/logger"
	"github.com/clinicore/platform/pkg/common/models"
	"github.com/google/uuid"
)

var errBadIdentifier = errors.New("identifier is neither a UUID nor a legacy integer id")

// Identifier names a patient in either key space: the primary store's UUID
// or the legacy store's integer id.
type Identifier struct {
	UUID     uuid.UUID
	LegacyID int64
	IsLegacy bool
}

func LegacyIdentifier(id int64) Identifier {
	return Identifier{LegacyID: id, IsLegacy: true}
}

func PrimaryIdentifier(id uuid.UUID) Identifier {
	return Identifier{UUID: id}
}

// ParseIdentifier decides the key space of a wire identifier: all-digit
// strings are legacy integer ids, everything else must parse as a UUID.
func ParseIdentifier(raw string) (Identifier, error) {
	if legacyID, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if legacyID <= 0 {
			return Identifier{}, ValidationError{reason: errBadIdentifier}
		}
		return LegacyIdentifier(legacyID), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return Identifier{}, ValidationError{reason: errBadIdentifier}
	}
	return PrimaryIdentifier(id), nil
}

// Resolver maps either key space onto the canonical patient. The first time
// a legacy-only patient is referenced from the primary domain the resolver
// backfills a mirror row for it; concurrent backfills of the same legacy id
// are settled by the unique index on legacy_id, with the loser re-fetching
// the winner's row.
type Resolver struct {
	primary  PrimaryPatientStore
	legacy   LegacyPatientStore
	cache    IdentityCache
	producer Publisher
}

func NewResolver(primary PrimaryPatientStore, legacy LegacyPatientStore, cache IdentityCache, producer Publisher) *Resolver {
	return &Resolver{primary: primary, legacy: legacy, cache: cache, producer: producer}
}

func (r *Resolver) Resolve(ctx context.Context, identifier Identifier) (models.CanonicalPatient, error) {
	if !identifier.IsLegacy {
		return r.primary.GetByID(ctx, identifier.UUID)
	}
	return r.resolveLegacy(ctx, identifier.LegacyID)
}

func (r *Resolver) resolveLegacy(ctx context.Context, legacyID int64) (models.CanonicalPatient, error) {
	if r.cache != nil {
		if id, ok := r.cache.GetLegacy(ctx, legacyID); ok {
			patient, err := r.primary.GetByID(ctx, id)
			if err == nil {
				return patient, nil
			}
			// Stale cache entry; fall through to the stores.
			if !errors.Is(err, ErrPatientNotFound) {
				return models.CanonicalPatient{}, err
			}
		}
	}

	patient, err := r.primary.GetByLegacyID(ctx, legacyID)
	if err == nil {
		r.remember(ctx, legacyID, patient.ID)
		return patient, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return models.CanonicalPatient{}, err
	}

	row, err := r.legacy.Get(ctx, legacyID)
	if errors.Is(err, ErrLegacyPatientNotFound) {
		return models.CanonicalPatient{}, ErrPatientNotFound
	}
	if err != nil {
		return models.CanonicalPatient{}, err
	}

	return r.backfill(ctx, row)
}

// backfill inserts a mirror primary row for a legacy-only patient. Losing
// the insert race to a concurrent resolve is not an error: the winner's row
// is fetched and returned, making backfill idempotent.
func (r *Resolver) backfill(ctx context.Context, row LegacyPatientRow) (models.CanonicalPatient, error) {
	patient := MapLegacyToCanonical(row)
	patient.ID = uuid.New()

	err := r.primary.Insert(ctx, &patient)
	if errors.Is(err, ErrLegacyLinkTaken) {
		logger.Log.WithField("legacy_id", row.ID).Debug("backfill race lost, re-fetching winner")
		winner, fetchErr := r.primary.GetByLegacyID(ctx, row.ID)
		if fetchErr != nil {
			return models.CanonicalPatient{}, fmt.Errorf("re-fetch after backfill race: %w", fetchErr)
		}
		r.remember(ctx, row.ID, winner.ID)
		return winner, nil
	}
	if err != nil {
		return models.CanonicalPatient{}, fmt.Errorf("backfill insert: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"legacy_id":  row.ID,
		"patient_id": patient.ID,
	}).Info("legacy patient backfilled into primary store")

	r.remember(ctx, row.ID, patient.ID)

	if r.producer != nil {
		if err := r.producer.PublishEvent(ctx, EventPatientBackfilled, eventSource, map[string]interface{}{
			"patient_id": patient.ID.String(),
			"legacy_id":  row.ID,
		}); err != nil {
			logger.Log.WithError(err).Warn("event publish failed")
		}
	}

	return patient, nil
}

func (r *Resolver) remember(ctx context.Context, legacyID int64, id uuid.UUID) {
	if r.cache != nil {
		r.cache.SetLegacy(ctx, legacyID, id)
	}
}
