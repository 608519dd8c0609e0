package patient

import (
	"context"

	"github.com/clinicore/platform/pkg/common/models"
	"github.com/google/uuid"
)

// Sort keys and orderings accepted by listings; each store maps them onto
// its own columns.
const (
	SortLastName  = "last_name"
	SortFirstName = "first_name"
	SortCreatedAt = "created_at"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// LegacyPatientStore is the narrow port over the legacy database. It
// exposes no transaction handle: the two stores can never share one, and
// the coordinator must not be tempted to pretend otherwise.
type LegacyPatientStore interface {
	Insert(ctx context.Context, row *LegacyPatientRow) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (LegacyPatientRow, error)
	List(ctx context.Context, q models.ListQuery) ([]LegacyPatientRow, int64, error)
}

// PrimaryPatientStore is the narrow port over the primary database. Insert
// returns ErrLegacyLinkTaken when the row's legacy id is already claimed by
// another mirror.
type PrimaryPatientStore interface {
	Insert(ctx context.Context, p *models.CanonicalPatient) error
	GetByID(ctx context.Context, id uuid.UUID) (models.CanonicalPatient, error)
	GetByLegacyID(ctx context.Context, legacyID int64) (models.CanonicalPatient, error)
	FindMirrors(ctx context.Context, legacyIDs []int64) (map[int64]uuid.UUID, error)
	List(ctx context.Context, q models.ListQuery) ([]models.CanonicalPatient, int64, error)
}

// Publisher is the slice of the event producer the patient package needs.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// IdentityCache holds the legacy-id to primary-UUID mapping as an
// optimisation. It is never a source of truth; every miss or failure falls
// through to the stores.
type IdentityCache interface {
	GetLegacy(ctx context.Context, legacyID int64) (uuid.UUID, bool)
	SetLegacy(ctx context.Context, legacyID int64, id uuid.UUID)
}
