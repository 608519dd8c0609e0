package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicore/platform/pkg/common/models"
)

const (
	SourcePrimary = "primary"
	SourceLegacy  = "legacy"

	defaultPageSize = 25
	maxPageSize     = 100
)

var errInvalidSource = errors.New("source must be primary or legacy")

// Reader produces unified patient listings sourced from exactly one store
// per call. Merging rows from both independently paginated stores is
// deliberately unsupported: there is no stable combined ordering without
// materialising everything.
type Reader struct {
	primary PrimaryPatientStore
	legacy  LegacyPatientStore
}

func NewReader(primary PrimaryPatientStore, legacy LegacyPatientStore) *Reader {
	return &Reader{primary: primary, legacy: legacy}
}

func (r *Reader) List(ctx context.Context, q models.ListQuery) (models.PatientPage, error) {
	q = normalizeQuery(q)

	switch q.Source {
	case SourcePrimary:
		return r.listPrimary(ctx, q)
	case SourceLegacy:
		return r.listLegacy(ctx, q)
	default:
		return models.PatientPage{}, ValidationError{reason: fmt.Errorf("%q: %w", q.Source, errInvalidSource)}
	}
}

func (r *Reader) listPrimary(ctx context.Context, q models.ListQuery) (models.PatientPage, error) {
	items, total, err := r.primary.List(ctx, q)
	if err != nil {
		return models.PatientPage{}, err
	}
	return models.PatientPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// listLegacy returns legacy rows in canonical shape. A row carries a
// primary-store id only when a backfilled mirror already exists; callers
// needing a stable id for an unmirrored row must resolve it first, which
// creates the mirror.
func (r *Reader) listLegacy(ctx context.Context, q models.ListQuery) (models.PatientPage, error) {
	rows, total, err := r.legacy.List(ctx, q)
	if err != nil {
		return models.PatientPage{}, err
	}

	legacyIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		legacyIDs = append(legacyIDs, row.ID)
	}
	mirrors, err := r.primary.FindMirrors(ctx, legacyIDs)
	if err != nil {
		return models.PatientPage{}, err
	}

	items := make([]models.CanonicalPatient, 0, len(rows))
	for _, row := range rows {
		patient := MapLegacyToCanonical(row)
		if id, ok := mirrors[row.ID]; ok {
			patient.ID = id
		}
		items = append(items, patient)
	}
	return models.PatientPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func normalizeQuery(q models.ListQuery) models.ListQuery {
	if q.Source == "" {
		q.Source = SourcePrimary
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	if q.Order != OrderDesc {
		q.Order = OrderAsc
	}
	return q
}
