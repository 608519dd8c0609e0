package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinicore/platform/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrPatientNotFound = errors.New("patient not found")

	// ErrLegacyLinkTaken reports that another primary row already claims the
	// legacy id. The unique index on legacy_id is the only cross-request
	// coordination primitive in the system; the resolver relies on this
	// error to settle concurrent backfills.
	ErrLegacyLinkTaken = errors.New("legacy id already mirrored")
)

type PatientModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	LegacyID        *int64    `gorm:"uniqueIndex"`
	FirstName       string
	LastName        string `gorm:"index"`
	BirthDate       time.Time `gorm:"type:date"`
	BirthNumber     string
	InsuranceNumber string
	Phone           string
	Email           string
	Address         string
	AssignedDoctor  string
	ConsentAt       *time.Time
	Metadata        datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PatientModel) TableName() string {
	return "patients"
}

// PrimaryRepository implements PrimaryPatientStore over the primary
// Postgres database.
type PrimaryRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewPrimaryRepository(db *gorm.DB, timeout time.Duration) *PrimaryRepository {
	return &PrimaryRepository{db: db, timeout: timeout}
}

func (r *PrimaryRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&PatientModel{})
}

func (r *PrimaryRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PrimaryRepository) Insert(ctx context.Context, p *models.CanonicalPatient) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	birthDate, err := time.Parse(dateLayout, p.BirthDate)
	if err != nil {
		return fmt.Errorf("invalid birth date %q: %w", p.BirthDate, err)
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	model := PatientModel{
		ID:              p.ID,
		LegacyID:        p.LegacyID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		BirthDate:       birthDate,
		BirthNumber:     p.BirthNumber,
		InsuranceNumber: p.InsuranceNumber,
		Phone:           p.Phone,
		Email:           p.Email,
		Address:         p.Address,
		AssignedDoctor:  p.AssignedDoctor,
		ConsentAt:       p.ConsentAt,
		Metadata:        datatypes.JSONMap(p.Metadata),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}

	// The insert runs inside a single primary-store transaction; the legacy
	// store is never part of it.
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) && p.LegacyID != nil {
		return fmt.Errorf("legacy id %d: %w", *p.LegacyID, ErrLegacyLinkTaken)
	}
	if err != nil {
		return fmt.Errorf("primary insert: %w", err)
	}
	return nil
}

func (r *PrimaryRepository) GetByID(ctx context.Context, id uuid.UUID) (models.CanonicalPatient, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var model PatientModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CanonicalPatient{}, ErrPatientNotFound
	}
	if err != nil {
		return models.CanonicalPatient{}, err
	}
	return mapPatientModel(model), nil
}

func (r *PrimaryRepository) GetByLegacyID(ctx context.Context, legacyID int64) (models.CanonicalPatient, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var model PatientModel
	err := r.db.WithContext(ctx).Where("legacy_id = ?", legacyID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CanonicalPatient{}, ErrPatientNotFound
	}
	if err != nil {
		return models.CanonicalPatient{}, err
	}
	return mapPatientModel(model), nil
}

// FindMirrors returns the primary UUID for each of the given legacy ids
// that already has a mirror row. Ids without a mirror are simply absent
// from the result.
func (r *PrimaryRepository) FindMirrors(ctx context.Context, legacyIDs []int64) (map[int64]uuid.UUID, error) {
	if len(legacyIDs) == 0 {
		return map[int64]uuid.UUID{}, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []PatientModel
	err := r.db.WithContext(ctx).
		Select("id", "legacy_id").
		Where("legacy_id IN ?", legacyIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	mirrors := make(map[int64]uuid.UUID, len(rows))
	for _, row := range rows {
		if row.LegacyID != nil {
			mirrors[*row.LegacyID] = row.ID
		}
	}
	return mirrors, nil
}

var primarySortColumns = map[string]string{
	SortLastName:  "last_name",
	SortFirstName: "first_name",
	SortCreatedAt: "created_at",
}

func (r *PrimaryRepository) List(ctx context.Context, q models.ListQuery) ([]models.CanonicalPatient, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx := r.db.WithContext(ctx).Model(&PatientModel{})
	if q.Search != "" {
		tx = tx.Where("last_name ILIKE ?", q.Search+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := primarySortColumns[q.Sort]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if q.Order == OrderDesc {
		direction = "DESC"
	}

	var rows []PatientModel
	err := tx.Order(column + " " + direction).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	patients := make([]models.CanonicalPatient, 0, len(rows))
	for _, row := range rows {
		patients = append(patients, mapPatientModel(row))
	}
	return patients, total, nil
}

func mapPatientModel(model PatientModel) models.CanonicalPatient {
	return models.CanonicalPatient{
		ID:              model.ID,
		LegacyID:        model.LegacyID,
		FirstName:       model.FirstName,
		LastName:        model.LastName,
		BirthDate:       model.BirthDate.Format(dateLayout),
		BirthNumber:     model.BirthNumber,
		InsuranceNumber: model.InsuranceNumber,
		Phone:           model.Phone,
		Email:           model.Email,
		Address:         model.Address,
		AssignedDoctor:  model.AssignedDoctor,
		ConsentAt:       model.ConsentAt,
		Metadata:        map[string]interface{}(model.Metadata),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}
