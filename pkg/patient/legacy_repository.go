package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinicore/platform/pkg/common/models"
	"gorm.io/gorm"
)

var ErrLegacyPatientNotFound = errors.New("legacy patient not found")

// LegacyPatientRow mirrors the fixed write contract of the legacy patient
// table. The legacy schema is owned by the old clinic system; this service
// may write only these columns, and every insert must carry the site
// discriminator. The integer id is assigned by the legacy database.
type LegacyPatientRow struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Site           string    `gorm:"column:site"`
	LastName       string    `gorm:"column:name"`
	FirstName      string    `gorm:"column:other_names"`
	BirthDate      time.Time `gorm:"column:dob;type:date"`
	HospitalNumber string    `gorm:"column:hospital_number"`
	OHIP           string    `gorm:"column:ohip"`
}

func (LegacyPatientRow) TableName() string {
	return "patient"
}

// LegacyRepository implements LegacyPatientStore over the legacy MySQL
// database. No AutoMigrate exists here: the legacy schema is not ours to
// change.
type LegacyRepository struct {
	db      *gorm.DB
	site    string
	timeout time.Duration
}

func NewLegacyRepository(db *gorm.DB, site string, timeout time.Duration) *LegacyRepository {
	return &LegacyRepository{db: db, site: site, timeout: timeout}
}

func (r *LegacyRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *LegacyRepository) Insert(ctx context.Context, row *LegacyPatientRow) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row.Site = r.site
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("legacy insert: %w", err)
	}
	return nil
}

// Delete removes a legacy row by id. It exists solely as the compensating
// action of a failed dual write; legacy rows are never deleted in normal
// operation.
func (r *LegacyRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result := r.db.WithContext(ctx).Where("id = ? AND site = ?", id, r.site).Delete(&LegacyPatientRow{})
	if result.Error != nil {
		return fmt.Errorf("legacy delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLegacyPatientNotFound
	}
	return nil
}

func (r *LegacyRepository) Get(ctx context.Context, id int64) (LegacyPatientRow, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var row LegacyPatientRow
	err := r.db.WithContext(ctx).Where("id = ? AND site = ?", id, r.site).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LegacyPatientRow{}, ErrLegacyPatientNotFound
	}
	if err != nil {
		return LegacyPatientRow{}, err
	}
	return row, nil
}

// legacy column names for the supported sort keys. Creation order in the
// legacy store is id order; there is no created_at column.
var legacySortColumns = map[string]string{
	SortLastName:  "name",
	SortFirstName: "other_names",
	SortCreatedAt: "id",
}

func (r *LegacyRepository) List(ctx context.Context, q models.ListQuery) ([]LegacyPatientRow, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx := r.db.WithContext(ctx).Model(&LegacyPatientRow{}).Where("site = ?", r.site)
	if q.Search != "" {
		tx = tx.Where("name LIKE ?", q.Search+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := legacySortColumns[q.Sort]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if q.Order == OrderDesc {
		direction = "DESC"
	}

	var rows []LegacyPatientRow
	err := tx.Order(column + " " + direction).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
