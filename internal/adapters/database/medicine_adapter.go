package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
	"github.com/medapp/medicine-catalog/internal/domain/repositories"
	"github.com/medapp/medicine-catalog/internal/infrastructure/clients/postgres"
	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

const defaultMedicinePageSize = 500

var medicineColumns = []interface{}{
	goqu.I("m.id"),
	goqu.I("m.name"),
	goqu.I("m.generic"),
	goqu.I("m.manufacturer_name"),
	goqu.I("m.description"),
	goqu.I("m.symptoms"),
	goqu.I("m.composition"),
	goqu.I("m.dosage"),
	goqu.I("m.route"),
	goqu.I("m.image_url"),
	goqu.I("m.category"),
	goqu.I("c.slug"),
	goqu.I("m.last_synced"),
}

// MedicineAdapter implements MedicineRepository
type MedicineAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMedicineAdapter creates a new medicine adapter
func NewMedicineAdapter(client *postgres.Client) repositories.MedicineRepository {
	return &MedicineAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *MedicineAdapter) selectMedicines() *goqu.SelectDataset {
	return a.db.From(goqu.T("medicines").As("m")).
		LeftJoin(goqu.T("categories").As("c"), goqu.On(goqu.I("m.category").Eq(goqu.I("c.id")))).
		Select(medicineColumns...)
}

// GetByID retrieves a medicine with its current category slug
func (a *MedicineAdapter) GetByID(ctx context.Context, id int64) (*entities.Medicine, error) {
	query, args, err := a.selectMedicines().
		Where(goqu.I("m.id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	medicine, err := scanMedicine(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("medicine with id %d not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get medicine", err)
	}

	return medicine, nil
}

// List retrieves medicines in ascending ID order
func (a *MedicineAdapter) List(ctx context.Context, filter repositories.MedicineFilter) ([]*entities.Medicine, error) {
	ds := a.selectMedicines()

	if filter.AfterID > 0 {
		ds = ds.Where(goqu.I("m.id").Gt(filter.AfterID))
	}

	if filter.UncategorizedOnly {
		conditions := []goqu.Expression{goqu.I("m.category").IsNull()}
		if filter.FallbackCategoryID > 0 {
			conditions = append(conditions, goqu.I("m.category").Eq(filter.FallbackCategoryID))
		}
		ds = ds.Where(goqu.Or(conditions...))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMedicinePageSize
	}
	ds = ds.Order(goqu.I("m.id").Asc()).Limit(uint(limit))

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list medicines", err)
	}
	defer rows.Close()

	medicines := make([]*entities.Medicine, 0, limit)
	for rows.Next() {
		medicine, err := scanMedicine(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan medicine", err)
		}
		medicines = append(medicines, medicine)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating medicines", err)
	}

	return medicines, nil
}

// UpdateCategory sets the category and last_synced of one medicine
func (a *MedicineAdapter) UpdateCategory(ctx context.Context, id int64, categoryID int64, syncedAt time.Time) error {
	query, args, err := a.db.Update("medicines").
		Set(goqu.Record{
			"category":    categoryID,
			"last_synced": syncedAt,
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update medicine category", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("medicine with id %d not found", id))
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMedicine(row rowScanner) (*entities.Medicine, error) {
	medicine := &entities.Medicine{}
	var generic, manufacturer, description, symptoms, composition, dosage, route, imageURL, slug sql.NullString
	var category sql.NullInt64
	var lastSynced sql.NullTime

	err := row.Scan(
		&medicine.ID,
		&medicine.Name,
		&generic,
		&manufacturer,
		&description,
		&symptoms,
		&composition,
		&dosage,
		&route,
		&imageURL,
		&category,
		&slug,
		&lastSynced,
	)
	if err != nil {
		return nil, err
	}

	medicine.Generic = generic.String
	medicine.ManufacturerName = manufacturer.String
	medicine.Description = description.String
	medicine.Symptoms = symptoms.String
	medicine.Composition = composition.String
	medicine.Dosage = dosage.String
	medicine.Route = route.String
	medicine.ImageURL = imageURL.String
	medicine.CategorySlug = slug.String
	if category.Valid {
		id := category.Int64
		medicine.CategoryID = &id
	}
	if lastSynced.Valid {
		t := lastSynced.Time
		medicine.LastSynced = &t
	}

	return medicine, nil
}
