package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/medapp/medicine-catalog/internal/domain/entities"
	"github.com/medapp/medicine-catalog/internal/domain/repositories"
	"github.com/medapp/medicine-catalog/internal/infrastructure/clients/postgres"
	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

// CategoryAdapter implements CategoryRepository
type CategoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCategoryAdapter creates a new category adapter
func NewCategoryAdapter(client *postgres.Client) repositories.CategoryRepository {
	return &CategoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert inserts or renames a category by slug and sets its ID
func (a *CategoryAdapter) Upsert(ctx context.Context, category *entities.Category) error {
	if strings.TrimSpace(category.Slug) == "" {
		return apperrors.NewValidationError("category slug is required")
	}

	query, args, err := a.db.Insert("categories").
		Rows(goqu.Record{
			"name": category.Name,
			"slug": category.Slug,
		}).
		OnConflict(goqu.DoUpdate("slug", goqu.Record{"name": goqu.L("EXCLUDED.name")})).
		Returning("id").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&category.ID); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to upsert category %s", category.Slug), err)
	}

	return nil
}

// GetBySlug retrieves a category by slug
func (a *CategoryAdapter) GetBySlug(ctx context.Context, slug string) (*entities.Category, error) {
	query, args, err := a.db.Select("id", "slug", "name").
		From("categories").
		Where(goqu.Ex{"slug": slug}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	category := &entities.Category{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&category.ID, &category.Slug, &category.Name)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("category with slug %s not found", slug))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get category", err)
	}

	return category, nil
}

// List retrieves every category
func (a *CategoryAdapter) List(ctx context.Context) ([]*entities.Category, error) {
	query, args, err := a.db.Select("id", "slug", "name").
		From("categories").
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list categories", err)
	}
	defer rows.Close()

	var categories []*entities.Category
	for rows.Next() {
		category := &entities.Category{}
		if err := rows.Scan(&category.ID, &category.Slug, &category.Name); err != nil {
			return nil, apperrors.NewInternalError("failed to scan category", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating categories", err)
	}

	return categories, nil
}

// TopCategories returns categories holding at least one medicine, by
// descending medicine count then slug
func (a *CategoryAdapter) TopCategories(ctx context.Context, limit int) ([]*entities.Category, error) {
	count := goqu.COUNT(goqu.I("m.id"))

	ds := a.db.From(goqu.T("categories").As("c")).
		LeftJoin(goqu.T("medicines").As("m"), goqu.On(goqu.I("m.category").Eq(goqu.I("c.id")))).
		Select(goqu.I("c.id"), goqu.I("c.slug"), goqu.I("c.name"), count.As("medicine_count")).
		GroupBy(goqu.I("c.id"), goqu.I("c.slug"), goqu.I("c.name")).
		Having(count.Gt(0)).
		Order(goqu.I("medicine_count").Desc(), goqu.I("c.slug").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build top categories query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query top categories", err)
	}
	defer rows.Close()

	var categories []*entities.Category
	for rows.Next() {
		category := &entities.Category{}
		if err := rows.Scan(&category.ID, &category.Slug, &category.Name, &category.MedicineCount); err != nil {
			return nil, apperrors.NewInternalError("failed to scan category count", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating category counts", err)
	}

	return categories, nil
}
