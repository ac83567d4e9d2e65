package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

const catalogColumns = `ref, kind, name, unit_price, active, updated_at`

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetByRef(ctx context.Context, kind domain.LineKind, ref string) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := r.db.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM catalog_items WHERE ref = $1 AND kind = $2`,
		ref, kind,
	).Scan(&item.Ref, &item.Kind, &item.Name, &item.UnitPrice, &item.Active, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByRef: %s %q: %w", kind, ref, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByRef: %w", err)
	}
	return &item, nil
}

func (r *CatalogRepository) Upsert(ctx context.Context, item *domain.CatalogItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO catalog_items (ref, kind, name, unit_price, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (ref) DO UPDATE SET
			kind = EXCLUDED.kind, name = EXCLUDED.name, unit_price = EXCLUDED.unit_price,
			active = EXCLUDED.active, updated_at = now()`,
		item.Ref, item.Kind, item.Name, item.UnitPrice, item.Active,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}
