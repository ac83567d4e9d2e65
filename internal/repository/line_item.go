package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

const lineItemColumns = `id, document_id, kind, catalog_ref, unit_price, quantity,
	note, recorded_at, recorded_by`

type LineItemRepository struct {
	db *sql.DB
}

func NewLineItemRepository(db *sql.DB) *LineItemRepository {
	return &LineItemRepository{db: db}
}

func (r *LineItemRepository) Create(ctx context.Context, tx *sql.Tx, li *domain.LineItem) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO line_items (
			id, document_id, kind, catalog_ref, unit_price, quantity,
			note, recorded_at, recorded_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		li.ID, li.DocumentID, li.Kind, li.CatalogRef, li.UnitPrice, li.Quantity,
		li.Note, li.RecordedAt, li.RecordedBy,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func listLineItems(ctx context.Context, q queryer, documentIDs []uuid.UUID) (map[uuid.UUID][]domain.LineItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+lineItemColumns+` FROM line_items
		WHERE document_id = ANY($1::uuid[]) ORDER BY seq`,
		pq.Array(uuidStrings(documentIDs)),
	)
	if err != nil {
		return nil, fmt.Errorf("listLineItems: %w", err)
	}
	defer rows.Close()

	byDoc := make(map[uuid.UUID][]domain.LineItem, len(documentIDs))
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("listLineItems: scan: %w", err)
		}
		byDoc[li.DocumentID] = append(byDoc[li.DocumentID], *li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listLineItems: rows: %w", err)
	}
	return byDoc, nil
}

func scanLineItem(s scanner) (*domain.LineItem, error) {
	var li domain.LineItem
	err := s.Scan(
		&li.ID, &li.DocumentID, &li.Kind, &li.CatalogRef, &li.UnitPrice, &li.Quantity,
		&li.Note, &li.RecordedAt, &li.RecordedBy,
	)
	if err != nil {
		return nil, err
	}
	return &li, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
