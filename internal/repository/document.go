package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

const documentColumns = `id, kind, subject_ref, owner_actor_ref, version, opened_at, closed_at, closed_by`

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO billable_documents (
			id, kind, subject_ref, owner_actor_ref, version, opened_at, closed_at, closed_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.Kind, doc.SubjectRef, doc.OwnerActorRef, doc.Version,
		doc.OpenedAt, doc.ClosedAt, doc.ClosedBy,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	doc, err := r.get(ctx, r.db, `SELECT `+documentColumns+` FROM billable_documents WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return doc, nil
}

// GetForUpdate locks the document row for the rest of tx and loads its history through the same tx,
// so ledger checks see every committed line item and payment.
func (r *DocumentRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Document, error) {
	doc, err := r.get(ctx, tx, `SELECT `+documentColumns+` FROM billable_documents WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) get(ctx context.Context, q queryer, query string, id uuid.UUID) (*domain.Document, error) {
	doc, err := scanDocument(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	docs := []*domain.Document{doc}
	if err := hydrate(ctx, q, docs); err != nil {
		return nil, err
	}
	return doc, nil
}

// BumpVersion advances the version after an append. A mismatch means another writer committed first.
func (r *DocumentRepository) BumpVersion(ctx context.Context, tx *sql.Tx, id uuid.UUID, currentVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE billable_documents SET version = version + 1 WHERE id = $1 AND version = $2`,
		id, currentVersion,
	)
	if err != nil {
		return fmt.Errorf("BumpVersion: %w", err)
	}
	return expectOneRow("BumpVersion", res)
}

// Close stamps the close fields; the caller bumps the version in the same tx.
func (r *DocumentRepository) Close(ctx context.Context, tx *sql.Tx, id uuid.UUID, closedAt time.Time, closedBy string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE billable_documents SET closed_at = $1, closed_by = $2
		WHERE id = $3 AND closed_at IS NULL`,
		closedAt, closedBy, id,
	)
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Close: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Close: %w", domain.ErrDocumentClosed)
	}
	return nil
}

type DocumentFilter struct {
	SubjectRef *string
	OpenOnly   bool
	// ActiveFrom and ActiveTo select documents with a line item or payment recorded in [ActiveFrom, ActiveTo).
	ActiveFrom *time.Time
	ActiveTo   *time.Time
}

func (r *DocumentRepository) List(ctx context.Context, filter DocumentFilter) ([]domain.Document, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}

	if err := hydrate(ctx, r.db, docs); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		out[i] = *d
	}
	return out, nil
}

func buildListQuery(filter DocumentFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.SubjectRef != nil {
		where = append(where, "d.subject_ref = "+arg(*filter.SubjectRef))
	}
	if filter.OpenOnly {
		where = append(where, "d.closed_at IS NULL")
	}
	if filter.ActiveFrom != nil && filter.ActiveTo != nil {
		from, to := arg(*filter.ActiveFrom), arg(*filter.ActiveTo)
		where = append(where, fmt.Sprintf(`(EXISTS (SELECT 1 FROM line_items li
			WHERE li.document_id = d.id AND li.recorded_at >= %[1]s AND li.recorded_at < %[2]s)
			OR EXISTS (SELECT 1 FROM payment_events pe
			WHERE pe.document_id = d.id AND pe.recorded_at >= %[1]s AND pe.recorded_at < %[2]s))`, from, to))
	}

	query := `SELECT ` + prefixColumns("d", documentColumns) + ` FROM billable_documents d`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY d.opened_at, d.id"
	return query, args
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func hydrate(ctx context.Context, q queryer, docs []*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	items, err := listLineItems(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	payments, err := listPaymentEvents(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}

	for _, d := range docs {
		d.LineItems = items[d.ID]
		d.Payments = payments[d.ID]
	}
	return nil
}

func expectOneRow(op string, res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrVersionConflict)
	}
	return nil
}

func scanDocument(s scanner) (*domain.Document, error) {
	var d domain.Document
	err := s.Scan(
		&d.ID, &d.Kind, &d.SubjectRef, &d.OwnerActorRef, &d.Version,
		&d.OpenedAt, &d.ClosedAt, &d.ClosedBy,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
