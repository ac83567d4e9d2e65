package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

const paymentEventColumns = `id, document_id, amount, method, idempotency_key, recorded_at, recorded_by`

type PaymentEventRepository struct {
	db *sql.DB
}

func NewPaymentEventRepository(db *sql.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

func (r *PaymentEventRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.PaymentEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payment_events (id, document_id, amount, method, idempotency_key, recorded_at, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.DocumentID, p.Amount, p.Method, p.IdempotencyKey, p.RecordedAt, p.RecordedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrIdempotencyKeyReused)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func listPaymentEvents(ctx context.Context, q queryer, documentIDs []uuid.UUID) (map[uuid.UUID][]domain.PaymentEvent, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+paymentEventColumns+` FROM payment_events
		WHERE document_id = ANY($1::uuid[]) ORDER BY seq`,
		pq.Array(uuidStrings(documentIDs)),
	)
	if err != nil {
		return nil, fmt.Errorf("listPaymentEvents: %w", err)
	}
	defer rows.Close()

	byDoc := make(map[uuid.UUID][]domain.PaymentEvent, len(documentIDs))
	for rows.Next() {
		p, err := scanPaymentEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("listPaymentEvents: scan: %w", err)
		}
		byDoc[p.DocumentID] = append(byDoc[p.DocumentID], *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listPaymentEvents: rows: %w", err)
	}
	return byDoc, nil
}

func scanPaymentEvent(s scanner) (*domain.PaymentEvent, error) {
	var p domain.PaymentEvent
	err := s.Scan(
		&p.ID, &p.DocumentID, &p.Amount, &p.Method, &p.IdempotencyKey,
		&p.RecordedAt, &p.RecordedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
