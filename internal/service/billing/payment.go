package billing

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
	"github.com/josh-kwaku/clinic-billing/internal/events"
	"github.com/josh-kwaku/clinic-billing/internal/logging"
)

type ApplyPaymentRequest struct {
	DocumentID     uuid.UUID
	Amount         domain.Money
	Method         domain.PaymentMethod
	IdempotencyKey string
	Actor          string
}

// ApplyPayment records a payment after checking it against the outstanding balance
// read under the document lock. A retry carrying an already used idempotency key
// returns the original payment without writing.
func (s *Service) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*Result, error) {
	log := logging.FromContext(ctx)

	if req.Actor == "" {
		return nil, fmt.Errorf("ApplyPayment: actor required: %w", domain.ErrInvalidRequest)
	}

	p := domain.PaymentEvent{
		ID:         uuid.New(),
		Amount:     req.Amount,
		Method:     req.Method,
		RecordedAt: s.now(),
		RecordedBy: req.Actor,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		p.IdempotencyKey = &key
	}

	var replayed *domain.PaymentEvent
	doc, err := s.mutate(ctx, req.DocumentID, func(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
		if prior, ok := doc.PaymentByIdempotencyKey(req.IdempotencyKey); ok {
			if !prior.SameIntent(req.Amount, req.Method) {
				return domain.ErrIdempotencyKeyReused
			}
			replayed = prior
			return errNoChange
		}

		if err := doc.ApplyPayment(p, s.policy); err != nil {
			return err
		}
		return s.payments.Create(ctx, tx, &doc.Payments[len(doc.Payments)-1])
	})
	if err != nil {
		s.metrics.Rejected("apply_payment", err)
		log.Warn("payment rejected",
			"document_id", req.DocumentID,
			"amount", req.Amount,
			"error", err,
		)
		return nil, fmt.Errorf("ApplyPayment: %w", err)
	}

	if replayed != nil {
		log.Info("payment replayed for idempotency key",
			"document_id", doc.ID,
			"payment_id", replayed.ID,
		)
		return &Result{Document: doc, Payment: replayed, Replayed: true}, nil
	}

	applied := doc.Payments[len(doc.Payments)-1]
	s.metrics.PaymentApplied(applied.Method, applied.Amount)
	s.publish(ctx, events.NewEvent(events.TypePaymentApplied, doc, req.Actor, applied.RecordedAt).WithPayment(applied))

	log.Info("payment applied",
		"document_id", doc.ID,
		"payment_id", applied.ID,
		"amount", applied.Amount,
		"method", applied.Method,
		"paid", doc.Paid(),
		"outstanding", doc.Outstanding(),
		"status", doc.Status(),
	)

	return &Result{Document: doc, Payment: &applied}, nil
}
