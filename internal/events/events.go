package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

type Type string

const (
	TypeDocumentOpened   Type = "document.opened"
	TypeLineItemRecorded Type = "line_item.recorded"
	TypePaymentApplied   Type = "payment.applied"
	TypeDocumentClosed   Type = "document.closed"
)

// Event is a committed ledger change together with the balance it produced.
type Event struct {
	ID           uuid.UUID       `json:"id"`
	Type         Type            `json:"type"`
	DocumentID   uuid.UUID       `json:"document_id"`
	DocumentKind string          `json:"document_kind"`
	SubjectRef   string          `json:"subject_ref"`
	Actor        string          `json:"actor"`
	Total        domain.Money    `json:"total"`
	Paid         domain.Money    `json:"paid"`
	Status       domain.Status   `json:"status"`
	LineItem     *LineItemDetail `json:"line_item,omitempty"`
	Payment      *PaymentDetail  `json:"payment,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

type LineItemDetail struct {
	ID         uuid.UUID    `json:"id"`
	Kind       string       `json:"kind"`
	CatalogRef string       `json:"catalog_ref"`
	Subtotal   domain.Money `json:"subtotal"`
}

type PaymentDetail struct {
	ID     uuid.UUID    `json:"id"`
	Amount domain.Money `json:"amount"`
	Method string       `json:"method"`
}

func NewEvent(t Type, doc *domain.Document, actor string, at time.Time) Event {
	return Event{
		ID:           uuid.New(),
		Type:         t,
		DocumentID:   doc.ID,
		DocumentKind: string(doc.Kind),
		SubjectRef:   doc.SubjectRef,
		Actor:        actor,
		Total:        doc.Total(),
		Paid:         doc.Paid(),
		Status:       doc.Status(),
		OccurredAt:   at,
	}
}

func (e Event) WithLineItem(li domain.LineItem) Event {
	e.LineItem = &LineItemDetail{
		ID:         li.ID,
		Kind:       string(li.Kind),
		CatalogRef: li.CatalogRef,
		Subtotal:   li.Subtotal(),
	}
	return e
}

func (e Event) WithPayment(p domain.PaymentEvent) Event {
	e.Payment = &PaymentDetail{
		ID:     p.ID,
		Amount: p.Amount,
		Method: string(p.Method),
	}
	return e
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
