package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

type lineItemDTO struct {
	ID         uuid.UUID       `json:"id"`
	Kind       string          `json:"kind"`
	CatalogRef string          `json:"catalog_ref"`
	UnitPrice  int64           `json:"unit_price"`
	Quantity   decimal.Decimal `json:"quantity"`
	Subtotal   int64           `json:"subtotal"`
	Note       *string         `json:"note,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
	RecordedBy string          `json:"recorded_by"`
}

type paymentDTO struct {
	ID         uuid.UUID `json:"id"`
	Amount     int64     `json:"amount"`
	Method     string    `json:"method"`
	RecordedAt time.Time `json:"recorded_at"`
	RecordedBy string    `json:"recorded_by"`
}

// documentDTO is the read model: total, paid, outstanding and status are derived on every read.
type documentDTO struct {
	ID            uuid.UUID     `json:"id"`
	Kind          string        `json:"kind"`
	SubjectRef    string        `json:"subject_ref"`
	OwnerActorRef string        `json:"owner_actor_ref"`
	Total         int64         `json:"total"`
	Paid          int64         `json:"paid"`
	Outstanding   int64         `json:"outstanding"`
	Status        string        `json:"status"`
	LineItems     []lineItemDTO `json:"line_items"`
	Payments      []paymentDTO  `json:"payments"`
	Version       int64         `json:"version"`
	OpenedAt      time.Time     `json:"opened_at"`
	ClosedAt      *time.Time    `json:"closed_at"`
	ClosedBy      *string       `json:"closed_by,omitempty"`
}

type documentSummaryDTO struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	SubjectRef  string     `json:"subject_ref"`
	Total       int64      `json:"total"`
	Paid        int64      `json:"paid"`
	Outstanding int64      `json:"outstanding"`
	Status      string     `json:"status"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at"`
}

type mutationDTO struct {
	Document documentDTO  `json:"document"`
	LineItem *lineItemDTO `json:"line_item,omitempty"`
	Payment  *paymentDTO  `json:"payment,omitempty"`
}

func toLineItemDTO(li domain.LineItem) lineItemDTO {
	return lineItemDTO{
		ID:         li.ID,
		Kind:       string(li.Kind),
		CatalogRef: li.CatalogRef,
		UnitPrice:  li.UnitPrice.Int64(),
		Quantity:   li.Quantity,
		Subtotal:   li.Subtotal().Int64(),
		Note:       li.Note,
		RecordedAt: li.RecordedAt,
		RecordedBy: li.RecordedBy,
	}
}

func toPaymentDTO(p domain.PaymentEvent) paymentDTO {
	return paymentDTO{
		ID:         p.ID,
		Amount:     p.Amount.Int64(),
		Method:     string(p.Method),
		RecordedAt: p.RecordedAt,
		RecordedBy: p.RecordedBy,
	}
}

func toDocumentDTO(d *domain.Document) documentDTO {
	dto := documentDTO{
		ID:            d.ID,
		Kind:          string(d.Kind),
		SubjectRef:    d.SubjectRef,
		OwnerActorRef: d.OwnerActorRef,
		Total:         d.Total().Int64(),
		Paid:          d.Paid().Int64(),
		Outstanding:   d.Outstanding().Int64(),
		Status:        string(d.Status()),
		LineItems:     make([]lineItemDTO, 0, len(d.LineItems)),
		Payments:      make([]paymentDTO, 0, len(d.Payments)),
		Version:       d.Version,
		OpenedAt:      d.OpenedAt,
		ClosedAt:      d.ClosedAt,
		ClosedBy:      d.ClosedBy,
	}
	for _, li := range d.LineItems {
		dto.LineItems = append(dto.LineItems, toLineItemDTO(li))
	}
	for _, p := range d.Payments {
		dto.Payments = append(dto.Payments, toPaymentDTO(p))
	}
	return dto
}

func toDocumentSummaryDTO(d *domain.Document) documentSummaryDTO {
	return documentSummaryDTO{
		ID:          d.ID,
		Kind:        string(d.Kind),
		SubjectRef:  d.SubjectRef,
		Total:       d.Total().Int64(),
		Paid:        d.Paid().Int64(),
		Outstanding: d.Outstanding().Int64(),
		Status:      string(d.Status()),
		OpenedAt:    d.OpenedAt,
		ClosedAt:    d.ClosedAt,
	}
}
