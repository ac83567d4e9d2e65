package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DocumentKind string

const (
	DocumentKindMedicalCard DocumentKind = "medical_card"
	DocumentKindNurseCare   DocumentKind = "nurse_care"
	DocumentKindFeedSale    DocumentKind = "feed_sale"
)

func (k DocumentKind) IsValid() bool {
	_, ok := allowedLineKinds[k]
	return ok
}

var allowedLineKinds = map[DocumentKind][]LineKind{
	DocumentKindMedicalCard: {LineKindService, LineKindMedication, LineKindAdjustment},
	DocumentKindNurseCare:   {LineKindService, LineKindMedication, LineKindAdjustment},
	DocumentKindFeedSale:    {LineKindInventory, LineKindAdjustment},
}

func (k DocumentKind) Accepts(lk LineKind) bool {
	for _, allowed := range allowedLineKinds[k] {
		if allowed == lk {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusPartlyPaid Status = "partly_paid"
	StatusFullyPaid  Status = "fully_paid"
)

// DeriveStatus is the only way a document status is produced.
func DeriveStatus(paid, total Money) Status {
	switch {
	case paid.IsZero():
		return StatusWaiting
	case paid.LessThan(total):
		return StatusPartlyPaid
	default:
		return StatusFullyPaid
	}
}

type Document struct {
	ID            uuid.UUID
	Kind          DocumentKind
	SubjectRef    string
	OwnerActorRef string
	LineItems     []LineItem
	Payments      []PaymentEvent
	Version       int64
	OpenedAt      time.Time
	ClosedAt      *time.Time
	ClosedBy      *string
}

func (d *Document) Total() Money {
	return d.charges().Sub(d.credits())
}

func (d *Document) charges() Money {
	var sum Money
	for _, li := range d.LineItems {
		if !li.Kind.IsCredit() {
			sum = sum.Add(li.Subtotal())
		}
	}
	return sum
}

func (d *Document) credits() Money {
	var sum Money
	for _, li := range d.LineItems {
		if li.Kind.IsCredit() {
			sum = sum.Add(li.Subtotal())
		}
	}
	return sum
}

func (d *Document) Paid() Money {
	var paid Money
	for _, p := range d.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

func (d *Document) Outstanding() Money {
	return d.Total().Sub(d.Paid())
}

func (d *Document) Status() Status {
	return DeriveStatus(d.Paid(), d.Total())
}

func (d *Document) IsClosed() bool {
	return d.ClosedAt != nil
}

// RecordLineItem validates li against the document and appends it.
// Nothing is appended on error.
func (d *Document) RecordLineItem(li LineItem) error {
	if !li.Kind.IsValid() {
		return fmt.Errorf("RecordLineItem: %q: %w", li.Kind, ErrInvalidLineKind)
	}
	if !d.Kind.Accepts(li.Kind) {
		return fmt.Errorf("RecordLineItem: %s on %s: %w", li.Kind, d.Kind, ErrLineKindNotAllowed)
	}
	if err := ValidateQuantity(li.Kind, li.Quantity); err != nil {
		return fmt.Errorf("RecordLineItem: %w", err)
	}
	if li.UnitPrice < 0 {
		return fmt.Errorf("RecordLineItem: unit price: %w", ErrInvalidAmount)
	}
	if err := d.ensureOpenForCharges(); err != nil {
		return fmt.Errorf("RecordLineItem: %w", err)
	}

	// Every recorded subtotal and the running charge sum fit in Money, so reads never wrap.
	subtotal, err := li.UnitPrice.MulQuantityChecked(li.Quantity)
	if err != nil {
		return fmt.Errorf("RecordLineItem: subtotal: %w", err)
	}
	if li.Kind.IsCredit() {
		if !subtotal.IsPositive() {
			return fmt.Errorf("RecordLineItem: adjustment: %w", ErrInvalidAmount)
		}
		if subtotal.GreaterThan(d.Outstanding()) {
			return fmt.Errorf("RecordLineItem: %w", ErrAdjustmentExceedsOutstanding)
		}
	} else if _, err := d.charges().AddChecked(subtotal); err != nil {
		return fmt.Errorf("RecordLineItem: total: %w", err)
	}

	li.DocumentID = d.ID
	d.LineItems = append(d.LineItems, li)
	return nil
}

func (d *Document) ensureOpenForCharges() error {
	if d.IsClosed() {
		return ErrDocumentClosed
	}
	// A settled document is final; reopening the balance would move the status backwards.
	if d.Status() == StatusFullyPaid {
		return fmt.Errorf("fully paid: %w", ErrDocumentClosed)
	}
	return nil
}

func (d *Document) Close(actor string, at time.Time) error {
	if d.IsClosed() {
		return fmt.Errorf("Close: %w", ErrDocumentClosed)
	}
	d.ClosedAt = &at
	d.ClosedBy = &actor
	return nil
}

func (d *Document) PaymentByIdempotencyKey(key string) (*PaymentEvent, bool) {
	if key == "" {
		return nil, false
	}
	for i := range d.Payments {
		if k := d.Payments[i].IdempotencyKey; k != nil && *k == key {
			return &d.Payments[i], true
		}
	}
	return nil, false
}
