package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer:
		return true
	}
	return false
}

type PaymentEvent struct {
	ID             uuid.UUID
	DocumentID     uuid.UUID
	Amount         Money
	Method         PaymentMethod
	IdempotencyKey *string
	RecordedAt     time.Time
	RecordedBy     string
}

// SameIntent reports whether a retried payment carries the same amount and method.
func (p PaymentEvent) SameIntent(amount Money, method PaymentMethod) bool {
	return p.Amount == amount && p.Method == method
}
