package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LineKind string

const (
	LineKindService    LineKind = "service"
	LineKindMedication LineKind = "medication"
	LineKindInventory  LineKind = "inventory"
	LineKindAdjustment LineKind = "adjustment"
)

func (k LineKind) IsValid() bool {
	switch k {
	case LineKindService, LineKindMedication, LineKindInventory, LineKindAdjustment:
		return true
	}
	return false
}

// AllowsFraction reports whether quantities of this kind may be fractional weights.
func (k LineKind) AllowsFraction() bool {
	return k == LineKindInventory
}

// IsCredit reports whether items of this kind reduce the document total.
func (k LineKind) IsCredit() bool {
	return k == LineKindAdjustment
}

type LineItem struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Kind       LineKind
	CatalogRef string
	UnitPrice  Money
	Quantity   decimal.Decimal
	Note       *string
	RecordedAt time.Time
	RecordedBy string
}

func (li LineItem) Subtotal() Money {
	return li.UnitPrice.MulQuantity(li.Quantity)
}

// Quantities are stored as NUMERIC(18,6).
const QuantityScale = 6

// MaxQuantity is the exclusive upper bound that fits the stored column.
var MaxQuantity = decimal.New(1, 18-QuantityScale)

func ValidateQuantity(kind LineKind, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("ValidateQuantity: %s: %w", qty, ErrInvalidQuantity)
	}
	if qty.GreaterThanOrEqual(MaxQuantity) {
		return fmt.Errorf("ValidateQuantity: %s must be below %s: %w", qty, MaxQuantity, ErrInvalidQuantity)
	}
	if !qty.Equal(qty.Round(QuantityScale)) {
		return fmt.Errorf("ValidateQuantity: %s has more than %d decimal places: %w", qty, QuantityScale, ErrInvalidQuantity)
	}
	if !kind.AllowsFraction() && !qty.Equal(qty.Truncate(0)) {
		return fmt.Errorf("ValidateQuantity: %s must be a whole number for %s: %w", qty, kind, ErrInvalidQuantity)
	}
	return nil
}
