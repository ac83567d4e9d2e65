package domain

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is an amount in the smallest unit of the clinic currency.
// Amounts entering the ledger are validated non-negative by NewMoney.
type Money int64

func NewMoney(amount int64) (Money, error) {
	if amount < 0 {
		return 0, fmt.Errorf("NewMoney: %d: %w", amount, ErrInvalidAmount)
	}
	return Money(amount), nil
}

func (m Money) Add(o Money) Money { return m + o }

// AddChecked is Add that fails instead of wrapping past the int64 range.
func (m Money) AddChecked(o Money) (Money, error) {
	if (o > 0 && m > math.MaxInt64-o) || (o < 0 && m < math.MinInt64-o) {
		return 0, fmt.Errorf("AddChecked: %d + %d out of range: %w", m, o, ErrInvalidAmount)
	}
	return m + o, nil
}

// Sub does not clamp. Callers compare first; the ledger never lets paid exceed total.
func (m Money) Sub(o Money) Money { return m - o }

func (m Money) Cmp(o Money) int {
	switch {
	case m < o:
		return -1
	case m > o:
		return 1
	default:
		return 0
	}
}

func (m Money) LessThan(o Money) bool    { return m < o }
func (m Money) GreaterThan(o Money) bool { return m > o }
func (m Money) IsZero() bool             { return m == 0 }
func (m Money) IsPositive() bool         { return m > 0 }

// MulQuantity multiplies by a quantity and rounds half away from zero to whole units.
func (m Money) MulQuantity(qty decimal.Decimal) Money {
	return Money(decimal.NewFromInt(int64(m)).Mul(qty).Round(0).IntPart())
}

var maxMoney = decimal.NewFromInt(math.MaxInt64)

// MulQuantityChecked rounds like MulQuantity but rejects products that do not fit in Money.
func (m Money) MulQuantityChecked(qty decimal.Decimal) (Money, error) {
	product := decimal.NewFromInt(int64(m)).Mul(qty).Round(0)
	if product.GreaterThan(maxMoney) || product.LessThan(maxMoney.Neg()) {
		return 0, fmt.Errorf("MulQuantityChecked: %s x %s out of range: %w", m, qty, ErrInvalidAmount)
	}
	return Money(product.IntPart()), nil
}

func (m Money) Int64() int64 { return int64(m) }

func (m Money) String() string { return strconv.FormatInt(int64(m), 10) }

func SumMoney(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
