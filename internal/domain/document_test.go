package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newDocument(kind DocumentKind) *Document {
	return &Document{
		ID:            uuid.New(),
		Kind:          kind,
		SubjectRef:    "client-1",
		OwnerActorRef: "doctor-1",
		OpenedAt:      testNow,
	}
}

func charge(kind LineKind, price Money, qty string) LineItem {
	return LineItem{
		ID:         uuid.New(),
		Kind:       kind,
		CatalogRef: "cat-1",
		UnitPrice:  price,
		Quantity:   decimal.RequireFromString(qty),
		RecordedAt: testNow,
		RecordedBy: "doctor-1",
	}
}

func payment(amount Money) PaymentEvent {
	return PaymentEvent{
		ID:         uuid.New(),
		Amount:     amount,
		Method:     PaymentMethodCash,
		RecordedAt: testNow,
		RecordedBy: "moderator-1",
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		paid  Money
		total Money
		want  Status
	}{
		{name: "empty document", paid: 0, total: 0, want: StatusWaiting},
		{name: "nothing paid", paid: 0, total: 100000, want: StatusWaiting},
		{name: "partly paid", paid: 40000, total: 100000, want: StatusPartlyPaid},
		{name: "fully paid", paid: 100000, total: 100000, want: StatusFullyPaid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.paid, tc.total))
		})
	}
}

func TestDocument_EmptyIsWaiting(t *testing.T) {
	doc := newDocument(DocumentKindMedicalCard)

	assert.Equal(t, Money(0), doc.Total())
	assert.Equal(t, Money(0), doc.Paid())
	assert.Equal(t, Money(0), doc.Outstanding())
	assert.Equal(t, StatusWaiting, doc.Status())
}

func TestDocument_PaymentScenario(t *testing.T) {
	doc := newDocument(DocumentKindMedicalCard)

	require.NoError(t, doc.RecordLineItem(charge(LineKindService, 50000, "2")))
	assert.Equal(t, Money(100000), doc.Total())
	assert.Equal(t, StatusWaiting, doc.Status())

	require.NoError(t, doc.ApplyPayment(payment(40000), PaymentPolicy{}))
	assert.Equal(t, Money(40000), doc.Paid())
	assert.Equal(t, Money(60000), doc.Outstanding())
	assert.Equal(t, StatusPartlyPaid, doc.Status())

	err := doc.ApplyPayment(payment(70000), PaymentPolicy{})
	require.ErrorIs(t, err, ErrOverpayment)
	assert.Equal(t, Money(40000), doc.Paid())
	assert.Len(t, doc.Payments, 1)

	require.NoError(t, doc.ApplyPayment(payment(60000), PaymentPolicy{}))
	assert.Equal(t, Money(100000), doc.Paid())
	assert.Equal(t, Money(0), doc.Outstanding())
	assert.Equal(t, StatusFullyPaid, doc.Status())
}

func TestDocument_RecordLineItem(t *testing.T) {
	closedAt := testNow

	tests := []struct {
		name    string
		doc     func() *Document
		item    LineItem
		wantErr error
	}{
		{
			name: "service on medical card",
			doc:  func() *Document { return newDocument(DocumentKindMedicalCard) },
			item: charge(LineKindService, 50000, "1"),
		},
		{
			name: "fractional feed weight",
			doc:  func() *Document { return newDocument(DocumentKindFeedSale) },
			item: charge(LineKindInventory, 8000, "2.75"),
		},
		{
			name:    "zero quantity",
			doc:     func() *Document { return newDocument(DocumentKindMedicalCard) },
			item:    charge(LineKindService, 50000, "0"),
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			doc:     func() *Document { return newDocument(DocumentKindMedicalCard) },
			item:    charge(LineKindMedication, 50000, "-1"),
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "fractional service quantity",
			doc:     func() *Document { return newDocument(DocumentKindNurseCare) },
			item:    charge(LineKindService, 50000, "1.5"),
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "inventory on medical card",
			doc:     func() *Document { return newDocument(DocumentKindMedicalCard) },
			item:    charge(LineKindInventory, 1000, "1"),
			wantErr: ErrLineKindNotAllowed,
		},
		{
			name:    "unknown kind",
			doc:     func() *Document { return newDocument(DocumentKindMedicalCard) },
			item:    charge(LineKind("surgery"), 1000, "1"),
			wantErr: ErrInvalidLineKind,
		},
		{
			name: "closed document",
			doc: func() *Document {
				d := newDocument(DocumentKindMedicalCard)
				d.ClosedAt = &closedAt
				return d
			},
			item:    charge(LineKindService, 50000, "1"),
			wantErr: ErrDocumentClosed,
		},
		{
			name: "fully paid document is final",
			doc: func() *Document {
				d := newDocument(DocumentKindMedicalCard)
				d.LineItems = []LineItem{charge(LineKindService, 1000, "1")}
				d.Payments = []PaymentEvent{payment(1000)}
				return d
			},
			item:    charge(LineKindService, 50000, "1"),
			wantErr: ErrDocumentClosed,
		},
		{
			name: "adjustment within outstanding",
			doc: func() *Document {
				d := newDocument(DocumentKindMedicalCard)
				d.LineItems = []LineItem{charge(LineKindService, 50000, "2")}
				d.Payments = []PaymentEvent{payment(40000)}
				return d
			},
			item: charge(LineKindAdjustment, 60000, "1"),
		},
		{
			name: "adjustment beyond outstanding",
			doc: func() *Document {
				d := newDocument(DocumentKindMedicalCard)
				d.LineItems = []LineItem{charge(LineKindService, 50000, "2")}
				d.Payments = []PaymentEvent{payment(40000)}
				return d
			},
			item:    charge(LineKindAdjustment, 60001, "1"),
			wantErr: ErrAdjustmentExceedsOutstanding,
		},
		{
			name:    "subtotal beyond money range",
			doc:     func() *Document { return newDocument(DocumentKindFeedSale) },
			item:    charge(LineKindInventory, 10_000_000, "999999999999"),
			wantErr: ErrInvalidAmount,
		},
		{
			name: "charges sum beyond money range",
			doc: func() *Document {
				d := newDocument(DocumentKindFeedSale)
				d.LineItems = []LineItem{charge(LineKindInventory, Money(math.MaxInt64/2+1), "1")}
				return d
			},
			item:    charge(LineKindInventory, Money(math.MaxInt64/2+1), "1"),
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "quantity at column limit",
			doc:     func() *Document { return newDocument(DocumentKindFeedSale) },
			item:    charge(LineKindInventory, 1, "1000000000000"),
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "weight finer than six decimal places",
			doc:     func() *Document { return newDocument(DocumentKindFeedSale) },
			item:    charge(LineKindInventory, 2_000_000, "1.0000004"),
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "trailing zeros past six places",
			doc:  func() *Document { return newDocument(DocumentKindFeedSale) },
			item: charge(LineKindInventory, 2_000_000, "1.250000000"),
		},
		{
			name:    "zero adjustment",
			doc:     func() *Document { return newDocument(DocumentKindFeedSale) },
			item:    charge(LineKindAdjustment, 0, "1"),
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := tc.doc()
			before := len(doc.LineItems)
			totalBefore := doc.Total()

			err := doc.RecordLineItem(tc.item)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Len(t, doc.LineItems, before)
				assert.Equal(t, totalBefore, doc.Total())
				return
			}
			require.NoError(t, err)
			assert.Len(t, doc.LineItems, before+1)
			assert.Equal(t, doc.ID, doc.LineItems[before].DocumentID)
		})
	}
}

func TestDocument_AdjustmentLowersTotal(t *testing.T) {
	doc := newDocument(DocumentKindMedicalCard)
	require.NoError(t, doc.RecordLineItem(charge(LineKindService, 50000, "2")))
	require.NoError(t, doc.ApplyPayment(payment(40000), PaymentPolicy{}))

	require.NoError(t, doc.RecordLineItem(charge(LineKindAdjustment, 60000, "1")))

	assert.Equal(t, Money(40000), doc.Total())
	assert.Equal(t, Money(0), doc.Outstanding())
	assert.Equal(t, StatusFullyPaid, doc.Status())
}

func TestDocument_ApplyPayment(t *testing.T) {
	closedAt := testNow

	withBalance := func() *Document {
		d := newDocument(DocumentKindNurseCare)
		d.LineItems = []LineItem{charge(LineKindService, 30000, "1")}
		return d
	}
	closed := func() *Document {
		d := withBalance()
		d.ClosedAt = &closedAt
		return d
	}

	tests := []struct {
		name    string
		doc     func() *Document
		payment PaymentEvent
		policy  PaymentPolicy
		wantErr error
	}{
		{name: "exact outstanding", doc: withBalance, payment: payment(30000)},
		{name: "zero amount", doc: withBalance, payment: payment(0), wantErr: ErrInvalidAmount},
		{name: "negative amount", doc: withBalance, payment: payment(-5), wantErr: ErrInvalidAmount},
		{name: "overpayment", doc: withBalance, payment: payment(30001), wantErr: ErrOverpayment},
		{
			name:    "payment on empty document",
			doc:     func() *Document { return newDocument(DocumentKindFeedSale) },
			payment: payment(1),
			wantErr: ErrOverpayment,
		},
		{
			name: "unknown method",
			doc:  withBalance,
			payment: func() PaymentEvent {
				p := payment(100)
				p.Method = PaymentMethod("crypto")
				return p
			}(),
			wantErr: ErrInvalidPaymentMethod,
		},
		{name: "closed rejects by default", doc: closed, payment: payment(100), wantErr: ErrDocumentClosed},
		{name: "closed accepts late payment", doc: closed, payment: payment(100), policy: PaymentPolicy{AllowAfterClose: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := tc.doc()
			err := doc.ApplyPayment(tc.payment, tc.policy)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, doc.Payments)
				return
			}
			require.NoError(t, err)
			assert.Len(t, doc.Payments, 1)
			assert.Equal(t, doc.ID, doc.Payments[0].DocumentID)
		})
	}
}

func TestDocument_InvariantsHoldAcrossHistory(t *testing.T) {
	doc := newDocument(DocumentKindMedicalCard)

	steps := []func() error{
		func() error { return doc.RecordLineItem(charge(LineKindService, 25000, "1")) },
		func() error { return doc.ApplyPayment(payment(10000), PaymentPolicy{}) },
		func() error { return doc.ApplyPayment(payment(20000), PaymentPolicy{}) },
		func() error { return doc.RecordLineItem(charge(LineKindMedication, 7000, "3")) },
		func() error { return doc.RecordLineItem(charge(LineKindService, 1000, "0")) },
		func() error { return doc.ApplyPayment(payment(15000), PaymentPolicy{}) },
		func() error { return doc.RecordLineItem(charge(LineKindAdjustment, 5000, "1")) },
		func() error { return doc.ApplyPayment(payment(16000), PaymentPolicy{}) },
		func() error { return doc.ApplyPayment(payment(16001), PaymentPolicy{}) },
		func() error { return doc.ApplyPayment(payment(1), PaymentPolicy{}) },
	}

	var prevPaid Money
	for i, step := range steps {
		prevTotal := doc.Total()
		_ = step()

		paid, total := doc.Paid(), doc.Total()
		assert.False(t, paid.GreaterThan(total), "step %d: paid %s > total %s", i, paid, total)
		assert.Equal(t, DeriveStatus(paid, total), doc.Status(), "step %d", i)
		assert.False(t, paid.LessThan(prevPaid), "step %d: paid decreased", i)
		assert.Equal(t, total, doc.Total(), "step %d: derivation not stable", i)
		if n := len(doc.LineItems); n > 0 && !doc.LineItems[n-1].Kind.IsCredit() {
			assert.False(t, total.LessThan(prevTotal), "step %d: total decreased after charge", i)
		}
		prevPaid = paid
	}

	assert.Equal(t, StatusFullyPaid, doc.Status())
}

func TestDocument_Close(t *testing.T) {
	doc := newDocument(DocumentKindMedicalCard)

	require.NoError(t, doc.Close("doctor-1", testNow))
	require.NotNil(t, doc.ClosedAt)
	assert.Equal(t, "doctor-1", *doc.ClosedBy)

	require.ErrorIs(t, doc.Close("doctor-1", testNow), ErrDocumentClosed)
}

func TestDocument_PaymentByIdempotencyKey(t *testing.T) {
	doc := newDocument(DocumentKindMedicalCard)
	key := "retry-1"
	p := payment(100)
	p.IdempotencyKey = &key
	doc.Payments = []PaymentEvent{payment(50), p}

	found, ok := doc.PaymentByIdempotencyKey(key)
	require.True(t, ok)
	assert.Equal(t, p.ID, found.ID)
	assert.True(t, found.SameIntent(100, PaymentMethodCash))
	assert.False(t, found.SameIntent(100, PaymentMethodCard))

	_, ok = doc.PaymentByIdempotencyKey("")
	assert.False(t, ok)
	_, ok = doc.PaymentByIdempotencyKey("other")
	assert.False(t, ok)
}

func TestDocument_TotalNeverWrapsAfterAcceptedCharge(t *testing.T) {
	doc := newDocument(DocumentKindFeedSale)
	require.NoError(t, doc.RecordLineItem(charge(LineKindInventory, 9_000_000, "999999999999")))
	total := doc.Total()
	require.True(t, total.IsPositive())

	err := doc.RecordLineItem(charge(LineKindInventory, 9_000_000, "999999999999"))
	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, total, doc.Total())

	require.NoError(t, doc.ApplyPayment(payment(1), PaymentPolicy{}))
	assert.Equal(t, total-1, doc.Outstanding())
}
