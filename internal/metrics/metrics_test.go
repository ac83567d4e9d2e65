package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("ApplyPayment: %w", domain.ErrOverpayment), "overpayment"},
		{fmt.Errorf("AddLineItem: RecordLineItem: %w", domain.ErrInvalidQuantity), "invalid_quantity"},
		{fmt.Errorf("fully paid: %w", domain.ErrDocumentClosed), "document_closed"},
		{errors.New("connection reset"), "internal"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, Reason(tc.err))
		})
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PaymentApplied(domain.PaymentMethodCard, 40000)
	m.PaymentApplied(domain.PaymentMethodCard, 60000)
	m.LineItemRecorded(domain.DocumentKindMedicalCard, domain.LineKindService)
	m.Rejected("apply_payment", domain.ErrOverpayment)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.payments.WithLabelValues("card")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.lineItems.WithLabelValues("medical_card", "service")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rejections.WithLabelValues("apply_payment", "overpayment")))
}
