package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

type Metrics struct {
	documentsOpened *prometheus.CounterVec
	documentsClosed *prometheus.CounterVec
	lineItems       *prometheus.CounterVec
	payments        *prometheus.CounterVec
	paymentAmount   *prometheus.HistogramVec
	rejections      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		documentsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_documents_opened_total",
			Help: "Billable documents opened by kind.",
		}, []string{"kind"}),
		documentsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_documents_closed_total",
			Help: "Billable documents closed by kind and payment status at close.",
		}, []string{"kind", "status"}),
		lineItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_line_items_recorded_total",
			Help: "Line items recorded by document kind and line kind.",
		}, []string{"document_kind", "line_kind"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_payments_applied_total",
			Help: "Payments applied by method.",
		}, []string{"method"}),
		paymentAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billing_payment_amount",
			Help:    "Applied payment amounts in minor currency units.",
			Buckets: prometheus.ExponentialBuckets(10_000, 4, 8),
		}, []string{"method"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_operations_rejected_total",
			Help: "Ledger operations rejected by operation and reason.",
		}, []string{"operation", "reason"}),
	}

	reg.MustRegister(
		m.documentsOpened, m.documentsClosed, m.lineItems,
		m.payments, m.paymentAmount, m.rejections,
	)
	return m
}

func (m *Metrics) DocumentOpened(kind domain.DocumentKind) {
	m.documentsOpened.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) DocumentClosed(kind domain.DocumentKind, status domain.Status) {
	m.documentsClosed.WithLabelValues(string(kind), string(status)).Inc()
}

func (m *Metrics) LineItemRecorded(docKind domain.DocumentKind, lineKind domain.LineKind) {
	m.lineItems.WithLabelValues(string(docKind), string(lineKind)).Inc()
}

func (m *Metrics) PaymentApplied(method domain.PaymentMethod, amount domain.Money) {
	m.payments.WithLabelValues(string(method)).Inc()
	m.paymentAmount.WithLabelValues(string(method)).Observe(float64(amount))
}

func (m *Metrics) Rejected(operation string, err error) {
	m.rejections.WithLabelValues(operation, Reason(err)).Inc()
}

var reasons = []struct {
	err   error
	label string
}{
	{domain.ErrInvalidQuantity, "invalid_quantity"},
	{domain.ErrInvalidAmount, "invalid_amount"},
	{domain.ErrOverpayment, "overpayment"},
	{domain.ErrDocumentClosed, "document_closed"},
	{domain.ErrAdjustmentExceedsOutstanding, "adjustment_exceeds_outstanding"},
	{domain.ErrLineKindNotAllowed, "line_kind_not_allowed"},
	{domain.ErrInvalidPaymentMethod, "invalid_payment_method"},
	{domain.ErrIdempotencyKeyReused, "idempotency_key_reused"},
	{domain.ErrVersionConflict, "version_conflict"},
	{domain.ErrNotFound, "not_found"},
}

// Reason maps an error to a bounded label value.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "internal"
}
