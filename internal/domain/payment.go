package domain

import "fmt"

type PaymentPolicy struct {
	AllowAfterClose bool
}

// ApplyPayment validates p against the current balance and appends it.
// paid never exceeds total: the check runs against the same history the payment is added to.
func (d *Document) ApplyPayment(p PaymentEvent, policy PaymentPolicy) error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("ApplyPayment: %w", ErrInvalidAmount)
	}
	if !p.Method.IsValid() {
		return fmt.Errorf("ApplyPayment: %q: %w", p.Method, ErrInvalidPaymentMethod)
	}
	if d.IsClosed() && !policy.AllowAfterClose {
		return fmt.Errorf("ApplyPayment: %w", ErrDocumentClosed)
	}

	outstanding := d.Outstanding()
	if p.Amount.GreaterThan(outstanding) {
		return fmt.Errorf("ApplyPayment: amount %s, outstanding %s: %w", p.Amount, outstanding, ErrOverpayment)
	}

	p.DocumentID = d.ID
	d.Payments = append(d.Payments, p)
	return nil
}
