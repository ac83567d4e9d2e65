package domain

import "errors"

var (
	ErrNotFound                     = errors.New("not found")
	ErrInvalidQuantity              = errors.New("quantity must be greater than zero")
	ErrInvalidAmount                = errors.New("amount must be greater than zero")
	ErrOverpayment                  = errors.New("payment exceeds outstanding balance")
	ErrDocumentClosed               = errors.New("document closed")
	ErrAdjustmentExceedsOutstanding = errors.New("adjustment exceeds outstanding balance")
	ErrLineKindNotAllowed           = errors.New("line item kind not allowed for document")
	ErrInvalidDocumentKind          = errors.New("invalid document kind")
	ErrInvalidLineKind              = errors.New("invalid line item kind")
	ErrInvalidPaymentMethod         = errors.New("invalid payment method")
	ErrInvalidRequest               = errors.New("invalid request")
	ErrVersionConflict              = errors.New("optimistic lock conflict")
	ErrIdempotencyKeyReused         = errors.New("idempotency key already used with different payment")
	ErrCatalogItemInactive          = errors.New("catalog item inactive")
)
