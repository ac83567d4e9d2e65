package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidQuantity              = &AppError{http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be a positive number, whole for services and medications"}
	ErrInvalidAmount                = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero and within ledger limits"}
	ErrInvalidDocumentKind          = &AppError{http.StatusBadRequest, "INVALID_DOCUMENT_KIND", "Document kind must be medical_card, nurse_care, or feed_sale"}
	ErrInvalidPaymentMethod         = &AppError{http.StatusBadRequest, "INVALID_PAYMENT_METHOD", "Payment method must be cash, card, or transfer"}
	ErrLineKindNotAllowed           = &AppError{http.StatusUnprocessableEntity, "LINE_KIND_NOT_ALLOWED", "This charge cannot be added to this kind of document"}
	ErrOverpayment                  = &AppError{http.StatusUnprocessableEntity, "OVERPAYMENT", "Payment exceeds the outstanding balance"}
	ErrAdjustmentExceedsOutstanding = &AppError{http.StatusUnprocessableEntity, "ADJUSTMENT_EXCEEDS_OUTSTANDING", "Adjustment exceeds the outstanding balance"}
	ErrDocumentClosed               = &AppError{http.StatusUnprocessableEntity, "DOCUMENT_CLOSED", "Document no longer accepts this operation"}
	ErrCatalogItemInactive          = &AppError{http.StatusUnprocessableEntity, "CATALOG_ITEM_INACTIVE", "Catalog item is no longer offered"}
	ErrIdempotencyKeyReused         = &AppError{http.StatusConflict, "IDEMPOTENCY_KEY_REUSED", "Idempotency key already used for a different payment"}
	ErrVersionConflict              = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrMissingIdempotencyKey        = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict          = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
