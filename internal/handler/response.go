package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	RespondAppError(w, appErrorFor(err), nil)
}

func appErrorFor(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound
	case errors.Is(err, domain.ErrInvalidQuantity):
		return ErrInvalidQuantity
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, domain.ErrInvalidDocumentKind):
		return ErrInvalidDocumentKind
	case errors.Is(err, domain.ErrInvalidLineKind), errors.Is(err, domain.ErrInvalidRequest):
		return ErrInvalidRequest
	case errors.Is(err, domain.ErrInvalidPaymentMethod):
		return ErrInvalidPaymentMethod
	case errors.Is(err, domain.ErrLineKindNotAllowed):
		return ErrLineKindNotAllowed
	case errors.Is(err, domain.ErrOverpayment):
		return ErrOverpayment
	case errors.Is(err, domain.ErrAdjustmentExceedsOutstanding):
		return ErrAdjustmentExceedsOutstanding
	case errors.Is(err, domain.ErrDocumentClosed):
		return ErrDocumentClosed
	case errors.Is(err, domain.ErrCatalogItemInactive):
		return ErrCatalogItemInactive
	case errors.Is(err, domain.ErrIdempotencyKeyReused):
		return ErrIdempotencyKeyReused
	case errors.Is(err, domain.ErrVersionConflict):
		return ErrVersionConflict
	default:
		slog.Error("unhandled domain error", "error", err)
		return ErrInternalError
	}
}
