package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/clinic-billing/internal/auth"
	"github.com/josh-kwaku/clinic-billing/internal/domain"
	"github.com/josh-kwaku/clinic-billing/internal/logging"
	"github.com/josh-kwaku/clinic-billing/internal/service/billing"
)

type billingService interface {
	OpenDocument(ctx context.Context, req billing.OpenDocumentRequest) (*domain.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	ListSubjectDocuments(ctx context.Context, subjectRef string) ([]domain.Document, error)
	AddService(ctx context.Context, req billing.CatalogChargeRequest) (*billing.Result, error)
	AddMedication(ctx context.Context, req billing.CatalogChargeRequest) (*billing.Result, error)
	AddFeedItem(ctx context.Context, req billing.CatalogChargeRequest) (*billing.Result, error)
	AddAdjustment(ctx context.Context, req billing.AdjustmentRequest) (*billing.Result, error)
	ApplyPayment(ctx context.Context, req billing.ApplyPaymentRequest) (*billing.Result, error)
	CloseDocument(ctx context.Context, id uuid.UUID, actor string) (*domain.Document, error)
}

type DocumentHandler struct {
	billing billingService
}

func NewDocumentHandler(billing billingService) *DocumentHandler {
	return &DocumentHandler{billing: billing}
}

type openDocumentRequest struct {
	Kind       string `json:"kind"`
	SubjectRef string `json:"subject_ref"`
}

func (r openDocumentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Kind == "" {
		errs = append(errs, FieldError{Field: "kind", Message: "required"})
	} else if !domain.DocumentKind(r.Kind).IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be medical_card, nurse_care, or feed_sale"})
	}
	if r.SubjectRef == "" {
		errs = append(errs, FieldError{Field: "subject_ref", Message: "required"})
	}
	return errs
}

type chargeRequest struct {
	CatalogRef string          `json:"catalog_ref"`
	Quantity   decimal.Decimal `json:"quantity"`
	Note       *string         `json:"note"`
}

func (r chargeRequest) Validate() []FieldError {
	var errs []FieldError
	if r.CatalogRef == "" {
		errs = append(errs, FieldError{Field: "catalog_ref", Message: "required"})
	}
	switch {
	case !r.Quantity.IsPositive():
		errs = append(errs, FieldError{Field: "quantity", Message: "must be greater than 0"})
	case r.Quantity.GreaterThanOrEqual(domain.MaxQuantity):
		errs = append(errs, FieldError{Field: "quantity", Message: "must be less than " + domain.MaxQuantity.String()})
	case !r.Quantity.Equal(r.Quantity.Round(domain.QuantityScale)):
		errs = append(errs, FieldError{Field: "quantity", Message: fmt.Sprintf("at most %d decimal places", domain.QuantityScale)})
	}
	return errs
}

type adjustmentRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

func (r adjustmentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.Note == "" {
		errs = append(errs, FieldError{Field: "note", Message: "required"})
	}
	return errs
}

type paymentRequest struct {
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

func (r paymentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.Method == "" {
		errs = append(errs, FieldError{Field: "method", Message: "required"})
	} else if !domain.PaymentMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "must be cash, card, or transfer"})
	}
	return errs
}

func (h *DocumentHandler) Open(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req openDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	doc, err := h.billing.OpenDocument(r.Context(), billing.OpenDocumentRequest{
		Kind:       domain.DocumentKind(req.Kind),
		SubjectRef: req.SubjectRef,
		Actor:      actor.Ref,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("document open failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/documents/%s", doc.ID))
	RespondSuccess(w, http.StatusCreated, toDocumentDTO(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	doc, err := h.billing.GetDocument(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("document lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toDocumentDTO(doc))
}

func (h *DocumentHandler) ListBySubject(w http.ResponseWriter, r *http.Request) {
	docs, err := h.billing.ListSubjectDocuments(r.Context(), r.PathValue("ref"))
	if err != nil {
		logging.FromContext(r.Context()).Error("subject documents lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]documentSummaryDTO, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentSummaryDTO(&docs[i]))
	}
	RespondSuccess(w, http.StatusOK, out)
}

func (h *DocumentHandler) Close(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	doc, err := h.billing.CloseDocument(r.Context(), id, actor.Ref)
	if err != nil {
		logging.FromContext(r.Context()).Warn("document close failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toDocumentDTO(doc))
}

func (h *DocumentHandler) AddService(w http.ResponseWriter, r *http.Request) {
	h.addCharge(w, r, h.billing.AddService)
}

func (h *DocumentHandler) AddMedication(w http.ResponseWriter, r *http.Request) {
	h.addCharge(w, r, h.billing.AddMedication)
}

func (h *DocumentHandler) AddFeedItem(w http.ResponseWriter, r *http.Request) {
	h.addCharge(w, r, h.billing.AddFeedItem)
}

type chargeFunc func(ctx context.Context, req billing.CatalogChargeRequest) (*billing.Result, error)

func (h *DocumentHandler) addCharge(w http.ResponseWriter, r *http.Request, add chargeFunc) {
	actor, id, ok := actorAndDocument(w, r)
	if !ok {
		return
	}

	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := add(r.Context(), billing.CatalogChargeRequest{
		DocumentID: id,
		CatalogRef: req.CatalogRef,
		Quantity:   req.Quantity,
		Note:       req.Note,
		Actor:      actor.Ref,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("charge rejected", "document_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toMutationDTO(res))
}

func (h *DocumentHandler) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndDocument(w, r)
	if !ok {
		return
	}

	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.billing.AddAdjustment(r.Context(), billing.AdjustmentRequest{
		DocumentID: id,
		Amount:     domain.Money(req.Amount),
		Note:       req.Note,
		Actor:      actor.Ref,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("adjustment rejected", "document_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toMutationDTO(res))
}

func (h *DocumentHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := actorAndDocument(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.billing.ApplyPayment(r.Context(), billing.ApplyPaymentRequest{
		DocumentID:     id,
		Amount:         domain.Money(req.Amount),
		Method:         domain.PaymentMethod(req.Method),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		Actor:          actor.Ref,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment rejected", "document_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	RespondSuccess(w, status, toMutationDTO(res))
}

func actorAndDocument(w http.ResponseWriter, r *http.Request) (auth.Actor, uuid.UUID, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return auth.Actor{}, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return auth.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

func toMutationDTO(res *billing.Result) mutationDTO {
	dto := mutationDTO{Document: toDocumentDTO(res.Document)}
	if res.LineItem != nil {
		li := toLineItemDTO(*res.LineItem)
		dto.LineItem = &li
	}
	if res.Payment != nil {
		p := toPaymentDTO(*res.Payment)
		dto.Payment = &p
	}
	return dto
}
