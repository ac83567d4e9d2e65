package billing

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
	"github.com/josh-kwaku/clinic-billing/internal/events"
	"github.com/josh-kwaku/clinic-billing/internal/logging"
)

const adjustmentCatalogRef = "adjustment"

type AddLineItemRequest struct {
	DocumentID uuid.UUID
	Kind       domain.LineKind
	CatalogRef string
	UnitPrice  domain.Money
	Quantity   decimal.Decimal
	Note       *string
	Actor      string
}

// AddLineItem records a charge at the given unit price. The price is stored on the
// line item and never re-read from the catalog.
func (s *Service) AddLineItem(ctx context.Context, req AddLineItemRequest) (*Result, error) {
	if req.Actor == "" || req.CatalogRef == "" {
		return nil, fmt.Errorf("AddLineItem: catalog ref and actor required: %w", domain.ErrInvalidRequest)
	}

	li := domain.LineItem{
		ID:         uuid.New(),
		Kind:       req.Kind,
		CatalogRef: req.CatalogRef,
		UnitPrice:  req.UnitPrice,
		Quantity:   req.Quantity,
		Note:       req.Note,
		RecordedAt: s.now(),
		RecordedBy: req.Actor,
	}

	doc, err := s.mutate(ctx, req.DocumentID, func(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
		if err := doc.RecordLineItem(li); err != nil {
			return err
		}
		return s.lineItems.Create(ctx, tx, &doc.LineItems[len(doc.LineItems)-1])
	})
	if err != nil {
		s.metrics.Rejected("add_line_item", err)
		return nil, fmt.Errorf("AddLineItem: %w", err)
	}

	recorded := doc.LineItems[len(doc.LineItems)-1]
	s.metrics.LineItemRecorded(doc.Kind, recorded.Kind)
	s.publish(ctx, events.NewEvent(events.TypeLineItemRecorded, doc, req.Actor, recorded.RecordedAt).WithLineItem(recorded))

	logging.FromContext(ctx).Info("line item recorded",
		"document_id", doc.ID,
		"line_item_id", recorded.ID,
		"kind", recorded.Kind,
		"catalog_ref", recorded.CatalogRef,
		"subtotal", recorded.Subtotal(),
		"total", doc.Total(),
	)

	return &Result{Document: doc, LineItem: &recorded}, nil
}

type CatalogChargeRequest struct {
	DocumentID uuid.UUID
	CatalogRef string
	Quantity   decimal.Decimal
	Note       *string
	Actor      string
}

func (s *Service) AddService(ctx context.Context, req CatalogChargeRequest) (*Result, error) {
	res, err := s.addCatalogCharge(ctx, domain.LineKindService, req)
	if err != nil {
		return nil, fmt.Errorf("AddService: %w", err)
	}
	return res, nil
}

func (s *Service) AddMedication(ctx context.Context, req CatalogChargeRequest) (*Result, error) {
	res, err := s.addCatalogCharge(ctx, domain.LineKindMedication, req)
	if err != nil {
		return nil, fmt.Errorf("AddMedication: %w", err)
	}
	return res, nil
}

func (s *Service) AddFeedItem(ctx context.Context, req CatalogChargeRequest) (*Result, error) {
	res, err := s.addCatalogCharge(ctx, domain.LineKindInventory, req)
	if err != nil {
		return nil, fmt.Errorf("AddFeedItem: %w", err)
	}
	return res, nil
}

func (s *Service) addCatalogCharge(ctx context.Context, kind domain.LineKind, req CatalogChargeRequest) (*Result, error) {
	if err := domain.ValidateQuantity(kind, req.Quantity); err != nil {
		s.metrics.Rejected("add_line_item", err)
		return nil, fmt.Errorf("addCatalogCharge: %w", err)
	}

	item, err := s.catalog.GetByRef(ctx, kind, req.CatalogRef)
	if err != nil {
		return nil, fmt.Errorf("addCatalogCharge: %w", err)
	}
	if !item.Active {
		return nil, fmt.Errorf("addCatalogCharge: %q: %w", item.Ref, domain.ErrCatalogItemInactive)
	}

	return s.AddLineItem(ctx, AddLineItemRequest{
		DocumentID: req.DocumentID,
		Kind:       kind,
		CatalogRef: item.Ref,
		UnitPrice:  item.UnitPrice,
		Quantity:   req.Quantity,
		Note:       req.Note,
		Actor:      req.Actor,
	})
}

type AdjustmentRequest struct {
	DocumentID uuid.UUID
	Amount     domain.Money
	Note       string
	Actor      string
}

// AddAdjustment records a correction as a new credit line; earlier items are never edited.
func (s *Service) AddAdjustment(ctx context.Context, req AdjustmentRequest) (*Result, error) {
	if req.Note == "" {
		return nil, fmt.Errorf("AddAdjustment: note required: %w", domain.ErrInvalidRequest)
	}
	note := req.Note

	res, err := s.AddLineItem(ctx, AddLineItemRequest{
		DocumentID: req.DocumentID,
		Kind:       domain.LineKindAdjustment,
		CatalogRef: adjustmentCatalogRef,
		UnitPrice:  req.Amount,
		Quantity:   decimal.NewFromInt(1),
		Note:       &note,
		Actor:      req.Actor,
	})
	if err != nil {
		return nil, fmt.Errorf("AddAdjustment: %w", err)
	}
	return res, nil
}
