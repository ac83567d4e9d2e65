package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
	"github.com/josh-kwaku/clinic-billing/internal/events"
	"github.com/josh-kwaku/clinic-billing/internal/logging"
	"github.com/josh-kwaku/clinic-billing/internal/repository"
)

type documentRepo interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Document, error)
	BumpVersion(ctx context.Context, tx *sql.Tx, id uuid.UUID, currentVersion int64) error
	Close(ctx context.Context, tx *sql.Tx, id uuid.UUID, closedAt time.Time, closedBy string) error
	List(ctx context.Context, filter repository.DocumentFilter) ([]domain.Document, error)
}

type lineItemRepo interface {
	Create(ctx context.Context, tx *sql.Tx, li *domain.LineItem) error
}

type paymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.PaymentEvent) error
}

type catalogRepo interface {
	GetByRef(ctx context.Context, kind domain.LineKind, ref string) (*domain.CatalogItem, error)
}

type publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type recorder interface {
	DocumentOpened(kind domain.DocumentKind)
	DocumentClosed(kind domain.DocumentKind, status domain.Status)
	LineItemRecorded(docKind domain.DocumentKind, lineKind domain.LineKind)
	PaymentApplied(method domain.PaymentMethod, amount domain.Money)
	Rejected(operation string, err error)
}

type Service struct {
	documents documentRepo
	lineItems lineItemRepo
	payments  paymentRepo
	catalog   catalogRepo
	publisher publisher
	metrics   recorder
	db        *sql.DB
	policy    domain.PaymentPolicy
	now       func() time.Time
}

func NewService(
	documents documentRepo,
	lineItems lineItemRepo,
	payments paymentRepo,
	catalog catalogRepo,
	pub publisher,
	metrics recorder,
	db *sql.DB,
	policy domain.PaymentPolicy,
) *Service {
	return &Service{
		documents: documents,
		lineItems: lineItems,
		payments:  payments,
		catalog:   catalog,
		publisher: pub,
		metrics:   metrics,
		db:        db,
		policy:    policy,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Result is the outcome of a ledger mutation. Document reflects the committed state.
type Result struct {
	Document *domain.Document
	LineItem *domain.LineItem
	Payment  *domain.PaymentEvent
	Replayed bool
}

type OpenDocumentRequest struct {
	Kind       domain.DocumentKind
	SubjectRef string
	Actor      string
}

func (s *Service) OpenDocument(ctx context.Context, req OpenDocumentRequest) (*domain.Document, error) {
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("OpenDocument: %q: %w", req.Kind, domain.ErrInvalidDocumentKind)
	}
	if req.SubjectRef == "" || req.Actor == "" {
		return nil, fmt.Errorf("OpenDocument: subject and actor required: %w", domain.ErrInvalidRequest)
	}

	doc := &domain.Document{
		ID:            uuid.New(),
		Kind:          req.Kind,
		SubjectRef:    req.SubjectRef,
		OwnerActorRef: req.Actor,
		Version:       1,
		OpenedAt:      s.now(),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("OpenDocument: %w", err)
	}

	s.metrics.DocumentOpened(doc.Kind)
	s.publish(ctx, events.NewEvent(events.TypeDocumentOpened, doc, req.Actor, doc.OpenedAt))

	logging.FromContext(ctx).Info("billing document opened",
		"document_id", doc.ID,
		"kind", doc.Kind,
		"subject_ref", doc.SubjectRef,
	)
	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetDocument: %w", err)
	}
	return doc, nil
}

func (s *Service) ListSubjectDocuments(ctx context.Context, subjectRef string) ([]domain.Document, error) {
	docs, err := s.documents.List(ctx, repository.DocumentFilter{SubjectRef: &subjectRef})
	if err != nil {
		return nil, fmt.Errorf("ListSubjectDocuments: %w", err)
	}
	return docs, nil
}

func (s *Service) CloseDocument(ctx context.Context, id uuid.UUID, actor string) (*domain.Document, error) {
	if actor == "" {
		return nil, fmt.Errorf("CloseDocument: actor required: %w", domain.ErrInvalidRequest)
	}

	closedAt := s.now()
	doc, err := s.mutate(ctx, id, func(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
		if err := doc.Close(actor, closedAt); err != nil {
			return err
		}
		return s.documents.Close(ctx, tx, doc.ID, closedAt, actor)
	})
	if err != nil {
		s.metrics.Rejected("close_document", err)
		return nil, fmt.Errorf("CloseDocument: %w", err)
	}

	s.metrics.DocumentClosed(doc.Kind, doc.Status())
	s.publish(ctx, events.NewEvent(events.TypeDocumentClosed, doc, actor, closedAt))

	logging.FromContext(ctx).Info("billing document closed",
		"document_id", doc.ID,
		"status", doc.Status(),
		"outstanding", doc.Outstanding(),
	)
	return doc, nil
}

var errNoChange = errors.New("no change")

// mutate runs fn against the locked document inside one transaction and commits
// the append together with the version bump. fn returning errNoChange rolls back
// and yields the current document.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, tx *sql.Tx, doc *domain.Document) error) (*domain.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mutate: begin tx: %w", err)
	}
	defer tx.Rollback()

	doc, err := s.documents.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("mutate: %w", err)
	}

	if err := fn(ctx, tx, doc); err != nil {
		if errors.Is(err, errNoChange) {
			return doc, nil
		}
		return nil, err
	}

	if err := s.documents.BumpVersion(ctx, tx, doc.ID, doc.Version); err != nil {
		return nil, fmt.Errorf("mutate: %w", err)
	}
	doc.Version++

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("mutate: commit: %w", err)
	}
	return doc, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("failed to publish billing event",
			"event_type", e.Type,
			"document_id", e.DocumentID,
			"error", err,
		)
	}
}
