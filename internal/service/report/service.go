package report

import (
	"context"
	"fmt"
	"time"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
	"github.com/josh-kwaku/clinic-billing/internal/repository"
)

type documentLister interface {
	List(ctx context.Context, filter repository.DocumentFilter) ([]domain.Document, error)
}

// Service loads committed documents and runs the aggregators over them.
// Reads are informational and may lag writers.
type Service struct {
	documents documentLister
	location  *time.Location
}

func NewService(documents documentLister, location *time.Location) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{documents: documents, location: location}
}

func (s *Service) Revenue(ctx context.Context, period Period) (domain.Money, error) {
	if err := validatePeriod(period); err != nil {
		return 0, fmt.Errorf("Revenue: %w", err)
	}
	docs, err := s.documents.List(ctx, activeIn(period))
	if err != nil {
		return 0, fmt.Errorf("Revenue: %w", err)
	}
	return RevenueFor(docs, period), nil
}

func (s *Service) Outstanding(ctx context.Context, clientRef string) (domain.Money, error) {
	if clientRef == "" {
		return 0, fmt.Errorf("Outstanding: client ref required: %w", domain.ErrInvalidRequest)
	}
	docs, err := s.documents.List(ctx, repository.DocumentFilter{SubjectRef: &clientRef, OpenOnly: true})
	if err != nil {
		return 0, fmt.Errorf("Outstanding: %w", err)
	}
	return OutstandingByClient(docs, clientRef), nil
}

type EarningsReport struct {
	StaffRef string          `json:"staff_ref"`
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Total    domain.Money    `json:"total"`
	Daily    []DailyEarnings `json:"daily"`
}

func (s *Service) StaffEarnings(ctx context.Context, staffRef string, period Period) (*EarningsReport, error) {
	if staffRef == "" {
		return nil, fmt.Errorf("StaffEarnings: staff ref required: %w", domain.ErrInvalidRequest)
	}
	if err := validatePeriod(period); err != nil {
		return nil, fmt.Errorf("StaffEarnings: %w", err)
	}
	docs, err := s.documents.List(ctx, activeIn(period))
	if err != nil {
		return nil, fmt.Errorf("StaffEarnings: %w", err)
	}
	return &EarningsReport{
		StaffRef: staffRef,
		From:     period.From,
		To:       period.To,
		Total:    StaffEarnings(docs, staffRef, period),
		Daily:    DailyStaffEarnings(docs, staffRef, period, s.location),
	}, nil
}

func (s *Service) ClientSummary(ctx context.Context, clientRef string) (*ClientSummary, error) {
	if clientRef == "" {
		return nil, fmt.Errorf("ClientSummary: client ref required: %w", domain.ErrInvalidRequest)
	}
	docs, err := s.documents.List(ctx, repository.DocumentFilter{SubjectRef: &clientRef})
	if err != nil {
		return nil, fmt.Errorf("ClientSummary: %w", err)
	}
	summary := Summarize(docs, clientRef)
	return &summary, nil
}

func activeIn(p Period) repository.DocumentFilter {
	return repository.DocumentFilter{ActiveFrom: &p.From, ActiveTo: &p.To}
}

func validatePeriod(p Period) error {
	if p.From.IsZero() || p.To.IsZero() || !p.From.Before(p.To) {
		return fmt.Errorf("period [%s, %s): %w", p.From.Format(time.RFC3339), p.To.Format(time.RFC3339), domain.ErrInvalidRequest)
	}
	return nil
}
