package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
	"github.com/josh-kwaku/clinic-billing/internal/logging"
	"github.com/josh-kwaku/clinic-billing/internal/service/report"
)

type reportService interface {
	Revenue(ctx context.Context, period report.Period) (domain.Money, error)
	Outstanding(ctx context.Context, clientRef string) (domain.Money, error)
	StaffEarnings(ctx context.Context, staffRef string, period report.Period) (*report.EarningsReport, error)
	ClientSummary(ctx context.Context, clientRef string) (*report.ClientSummary, error)
}

type ReportHandler struct {
	reports  reportService
	location *time.Location
}

func NewReportHandler(reports reportService, location *time.Location) *ReportHandler {
	if location == nil {
		location = time.UTC
	}
	return &ReportHandler{reports: reports, location: location}
}

type revenueDTO struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Revenue int64     `json:"revenue"`
}

type outstandingDTO struct {
	ClientRef   string `json:"client_ref"`
	Outstanding int64  `json:"outstanding"`
}

func (h *ReportHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	period, fields := h.periodFromQuery(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	revenue, err := h.reports.Revenue(r.Context(), period)
	if err != nil {
		logging.FromContext(r.Context()).Error("revenue report failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, revenueDTO{From: period.From, To: period.To, Revenue: revenue.Int64()})
}

func (h *ReportHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	clientRef := r.URL.Query().Get("client_ref")
	if clientRef == "" {
		RespondValidationError(w, []FieldError{{Field: "client_ref", Message: "required"}})
		return
	}

	outstanding, err := h.reports.Outstanding(r.Context(), clientRef)
	if err != nil {
		logging.FromContext(r.Context()).Error("outstanding report failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, outstandingDTO{ClientRef: clientRef, Outstanding: outstanding.Int64()})
}

func (h *ReportHandler) StaffEarnings(w http.ResponseWriter, r *http.Request) {
	staffRef := r.URL.Query().Get("staff_ref")
	period, fields := h.periodFromQuery(r)
	if staffRef == "" {
		fields = append(fields, FieldError{Field: "staff_ref", Message: "required"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	rep, err := h.reports.StaffEarnings(r.Context(), staffRef, period)
	if err != nil {
		logging.FromContext(r.Context()).Error("staff earnings report failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, rep)
}

func (h *ReportHandler) ClientSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.ClientSummary(r.Context(), r.PathValue("ref"))
	if err != nil {
		logging.FromContext(r.Context()).Error("client summary failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, summary)
}

// periodFromQuery reads from and to as RFC 3339 timestamps or calendar dates.
// A date in to is exclusive, so from=2025-03-01&to=2025-03-02 covers one day.
func (h *ReportHandler) periodFromQuery(r *http.Request) (report.Period, []FieldError) {
	var (
		p    report.Period
		errs []FieldError
	)
	q := r.URL.Query()

	for _, f := range []struct {
		name string
		dst  *time.Time
	}{{"from", &p.From}, {"to", &p.To}} {
		raw := q.Get(f.name)
		if raw == "" {
			errs = append(errs, FieldError{Field: f.name, Message: "required"})
			continue
		}
		t, err := parseInstant(raw, h.location)
		if err != nil {
			errs = append(errs, FieldError{Field: f.name, Message: "must be RFC 3339 or YYYY-MM-DD"})
			continue
		}
		*f.dst = t
	}

	if len(errs) == 0 && !p.From.Before(p.To) {
		errs = append(errs, FieldError{Field: "to", Message: "must be after from"})
	}
	return p, errs
}

func parseInstant(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, raw, loc)
}
