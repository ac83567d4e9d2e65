package report

import (
	"slices"
	"time"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

// Period is the half-open interval [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// RevenueFor recognizes revenue when it is collected: only payments recorded inside the period count.
func RevenueFor(docs []domain.Document, period Period) domain.Money {
	var revenue domain.Money
	for _, d := range docs {
		for _, p := range d.Payments {
			if period.Contains(p.RecordedAt) {
				revenue = revenue.Add(p.Amount)
			}
		}
	}
	return revenue
}

func OutstandingByClient(docs []domain.Document, clientRef string) domain.Money {
	var outstanding domain.Money
	for i := range docs {
		d := &docs[i]
		if d.SubjectRef != clientRef || d.IsClosed() {
			continue
		}
		outstanding = outstanding.Add(d.Outstanding())
	}
	return outstanding
}

// StaffEarnings sums the charges a staff member recorded in the period, paid or not.
// Adjustments are not earnings.
func StaffEarnings(docs []domain.Document, staffRef string, period Period) domain.Money {
	var earned domain.Money
	for _, li := range staffCharges(docs, staffRef, period) {
		earned = earned.Add(li.Subtotal())
	}
	return earned
}

type DailyEarnings struct {
	Day    time.Time    `json:"day"`
	Amount domain.Money `json:"amount"`
	Items  int          `json:"items"`
}

// DailyStaffEarnings splits StaffEarnings by calendar day in loc, oldest first.
// Days without charges are omitted.
func DailyStaffEarnings(docs []domain.Document, staffRef string, period Period, loc *time.Location) []DailyEarnings {
	if loc == nil {
		loc = time.UTC
	}

	byDay := make(map[time.Time]*DailyEarnings)
	var days []time.Time
	for _, li := range staffCharges(docs, staffRef, period) {
		t := li.RecordedAt.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		e, ok := byDay[day]
		if !ok {
			e = &DailyEarnings{Day: day}
			byDay[day] = e
			days = append(days, day)
		}
		e.Amount = e.Amount.Add(li.Subtotal())
		e.Items++
	}

	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
	out := make([]DailyEarnings, 0, len(days))
	for _, day := range days {
		out = append(out, *byDay[day])
	}
	return out
}

func staffCharges(docs []domain.Document, staffRef string, period Period) []domain.LineItem {
	var out []domain.LineItem
	for _, d := range docs {
		for _, li := range d.LineItems {
			if li.Kind.IsCredit() || li.RecordedBy != staffRef || !period.Contains(li.RecordedAt) {
				continue
			}
			out = append(out, li)
		}
	}
	return out
}

type ClientSummary struct {
	ClientRef     string                `json:"client_ref"`
	Documents     int                   `json:"documents"`
	OpenDocuments int                   `json:"open_documents"`
	Total         domain.Money          `json:"total"`
	Paid          domain.Money          `json:"paid"`
	Outstanding   domain.Money          `json:"outstanding"`
	ByStatus      map[domain.Status]int `json:"by_status"`
}

// Summarize covers every document of the client, open or closed. Outstanding counts open documents only.
func Summarize(docs []domain.Document, clientRef string) ClientSummary {
	var mine []domain.Document
	for _, d := range docs {
		if d.SubjectRef == clientRef {
			mine = append(mine, d)
		}
	}

	s := ClientSummary{
		ClientRef:   clientRef,
		Documents:   len(mine),
		Outstanding: OutstandingByClient(mine, clientRef),
		ByStatus:    CountByStatus(mine),
	}
	for i := range mine {
		d := &mine[i]
		s.Total = s.Total.Add(d.Total())
		s.Paid = s.Paid.Add(d.Paid())
		if !d.IsClosed() {
			s.OpenDocuments++
		}
	}
	return s
}

// CountByStatus always reports every status, zero counts included.
func CountByStatus(docs []domain.Document) map[domain.Status]int {
	counts := map[domain.Status]int{
		domain.StatusWaiting:    0,
		domain.StatusPartlyPaid: 0,
		domain.StatusFullyPaid:  0,
	}
	for i := range docs {
		counts[docs[i].Status()]++
	}
	return counts
}
