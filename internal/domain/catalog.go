package domain

import "time"

// CatalogItem is a priced entry supplied by the clinic catalog at record time.
type CatalogItem struct {
	Ref       string
	Kind      LineKind
	Name      string
	UnitPrice Money
	Active    bool
	UpdatedAt time.Time
}
