package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
)

const (
	StaffNurse  = "staff-nurse-1"
	StaffVet    = "staff-vet-1"
	StaffSeller = "staff-seller-1"
)

func SeedCatalogItem(t *testing.T, db *sql.DB, ref string, kind domain.LineKind, unitPrice domain.Money) *domain.CatalogItem {
	t.Helper()

	item := &domain.CatalogItem{
		Ref:       ref,
		Kind:      kind,
		Name:      ref,
		UnitPrice: unitPrice,
		Active:    true,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO catalog_items (ref, kind, name, unit_price, active, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		item.Ref, item.Kind, item.Name, item.UnitPrice, item.Active, item.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed catalog item %s: %v", ref, err)
	}
	return item
}

func DeactivateCatalogItem(t *testing.T, db *sql.DB, ref string) {
	t.Helper()

	if _, err := db.Exec(`UPDATE catalog_items SET active = false WHERE ref = $1`, ref); err != nil {
		t.Fatalf("deactivate catalog item %s: %v", ref, err)
	}
}

func SeedDocument(t *testing.T, db *sql.DB, kind domain.DocumentKind, subjectRef, owner string) *domain.Document {
	t.Helper()

	doc := &domain.Document{
		ID:            uuid.New(),
		Kind:          kind,
		SubjectRef:    subjectRef,
		OwnerActorRef: owner,
		Version:       1,
		OpenedAt:      time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO billable_documents (id, kind, subject_ref, owner_actor_ref, version, opened_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Kind, doc.SubjectRef, doc.OwnerActorRef, doc.Version, doc.OpenedAt,
	)
	if err != nil {
		t.Fatalf("seed document for %s: %v", subjectRef, err)
	}
	return doc
}

func CountPayments(t *testing.T, db *sql.DB, documentID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM payment_events WHERE document_id = $1`, documentID).Scan(&count)
	if err != nil {
		t.Fatalf("count payments for document %s: %v", documentID, err)
	}
	return count
}

func CountLineItems(t *testing.T, db *sql.DB, documentID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM line_items WHERE document_id = $1`, documentID).Scan(&count)
	if err != nil {
		t.Fatalf("count line items for document %s: %v", documentID, err)
	}
	return count
}

func GetDocumentVersion(t *testing.T, db *sql.DB, documentID uuid.UUID) int64 {
	t.Helper()

	var version int64
	err := db.QueryRow(`SELECT version FROM billable_documents WHERE id = $1`, documentID).Scan(&version)
	if err != nil {
		t.Fatalf("get document version %s: %v", documentID, err)
	}
	return version
}
