package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/clinic-billing/internal/domain"
	"github.com/josh-kwaku/clinic-billing/internal/repository"
	"github.com/josh-kwaku/clinic-billing/internal/testutil"
)

func recordItem(t *testing.T, db *sql.DB, docID uuid.UUID, at time.Time, by string) {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = repository.NewLineItemRepository(db).Create(context.Background(), tx, &domain.LineItem{
		ID:         uuid.New(),
		DocumentID: docID,
		Kind:       domain.LineKindService,
		CatalogRef: "checkup",
		UnitPrice:  50_000,
		Quantity:   decimal.NewFromInt(1),
		RecordedAt: at,
		RecordedBy: by,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

func recordPayment(t *testing.T, db *sql.DB, docID uuid.UUID, at time.Time, key *string) error {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = repository.NewPaymentEventRepository(db).Create(context.Background(), tx, &domain.PaymentEvent{
		ID:             uuid.New(),
		DocumentID:     docID,
		Amount:         20_000,
		Method:         domain.PaymentMethodCash,
		IdempotencyKey: key,
		RecordedAt:     at,
		RecordedBy:     testutil.StaffVet,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

func TestDocumentRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewDocumentRepository(db)

	march := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

	marchCard := testutil.SeedDocument(t, db, domain.DocumentKindMedicalCard, "owner-1", testutil.StaffVet)
	recordItem(t, db, marchCard.ID, march, testutil.StaffVet)

	aprilCare := testutil.SeedDocument(t, db, domain.DocumentKindNurseCare, "owner-1", testutil.StaffNurse)
	recordItem(t, db, aprilCare.ID, april, testutil.StaffNurse)
	require.NoError(t, recordPayment(t, db, aprilCare.ID, april, nil))

	otherOwner := testutil.SeedDocument(t, db, domain.DocumentKindMedicalCard, "owner-2", testutil.StaffVet)
	recordItem(t, db, otherOwner.ID, march, testutil.StaffVet)

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.Close(ctx, tx, marchCard.ID, april, testutil.StaffVet))
	require.NoError(t, tx.Commit())

	ids := func(docs []domain.Document) []uuid.UUID {
		out := make([]uuid.UUID, len(docs))
		for i, d := range docs {
			out[i] = d.ID
		}
		return out
	}

	t.Run("by subject", func(t *testing.T) {
		owner := "owner-1"
		docs, err := repo.List(ctx, repository.DocumentFilter{SubjectRef: &owner})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{marchCard.ID, aprilCare.ID}, ids(docs))
	})

	t.Run("open only", func(t *testing.T) {
		owner := "owner-1"
		docs, err := repo.List(ctx, repository.DocumentFilter{SubjectRef: &owner, OpenOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{aprilCare.ID}, ids(docs))
	})

	t.Run("active in period is half open", func(t *testing.T) {
		from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		to := april
		docs, err := repo.List(ctx, repository.DocumentFilter{ActiveFrom: &from, ActiveTo: &to})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{marchCard.ID, otherOwner.ID}, ids(docs))
	})

	t.Run("hydrates line items and payments", func(t *testing.T) {
		owner := "owner-1"
		docs, err := repo.List(ctx, repository.DocumentFilter{SubjectRef: &owner, OpenOnly: true})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Len(t, docs[0].LineItems, 1)
		assert.Len(t, docs[0].Payments, 1)
		assert.Equal(t, domain.Money(30_000), docs[0].Outstanding())
	})
}

func TestDocumentRepository_CloseTwice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewDocumentRepository(db)

	doc := testutil.SeedDocument(t, db, domain.DocumentKindFeedSale, "farm-9", testutil.StaffSeller)

	for i, want := range []error{nil, domain.ErrDocumentClosed} {
		tx, err := db.Begin()
		require.NoError(t, err)
		err = repo.Close(ctx, tx, doc.ID, time.Now().UTC(), testutil.StaffSeller)
		if want == nil {
			require.NoError(t, err, "attempt %d", i)
			require.NoError(t, tx.Commit())
			continue
		}
		assert.ErrorIs(t, err, want, "attempt %d", i)
		tx.Rollback()
	}
}

func TestPaymentEventRepository_DuplicateKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	doc := testutil.SeedDocument(t, db, domain.DocumentKindMedicalCard, "owner-3", testutil.StaffVet)
	key := "till-7-0001"

	require.NoError(t, recordPayment(t, db, doc.ID, time.Now().UTC(), &key))
	err := recordPayment(t, db, doc.ID, time.Now().UTC(), &key)
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyReused)
	assert.Equal(t, 1, testutil.CountPayments(t, db, doc.ID))
}

func TestCatalogRepository_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewCatalogRepository(db)

	item := &domain.CatalogItem{Ref: "checkup", Kind: domain.LineKindService, Name: "Checkup", UnitPrice: 50_000, Active: true}
	require.NoError(t, repo.Upsert(ctx, item))

	item.UnitPrice = 65_000
	item.Active = false
	require.NoError(t, repo.Upsert(ctx, item))

	got, err := repo.GetByRef(ctx, domain.LineKindService, "checkup")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(65_000), got.UnitPrice)
	assert.False(t, got.Active)

	_, err = repo.GetByRef(ctx, domain.LineKindMedication, "checkup")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIdempotencyRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewIdempotencyRepository(db)
	now := time.Now().UTC()

	live := &repository.IdempotencyCacheEntry{
		Key:          "k1",
		ActorRef:     testutil.StaffVet,
		RequestHash:  "abc",
		StatusCode:   201,
		ResponseBody: []byte(`{"ok":true}`),
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	require.NoError(t, repo.Set(ctx, live))

	got, err := repo.Get(ctx, "k1", testutil.StaffVet)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.RequestHash)
	assert.JSONEq(t, `{"ok":true}`, string(got.ResponseBody))

	t.Run("scoped per actor", func(t *testing.T) {
		got, err := repo.Get(ctx, "k1", testutil.StaffNurse)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("live entry is not overwritten", func(t *testing.T) {
		clash := *live
		clash.RequestHash = "other"
		require.NoError(t, repo.Set(ctx, &clash))

		got, err := repo.Get(ctx, "k1", testutil.StaffVet)
		require.NoError(t, err)
		assert.Equal(t, "abc", got.RequestHash)
	})

	t.Run("expired entries are hidden and pruned", func(t *testing.T) {
		stale := *live
		stale.Key = "k2"
		stale.CreatedAt = now.Add(-2 * time.Hour)
		stale.ExpiresAt = now.Add(-time.Hour)
		require.NoError(t, repo.Set(ctx, &stale))

		got, err := repo.Get(ctx, "k2", testutil.StaffVet)
		require.NoError(t, err)
		assert.Nil(t, got)

		n, err := repo.CleanExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
