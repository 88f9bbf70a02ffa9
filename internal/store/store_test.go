package store

import (
	"context"
	"testing"
	"time"

	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/saga"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(id string, state saga.State, updated time.Time) saga.Snapshot {
	summary := domain.NewFinancialSummary(decimal.NewFromInt(50000), decimal.NewFromInt(10000))
	return saga.Snapshot{
		ID:                  id,
		TaxYear:             domain.NewTaxYear(2025),
		State:               state,
		Step:                saga.StepReviewCalculation,
		Summary:             summary,
		TaxDeductedAtSource: decimal.RequireFromString("120.50"),
		Result: &domain.TaxLiabilityResult{
			TaxYear:        domain.NewTaxYear(2025),
			NetProfit:      decimal.NewFromInt(40000),
			TotalIncomeTax: decimal.NewFromInt(5486),
			NIClass4:       decimal.RequireFromString("1645.80"),
			NIClass2:       decimal.NewFromInt(182),
			TotalLiability: decimal.RequireFromString("7313.80"),
		},
		Confirmed: []declaration.Key{declaration.KeyAccuracy, declaration.KeyPenalties},
		Attempt:   1,
		CreatedAt: updated.Add(-time.Hour),
		UpdatedAt: updated,
	}
}

func runStoreTests(t *testing.T, s saga.Store) {
	ctx := context.Background()
	base := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)

	t.Run("load unknown", func(t *testing.T) {
		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, saga.ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		want := sampleSnapshot("a", saga.StateCalculated, base)
		require.NoError(t, s.Save(ctx, want))

		got, err := s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, saga.StateCalculated, got.State)
		assert.Equal(t, saga.StepReviewCalculation, got.Step)
		assert.Equal(t, 2025, got.TaxYear.StartYear)
		assert.True(t, got.Summary.Complete())
		assert.Equal(t, "40000", got.Summary.NetProfit().String())
		assert.Equal(t, "120.5", got.TaxDeductedAtSource.String())
		require.NotNil(t, got.Result)
		assert.True(t, got.Result.TotalLiability.Equal(want.Result.TotalLiability))
		assert.Equal(t, want.Confirmed, got.Confirmed)
		assert.True(t, got.UpdatedAt.Equal(base))
	})

	t.Run("save overwrites", func(t *testing.T) {
		snap := sampleSnapshot("a", saga.StateSubmitted, base.Add(time.Minute))
		snap.Reference = "XAIT00000123456"
		require.NoError(t, s.Save(ctx, snap))

		got, err := s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, saga.StateSubmitted, got.State)
		assert.Equal(t, "XAIT00000123456", got.Reference)
	})

	t.Run("list newest first", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, sampleSnapshot("b", saga.StateInitiated, base.Add(time.Hour))))
		require.NoError(t, s.Save(ctx, sampleSnapshot("c", saga.StateFailed, base.Add(-time.Hour))))

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "b", list[0].ID)
		assert.Equal(t, "a", list[1].ID)
		assert.Equal(t, "c", list[2].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "b"))
		_, err := s.Load(ctx, "b")
		assert.ErrorIs(t, err, saga.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "b"), saga.ErrNotFound)
	})

	t.Run("id required", func(t *testing.T) {
		assert.Error(t, s.Save(ctx, saga.Snapshot{}))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestMemoryStore_CopiesOnSave(t *testing.T) {
	s := NewMemoryStore()
	snap := sampleSnapshot("x", saga.StateCalculated, time.Now())
	require.NoError(t, s.Save(context.Background(), snap))

	snap.Confirmed[0] = declaration.KeyFinalDeclaration
	got, err := s.Load(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, declaration.KeyAccuracy, got.Confirmed[0])
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	runStoreTests(t, s)

	failed, err := s.ListByState(context.Background(), saga.StateFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "c", failed[0].ID)
}

func TestSQLiteStore_File(t *testing.T) {
	path := t.TempDir() + "/satax.db"
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleSnapshot("persisted", saga.StateDeclaring, time.Now().UTC())))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, saga.StateDeclaring, got.State)
}

func TestSQLiteStore_FileURIWithQuery(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + t.TempDir() + "/satax.db?mode=rwc"

	s, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, sampleSnapshot("uri", saga.StateCalculated, time.Now().UTC())))
	got, err := s.Load(ctx, "uri")
	require.NoError(t, err)
	assert.Equal(t, saga.StateCalculated, got.State)
}

func TestWithPragmas(t *testing.T) {
	tests := map[string]string{
		":memory:":                   ":memory:?_foreign_keys=on&_busy_timeout=5000",
		"/var/lib/satax.db":          "/var/lib/satax.db?_foreign_keys=on&_busy_timeout=5000",
		"file:satax.db?mode=rwc":     "file:satax.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000",
		"file:satax.db?cache=shared": "file:satax.db?cache=shared&_foreign_keys=on&_busy_timeout=5000",
	}
	for dsn, want := range tests {
		assert.Equal(t, want, withPragmas(dsn), dsn)
	}
}
