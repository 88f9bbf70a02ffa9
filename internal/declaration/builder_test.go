package declaration

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var completedAt = time.Date(2026, time.January, 12, 14, 30, 5, 0, time.UTC)

func newTestBuilder() (*Builder, *FixedClock) {
	clock := NewFixedClock(completedAt)
	return NewBuilder(domain.NewTaxYear(2025), clock, bytes.NewReader(bytes.Repeat([]byte{10, 11, 12, 13, 14}, 20))), clock
}

func TestBuilder_FiveOfSixIsIncomplete(t *testing.T) {
	b, _ := newTestBuilder()
	for _, k := range Keys()[:5] {
		require.NoError(t, b.Confirm(k))
	}

	assert.Equal(t, 5, b.Count())
	assert.False(t, b.Complete())
	assert.Equal(t, []Key{KeyFinalDeclaration}, b.Missing())

	decl, err := b.Build()
	assert.Nil(t, decl)
	var incomplete *IncompleteDeclarationError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []Key{KeyFinalDeclaration}, incomplete.Missing)
	assert.Contains(t, err.Error(), "final_declaration")
}

func TestBuilder_DuplicatesNotCounted(t *testing.T) {
	b, _ := newTestBuilder()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Confirm(KeyAccuracy))
	}
	assert.Equal(t, 1, b.Count())
	assert.True(t, b.IsConfirmed(KeyAccuracy))
	assert.False(t, b.IsConfirmed(KeyPenalties))
}

func TestBuilder_SixthConfirmationSeals(t *testing.T) {
	b, clock := newTestBuilder()
	for _, k := range Keys() {
		require.NoError(t, b.Confirm(k))
	}
	require.True(t, b.Complete())

	clock.Advance(time.Hour)
	first, err := b.Build()
	require.NoError(t, err)
	second, err := b.Build()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, completedAt, first.CompletedAt)
	assert.Equal(t, "DECL-20260112-143005-ABCDE", first.ID)
	assert.True(t, ValidID(first.ID))
	assert.Equal(t, 2025, first.TaxYear.StartYear)
	require.Len(t, first.Confirmations, 6)
	for i, k := range Keys() {
		assert.Equal(t, k, first.Confirmations[i].Key)
		assert.Equal(t, k.Text(), first.Confirmations[i].Text)
	}
}

func TestBuilder_Revoke(t *testing.T) {
	b, _ := newTestBuilder()
	require.NoError(t, b.Confirm(KeyAccuracy))
	require.NoError(t, b.Confirm(KeyPenalties))
	require.NoError(t, b.Revoke(KeyAccuracy))

	assert.Equal(t, []Key{KeyPenalties}, b.Confirmed())
	assert.NoError(t, b.Revoke(KeyAccuracy), "revoking an unconfirmed key is a no-op")

	for _, k := range Keys() {
		require.NoError(t, b.Confirm(k))
	}
	assert.ErrorIs(t, b.Revoke(KeyAccuracy), ErrDeclarationSealed)
	assert.True(t, b.Complete())
}

func TestBuilder_UnknownKey(t *testing.T) {
	b, _ := newTestBuilder()
	assert.ErrorIs(t, b.Confirm(Key("honesty")), ErrUnknownKey)
	assert.ErrorIs(t, b.Revoke(Key("honesty")), ErrUnknownKey)
	assert.Zero(t, b.Count())
}

func TestBuilder_EntropyFailureLeavesDeclarationOpen(t *testing.T) {
	b := NewBuilder(domain.NewTaxYear(2025), NewFixedClock(completedAt), bytes.NewReader(nil))
	for _, k := range Keys()[:5] {
		require.NoError(t, b.Confirm(k))
	}
	require.Error(t, b.Confirm(KeyFinalDeclaration))
	assert.Equal(t, 5, b.Count())
	assert.False(t, b.IsConfirmed(KeyFinalDeclaration))
}

func TestRestore(t *testing.T) {
	original, _ := newTestBuilder()
	for _, k := range Keys() {
		require.NoError(t, original.Confirm(k))
	}
	sealed, err := original.Build()
	require.NoError(t, err)

	t.Run("sealed declaration keeps its identity", func(t *testing.T) {
		b, err := Restore(domain.NewTaxYear(2025), nil, nil, original.Confirmed(), sealed)
		require.NoError(t, err)
		decl, err := b.Build()
		require.NoError(t, err)
		assert.Same(t, sealed, decl)
	})

	t.Run("partial confirmations", func(t *testing.T) {
		b, err := Restore(domain.NewTaxYear(2025), nil, nil, []Key{KeyAccuracy, KeyCompleteness}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, b.Count())
		_, err = b.Build()
		assert.Error(t, err)
	})

	t.Run("declaration without confirmations is rejected", func(t *testing.T) {
		_, err := Restore(domain.NewTaxYear(2025), nil, nil, []Key{KeyAccuracy}, sealed)
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Restore(domain.NewTaxYear(2025), nil, nil, []Key{"bogus"}, nil)
		assert.ErrorIs(t, err, ErrUnknownKey)
	})
}
