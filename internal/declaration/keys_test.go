package declaration

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	keys := Keys()
	require.Len(t, keys, 6)
	assert.Equal(t, KeyAccuracy, keys[0])
	assert.Equal(t, KeyFinalDeclaration, keys[5])

	keys[0] = "mutated"
	assert.Equal(t, KeyAccuracy, Keys()[0])

	for _, k := range Keys() {
		text, err := Text(k)
		require.NoError(t, err)
		assert.NotEmpty(t, text)
	}
}

func TestText_Wording(t *testing.T) {
	text, err := Text(KeyPenalties)
	require.NoError(t, err)
	assert.Equal(t, "I understand that I may have to pay financial penalties and face prosecution if I give false information.", text)

	_, err = Text("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want Key
		ok   bool
	}{
		{"accuracy", KeyAccuracy, true},
		{" RECORD_KEEPING ", KeyRecordKeeping, true},
		{"calculation-review", KeyCalculationReview, true},
		{"honesty", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrUnknownKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewID(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	// 01:15 BST is 00:15 UTC
	now := time.Date(2026, time.July, 1, 1, 15, 0, 0, london)

	// 252..255 are rejected, 0 -> '0', 35 -> 'Z', 36 -> '0'
	id, err := NewID(now, bytes.NewReader([]byte{255, 0, 35, 36, 252, 71, 1, 2, 3, 4}))
	require.NoError(t, err)
	assert.Equal(t, "DECL-20260701-001500-0Z0Z1", id)
	assert.True(t, ValidID(id))
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	now := time.Now()
	for i := 0; i < 200; i++ {
		id, err := NewID(now, nil)
		require.NoError(t, err)
		require.True(t, ValidID(id), id)
		seen[id] = true
	}
	// 36^5 suffixes; a collision in 200 draws is vanishingly unlikely
	assert.Greater(t, len(seen), 195)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("DECL-20260112-143005-A1B2C"))
	assert.False(t, ValidID("DECL-20260112-143005-a1b2c"))
	assert.False(t, ValidID("DECL-2026011-143005-A1B2C"))
	assert.False(t, ValidID("20260112-143005-A1B2C"))
}

func TestFixedClock(t *testing.T) {
	c := NewFixedClock(completedAt)
	assert.Equal(t, completedAt, c.Now())
	c.Advance(90 * time.Second)
	assert.Equal(t, completedAt.Add(90*time.Second), c.Now())
	c.Set(completedAt)
	assert.Equal(t, completedAt, c.Now())
}
