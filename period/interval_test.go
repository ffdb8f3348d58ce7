package period_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscriptions/period"
)

func TestParseInterval(t *testing.T) {
	t.Parallel()

	t.Run("accepts known units", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"day", "month", "year"} {
			got, err := period.ParseInterval(s)
			require.NoError(t, err)
			assert.Equal(t, s, got.String())
			assert.True(t, got.Valid())
		}
	})

	t.Run("rejects unknown units", func(t *testing.T) {
		t.Parallel()
		_, err := period.ParseInterval("fortnight")
		require.ErrorIs(t, err, period.ErrInvalidInterval)
	})
}

func TestIntervalText(t *testing.T) {
	t.Parallel()

	t.Run("round trips through text", func(t *testing.T) {
		t.Parallel()
		text, err := period.Month.MarshalText()
		require.NoError(t, err)

		var got period.Interval
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, period.Month, got)
	})

	t.Run("marshal rejects zero value", func(t *testing.T) {
		t.Parallel()
		var zero period.Interval
		_, err := zero.MarshalText()
		require.ErrorIs(t, err, period.ErrInvalidInterval)
	})

	t.Run("unmarshal rejects unknown unit", func(t *testing.T) {
		t.Parallel()
		var got period.Interval
		require.ErrorIs(t, got.UnmarshalText([]byte("quarter")), period.ErrInvalidInterval)
	})
}
