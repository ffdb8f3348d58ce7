package period_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscriptions/period"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects negative count", func(t *testing.T) {
		t.Parallel()
		_, err := period.New(period.Month, -1, date(2024, time.January, 1))
		require.ErrorIs(t, err, period.ErrNegativeCount)
	})

	t.Run("rejects unknown interval", func(t *testing.T) {
		t.Parallel()
		_, err := period.New(period.Interval("week"), 1, date(2024, time.January, 1))
		require.ErrorIs(t, err, period.ErrInvalidInterval)
	})

	t.Run("zero count yields empty window", func(t *testing.T) {
		t.Parallel()
		start := date(2024, time.March, 15)
		p, err := period.New(period.Day, 0, start)
		require.NoError(t, err)
		assert.Equal(t, start, p.End())
	})
}

func TestPeriodEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		start    time.Time
		interval period.Interval
		count    int
		want     time.Time
	}{
		{
			name:     "day addition",
			start:    date(2024, time.January, 1),
			interval: period.Day,
			count:    15,
			want:     date(2024, time.January, 16),
		},
		{
			name:     "month addition preserves day of month",
			start:    date(2024, time.March, 15),
			interval: period.Month,
			count:    1,
			want:     date(2024, time.April, 15),
		},
		{
			name:     "jan 31 clamps to feb 29 in leap year",
			start:    date(2024, time.January, 31),
			interval: period.Month,
			count:    1,
			want:     date(2024, time.February, 29),
		},
		{
			name:     "jan 31 clamps to feb 28 in common year",
			start:    date(2023, time.January, 31),
			interval: period.Month,
			count:    1,
			want:     date(2023, time.February, 28),
		},
		{
			name:     "month addition across year boundary",
			start:    date(2023, time.November, 30),
			interval: period.Month,
			count:    3,
			want:     date(2024, time.February, 29),
		},
		{
			name:     "year addition",
			start:    date(2023, time.June, 15),
			interval: period.Year,
			count:    2,
			want:     date(2025, time.June, 15),
		},
		{
			name:     "feb 29 clamps to feb 28 on year step",
			start:    date(2024, time.February, 29),
			interval: period.Year,
			count:    1,
			want:     date(2025, time.February, 28),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := period.New(tt.interval, tt.count, tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.start, p.Start)
			assert.Equal(t, tt.want, p.End())
		})
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()

	t.Run("preserves wall clock and location", func(t *testing.T) {
		t.Parallel()
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		start := time.Date(2024, time.January, 31, 13, 45, 30, 0, loc)

		got := period.Add(start, period.Month, 1)
		assert.Equal(t, time.Date(2024, time.February, 29, 13, 45, 30, 0, loc), got)
	})

	t.Run("negative month steps clamp as well", func(t *testing.T) {
		t.Parallel()
		got := period.Add(date(2024, time.March, 31), period.Month, -1)
		assert.Equal(t, date(2024, time.February, 29), got)
	})

	t.Run("many months stay aligned", func(t *testing.T) {
		t.Parallel()
		got := period.Add(date(2024, time.January, 31), period.Month, 13)
		assert.Equal(t, date(2025, time.February, 28), got)
	})
}
