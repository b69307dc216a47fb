package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luffluo/ormsupport"
	"github.com/luffluo/ormsupport/shard"
)

func TestPeriodOptions_Months(t *testing.T) {
	now := time.Date(2024, time.March, 31, 10, 0, 0, 0, time.UTC)
	r, err := shard.NewResolver(shard.WithNow(now), shard.WithLocation(time.UTC))
	require.NoError(t, err)

	tests := []struct {
		name   string
		period PeriodOptions
		want   []string
	}{
		{name: "current", want: []string{"202403"}},
		{name: "month", period: PeriodOptions{Month: "2023-11"}, want: []string{"202311"}},
		{name: "range", period: PeriodOptions{From: "2023-12-15", To: "20240201"}, want: []string{"202312", "202401", "202402"}},
		{name: "since", period: PeriodOptions{From: "202401"}, want: []string{"202401", "202402", "202403"}},
		{name: "last weeks", period: PeriodOptions{LastWeeks: 5}, want: []string{"202402"}},
		{name: "last months", period: PeriodOptions{LastMonths: 1}, want: []string{"202402"}},
		{name: "yesterday", period: PeriodOptions{Yesterday: true}, want: []string{"202403"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			months, err := tt.period.Months(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shard.Strings(months))
		})
	}
}

func TestPeriodOptions_MonthsErrors(t *testing.T) {
	r, err := shard.NewResolver(shard.WithNow(time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	tests := []struct {
		name   string
		period PeriodOptions
		check  func(error) bool
	}{
		{name: "two selectors", period: PeriodOptions{Month: "202401", Yesterday: true}},
		{name: "to without from", period: PeriodOptions{To: "2024-01-01"}},
		{name: "bad month", period: PeriodOptions{Month: "2024-13"}},
		{name: "reversed", period: PeriodOptions{From: "2024-03-01", To: "2024-01-01"}, check: func(err error) bool {
			return ormsupport.IsInvalidRange(err)
		}},
		{name: "negative months", period: PeriodOptions{LastMonths: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.period.Months(r)
			require.Error(t, err)
			if tt.check != nil {
				assert.True(t, tt.check(err), err.Error())
			}
		})
	}
}

func TestPeriodOptions_Options(t *testing.T) {
	opts, err := (&PeriodOptions{}).Options()
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = (&PeriodOptions{Now: "2024-02-07T12:00:00Z"}).Options()
	require.NoError(t, err)
	r, err := shard.NewResolver(opts...)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 7, 12, 0, 0, 0, time.UTC), r.Now())

	_, err = (&PeriodOptions{Now: "yesterday-ish"}).Options()
	assert.Error(t, err)
}
