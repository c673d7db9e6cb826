package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []string{"2017-08-23", "2010-01-01", "2016-02-29", "1999-12-31", "0001-01-01"} {
		got, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, got.Format(Layout))
	}
}

func TestParse_Triple(t *testing.T) {
	got, err := Parse("2015-08-23")
	require.NoError(t, err)

	y, m, d := got.Date()
	assert.Equal(t, 2015, y)
	assert.Equal(t, time.August, m)
	assert.Equal(t, 23, d)
	assert.Equal(t, time.UTC, got.Location())
}

func TestParse_IgnoresTrailingText(t *testing.T) {
	got, err := Parse("2015-08-23T10:00")
	require.NoError(t, err)
	assert.Equal(t, date(2015, 8, 23), got)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"short", "2015-8-23"},
		{"non-numeric year", "20x5-08-23"},
		{"non-numeric month", "2015-aa-23"},
		{"non-numeric day", "2015-08-2b"},
		{"signed segment", "2015-+8-23"},
		{"wrong separator", "2015/08/23"},
		{"month 13", "2015-13-01"},
		{"month 00", "2015-00-10"},
		{"day 32", "2015-01-32"},
		{"30 february", "2016-02-30"},
		{"29 february non-leap", "2015-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			assert.ErrorIs(t, err, ErrInvalidDateFormat)
		})
	}
}

func TestTrailingYear(t *testing.T) {
	r := TrailingYear(date(2017, 8, 23))
	assert.Equal(t, date(2016, 8, 23), r.Start)
	assert.Equal(t, date(2017, 8, 23), r.End)
	assert.False(t, r.OpenEnded())
}

func TestTrailingYear_LeapDay(t *testing.T) {
	r := TrailingYear(date(2016, 2, 29))
	assert.Equal(t, date(2015, 2, 28), r.Start)
	assert.Equal(t, date(2016, 2, 29), r.End)
}

func TestTrailingYear_DropsTimeOfDay(t *testing.T) {
	r := TrailingYear(time.Date(2017, 8, 23, 15, 4, 5, 0, time.UTC))
	assert.Equal(t, date(2017, 8, 23), r.End)
}

func TestExplicit(t *testing.T) {
	r, err := Explicit("2015-08-23")
	require.NoError(t, err)
	assert.True(t, r.OpenEnded())
	assert.Equal(t, "2015-08-23", r.StartText())
	assert.Equal(t, "", r.EndText())
	assert.Equal(t, "2015-08-23/..", r.String())

	r, err = Explicit("2015-08-23", "2017-08-23")
	require.NoError(t, err)
	assert.False(t, r.OpenEnded())
	assert.Equal(t, "2017-08-23", r.EndText())
	assert.Equal(t, "2015-08-23/2017-08-23", r.String())
}

func TestExplicit_Invalid(t *testing.T) {
	_, err := Explicit("nope")
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
	assert.Contains(t, err.Error(), "start")

	_, err = Explicit("2015-08-23", "2017-13-01")
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
	assert.Contains(t, err.Error(), "end")
}

func TestRange_Contains(t *testing.T) {
	closed := Range{Start: date(2016, 8, 23), End: date(2017, 8, 23)}
	assert.True(t, closed.Contains(date(2016, 8, 23)))
	assert.True(t, closed.Contains(date(2017, 8, 23)))
	assert.True(t, closed.Contains(time.Date(2017, 8, 23, 23, 59, 0, 0, time.UTC)))
	assert.False(t, closed.Contains(date(2016, 8, 22)))
	assert.False(t, closed.Contains(date(2017, 8, 24)))

	open := Range{Start: date(2016, 8, 23)}
	assert.True(t, open.Contains(date(2030, 1, 1)))
	assert.False(t, open.Contains(date(2016, 8, 22)))
}
