package caltime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Span
		wantErr bool
	}{
		{name: "one day", input: "1d", want: Span{Days: 1}},
		{name: "one month", input: "1mo", want: Span{Months: 1}},
		{name: "day and clock", input: "1d12h", want: Span{Days: 1, Clock: 12 * time.Hour}},
		{name: "clock only", input: "90m", want: Span{Clock: 90 * time.Minute}},
		{name: "seconds", input: "5s", want: Span{Clock: 5 * time.Second}},
		{name: "full", input: "2mo3d1h30m", want: Span{Months: 2, Days: 3, Clock: 90 * time.Minute}},
		{name: "negative", input: "-1d", want: Span{Days: -1}},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "zero", input: "0s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpan_StringRoundTrip(t *testing.T) {
	for _, s := range []Span{
		{Days: 1},
		{Months: 1, Days: 2, Clock: 3 * time.Hour},
		{Clock: 5 * time.Second},
	} {
		parsed, err := Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}

func TestSpan_Scan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Span
	}{
		{name: "full", input: "1 mon 2 days 03:30:00", want: Span{Months: 1, Days: 2, Clock: 3*time.Hour + 30*time.Minute}},
		{name: "single day", input: "1 day", want: Span{Days: 1}},
		{name: "plural", input: "2 mons 10 days", want: Span{Months: 2, Days: 10}},
		{name: "years", input: "2 years 1 mon", want: Span{Months: 25}},
		{name: "clock only", input: "00:05:00", want: Span{Clock: 5 * time.Minute}},
		{name: "negative clock", input: "-00:05:00", want: Span{Clock: -5 * time.Minute}},
		{name: "fractional seconds", input: "00:00:01.500000", want: Span{Clock: 1500 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Span
			require.NoError(t, got.Scan(tt.input))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("bytes", func(t *testing.T) {
		var got Span
		require.NoError(t, got.Scan([]byte("1 day")))
		assert.Equal(t, Span{Days: 1}, got)
	})

	t.Run("invalid", func(t *testing.T) {
		var got Span
		assert.Error(t, got.Scan("1 fortnight"))
	})
}

func TestSpan_ValueScanRoundTrip(t *testing.T) {
	for _, s := range []Span{
		{Days: 1},
		{Months: 3, Days: 2, Clock: time.Hour + time.Minute + time.Second},
		{Clock: 1500 * time.Millisecond},
	} {
		v, err := s.Value()
		require.NoError(t, err)
		var got Span
		require.NoError(t, got.Scan(v.(string)))
		assert.Equal(t, s, got)
	}
}

func TestSpan_AddTo_DST(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	t.Run("spring forward keeps wall clock", func(t *testing.T) {
		// 2024-03-10 02:00 為洛杉磯的春季撥快時刻
		start := time.Date(2024, 3, 10, 1, 59, 0, 0, loc)
		end := Span{Days: 1}.AddTo(start)

		assert.Equal(t, 1, end.Hour())
		assert.Equal(t, 59, end.Minute())
		assert.Equal(t, 11, end.Day())
		// 實際經過的時間為 23 小時而非 24 小時
		assert.Equal(t, 23*time.Hour, end.Sub(start))
	})

	t.Run("fall back keeps wall clock", func(t *testing.T) {
		start := time.Date(2024, 11, 2, 9, 0, 0, 0, loc)
		end := Span{Days: 1}.AddTo(start)

		assert.Equal(t, 9, end.Hour())
		assert.Equal(t, 25*time.Hour, end.Sub(start))
	})

	t.Run("pure clock span ignores calendar", func(t *testing.T) {
		start := time.Date(2024, 3, 10, 1, 0, 0, 0, loc)
		end := Span{Clock: 2 * time.Hour}.AddTo(start)
		assert.Equal(t, 2*time.Hour, end.Sub(start))
	})
}
