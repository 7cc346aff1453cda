package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" depth (km) ", ColDepth},
		{"Depth_km", ColDepth},
		{"Date & Time", ColDateTime},
		{"DATE  &  TIME", ColDateTime},
		{"lat", ColLatitude},
		{"Longitude", ColLongitude},
		{"mag", ColMagnitude},
		{"province", ColProvince},
		{"Remarks", "REMARKS"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalColumn(tt.in))
		})
	}
}

func TestRequiredColumns(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		cols := map[string]bool{
			ColLatitude: true, ColLongitude: true, ColMagnitude: true,
			ColDepth: true, ColProvince: true, ColDate: true,
		}
		assert.Empty(t, RequiredColumns(cols))
	})

	t.Run("datetime satisfies date source", func(t *testing.T) {
		cols := map[string]bool{
			ColLatitude: true, ColLongitude: true, ColMagnitude: true,
			ColDepth: true, ColProvince: true, ColDateTime: true,
		}
		assert.Empty(t, RequiredColumns(cols))
	})

	t.Run("lists every missing column", func(t *testing.T) {
		cols := map[string]bool{ColLatitude: true, ColLongitude: true, ColMagnitude: true}
		assert.Equal(t, []string{ColDepth, ColProvince, ColDate}, RequiredColumns(cols))
	})
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"31 January 2023 - 11:59 PM", time.Date(2023, 1, 31, 23, 59, 0, 0, time.UTC)},
		{"02 March 2021 - 07:05 AM", time.Date(2021, 3, 2, 7, 5, 0, 0, time.UTC)},
		{"2023-01-31 23:59:00", time.Date(2023, 1, 31, 23, 59, 0, 0, time.UTC)},
		{"2023-01-31T08:00:00Z", time.Date(2023, 1, 31, 8, 0, 0, 0, time.UTC)},
		{"02/01/2023", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2023-01-31", time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"5 June 2020", time.Date(2020, 6, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDateTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseDateTime("not a date")
		assert.Error(t, err)
	})

	t.Run("rejects blank", func(t *testing.T) {
		_, err := ParseDateTime("   ")
		assert.ErrorIs(t, err, errNoTimestamp)
	})
}

func TestCombineDateTime(t *testing.T) {
	tests := []struct {
		name string
		date string
		tod  string
		want time.Time
	}{
		{"blank time is midnight", "02/01/2023", "", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"seconds", "2023-01-31", "13:45:10", time.Date(2023, 1, 31, 13, 45, 10, 0, time.UTC)},
		{"minutes", "2023-01-31", "13:45", time.Date(2023, 1, 31, 13, 45, 0, 0, time.UTC)},
		{"twelve hour", "2023-01-31", "1:45 PM", time.Date(2023, 1, 31, 13, 45, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CombineDateTime(tt.date, tt.tod)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	t.Run("bad time drops", func(t *testing.T) {
		_, err := CombineDateTime("2023-01-31", "noon-ish")
		assert.Error(t, err)
	})
}

func validRecord() RawRecord {
	return RawRecord{
		Row:       1,
		Date:      "2023-01-31",
		Time:      "08:15:00",
		Latitude:  "6.75",
		Longitude: "126.10",
		Magnitude: "4.5",
		Depth:     "12",
		Province:  " Davao  Oriental ",
		Area:      "Manay",
	}
}

func TestParseRecord(t *testing.T) {
	t.Run("valid row", func(t *testing.T) {
		ev, err := ParseRecord(validRecord())
		require.NoError(t, err)

		assert.Equal(t, 1, ev.Row)
		assert.Equal(t, time.Date(2023, 1, 31, 8, 15, 0, 0, time.UTC), ev.Timestamp)
		assert.Equal(t, 6.75, ev.Latitude)
		assert.Equal(t, 126.10, ev.Longitude)
		assert.Equal(t, 4.5, ev.Magnitude)
		require.NotNil(t, ev.DepthKM)
		assert.Equal(t, 12.0, *ev.DepthKM)
		assert.Equal(t, "Davao Oriental", ev.Province)
		assert.Equal(t, "Manay", ev.Area)
		assert.True(t, strings.HasPrefix(ev.ID, "eq-"))
	})

	t.Run("category derived from magnitude", func(t *testing.T) {
		ev, err := ParseRecord(validRecord())
		require.NoError(t, err)
		assert.Equal(t, "STRONG", ev.Category)
		assert.True(t, ev.CategoryDerived)
	})

	t.Run("reported category kept upper-cased", func(t *testing.T) {
		rec := validRecord()
		rec.Category = "weak"
		ev, err := ParseRecord(rec)
		require.NoError(t, err)
		assert.Equal(t, "WEAK", ev.Category)
		assert.False(t, ev.CategoryDerived)
	})

	t.Run("negative depth stored positive", func(t *testing.T) {
		rec := validRecord()
		rec.Depth = "-33"
		ev, err := ParseRecord(rec)
		require.NoError(t, err)
		require.NotNil(t, ev.DepthKM)
		assert.Equal(t, 33.0, *ev.DepthKM)
	})

	t.Run("blank depth is nil", func(t *testing.T) {
		rec := validRecord()
		rec.Depth = ""
		ev, err := ParseRecord(rec)
		require.NoError(t, err)
		assert.Nil(t, ev.DepthKM)
	})

	t.Run("datetime column wins", func(t *testing.T) {
		rec := validRecord()
		rec.DateTime = "01 February 2023 - 10:30 AM"
		ev, err := ParseRecord(rec)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 2, 1, 10, 30, 0, 0, time.UTC), ev.Timestamp)
	})

	t.Run("time column holding a full datetime", func(t *testing.T) {
		rec := validRecord()
		rec.Date = ""
		rec.Time = "2023-03-04 05:06:07"
		ev, err := ParseRecord(rec)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC), ev.Timestamp)
	})

	t.Run("deterministic id", func(t *testing.T) {
		a, err := ParseRecord(validRecord())
		require.NoError(t, err)
		b, err := ParseRecord(validRecord())
		require.NoError(t, err)
		assert.Equal(t, a.ID, b.ID)
	})

	t.Run("duplicate rows get distinct ids", func(t *testing.T) {
		a, err := ParseRecord(validRecord())
		require.NoError(t, err)
		rec := validRecord()
		rec.Row = 99
		b, err := ParseRecord(rec)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, a.Timestamp, b.Timestamp)
	})
}

func TestParseRecord_Drops(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawRecord)
		reason string
	}{
		{"bad date", func(r *RawRecord) { r.Date = "31/31/2023" }, DropTimestamp},
		{"no date at all", func(r *RawRecord) { r.Date, r.Time = "", "" }, DropTimestamp},
		{"bad latitude", func(r *RawRecord) { r.Latitude = "north" }, DropCoordinates},
		{"latitude out of range", func(r *RawRecord) { r.Latitude = "100" }, DropCoordinates},
		{"blank longitude", func(r *RawRecord) { r.Longitude = "" }, DropCoordinates},
		{"bad magnitude", func(r *RawRecord) { r.Magnitude = "big" }, DropMagnitude},
		{"nan magnitude", func(r *RawRecord) { r.Magnitude = "NaN" }, DropMagnitude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			_, err := ParseRecord(rec)

			var rowErr *RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, tt.reason, rowErr.Reason)
			assert.Equal(t, 1, rowErr.Row)
		})
	}
}
