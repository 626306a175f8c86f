package esolat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

const calendarPage = `<html><body>
<table>
  <tr><th>Peristiwa</th><th>Hijrah</th><th>Masihi</th></tr>
  <tr><td>Awal Ramadan</td><td>1 Ramadan 1447</td><td><span>19/02/2026</span></td></tr>
  <tr><td>Nuzul Al-Quran</td><td>17 Ramadhan 1447</td><td>07-03-2026</td></tr>
  <tr><td>Hari Raya Aidilfitri</td><td>1 Syawal 1447</td><td>21/03/2026</td></tr>
  <tr><td>Akhir RAMADHAN</td><td>30 Ramadhan 1447</td><td>2026-03-20</td></tr>
  <tr><td>Awal Ramadan</td><td>1 Ramadan 1448</td><td>08/02/2027</td></tr>
</table>
</body></html>`

func TestExtractWindow(t *testing.T) {
	t.Run("Success: Min and max of Ramadan rows in the target year", func(t *testing.T) {
		start, end, err := ExtractWindow(strings.NewReader(calendarPage), 2026)

		require.NoError(t, err)
		assert.Equal(t, "2026-02-19", domain.FormatDate(start))
		assert.Equal(t, "2026-03-20", domain.FormatDate(end))
	})

	t.Run("Success: Next year picks only next year's rows", func(t *testing.T) {
		start, end, err := ExtractWindow(strings.NewReader(calendarPage), 2027)

		require.NoError(t, err)
		assert.Equal(t, "2027-02-08", domain.FormatDate(start))
		assert.Equal(t, "2027-02-08", domain.FormatDate(end))
	})

	t.Run("Success: Falls back to text lines without tables", func(t *testing.T) {
		page := `<div><p>Puasa Ramadan bermula 18/2/2026</p><p>Syawal 20/3/2026</p><p>Ramadhan tamat 19-3-2026</p></div>`

		start, end, err := ExtractWindow(strings.NewReader(page), 2026)

		require.NoError(t, err)
		assert.Equal(t, "2026-02-18", domain.FormatDate(start))
		assert.Equal(t, "2026-03-19", domain.FormatDate(end))
	})

	t.Run("Fail: No Ramadan dates", func(t *testing.T) {
		_, _, err := ExtractWindow(strings.NewReader(`<table><tr><td>Syawal</td><td>21/03/2026</td></tr></table>`), 2026)

		assert.ErrorIs(t, err, ErrNoRamadanDates)
	})
}

func TestSource_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Scrapes the configured page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(calendarPage))
		}))
		defer srv.Close()

		w, err := NewSource(srv.URL, srv.Client()).Fetch(ctx, 2026)

		require.NoError(t, err)
		assert.Equal(t, "2026-02-19", w.StartDate)
		assert.Equal(t, "2026-03-20", w.EndDate)
		assert.Equal(t, srv.URL, w.SourceURL)
		assert.False(t, w.FetchedAt.IsZero())
		assert.False(t, w.Stale)
	})

	t.Run("Fail: Non-2xx page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewSource(srv.URL, srv.Client()).Fetch(ctx, 2026)

		var se *domain.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	})
}
