package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		raw  string
		want Route
	}{
		{"http://localhost:5500/", Route{View: ViewHome}},
		{"http://localhost:5500/?view=checkin&date=2026-02-20", Route{View: ViewCheckin, Date: "2026-02-20"}},
		{"./?view=summary", Route{View: ViewSummary}},
		{"https://x.github.io/fasting/checkin", Route{View: ViewCheckin}},
		{"https://x.github.io/fasting/summary?date=2026-03-01", Route{View: ViewSummary, Date: "2026-03-01"}},
		{"/summary?view=checkin", Route{View: ViewCheckin}},
		{"/?view=settings", Route{View: ViewHome}},
	}

	for _, tt := range tests {
		got, err := ParseRoute(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	t.Run("Fail: Unparseable URL", func(t *testing.T) {
		_, err := ParseRoute("http://[::1")
		assert.Error(t, err)
	})
}

func TestRoute_URL(t *testing.T) {
	base := "http://localhost:5500"

	assert.Equal(t, "http://localhost:5500/", Route{View: ViewHome}.URL(base))
	assert.Equal(t, "http://localhost:5500/?view=summary", Route{View: ViewSummary}.URL(base+"/"))
	assert.Equal(t, "http://localhost:5500/?date=2026-02-20&view=checkin",
		Route{View: ViewCheckin, Date: "2026-02-20"}.URL(base))

	back, err := ParseRoute(Route{View: ViewCheckin, Date: "2026-02-20"}.URL(base))
	require.NoError(t, err)
	assert.Equal(t, Route{View: ViewCheckin, Date: "2026-02-20"}, back)
}
