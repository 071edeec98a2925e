package scraping

import (
	"errors"
	"strings"
	"testing"

	"room-availability/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewURLTemplate(t *testing.T) {
	cfg := testDatesFinder()
	cfg.NumAdults = 2

	tmpl, err := NewURLTemplate(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://secure-hotels.net/INPA/BE_Results.aspx?lang=heb&hotel=9&In={in}&Out={out}&Rooms=1&Ad1=2", tmpl.String())

	r := dateRange(t, "2022-07-01", "2022-07-03")
	assert.Equal(t, "https://secure-hotels.net/INPA/BE_Results.aspx?lang=heb&hotel=9&In=2022-07-01&Out=2022-07-03&Rooms=1&Ad1=2", tmpl.Expand(r))
}

func TestNewURLTemplateAdults(t *testing.T) {
	for adults := -2; adults <= 6; adults++ {
		cfg := testDatesFinder()
		cfg.NumAdults = adults

		tmpl, err := NewURLTemplate(cfg)
		if adults < 1 {
			require.Error(t, err, "adults=%d", adults)
			assert.True(t, errors.Is(err, config.ErrInvalidConfig))
			assert.Contains(t, err.Error(), "num_adults must be >= 1")
			continue
		}
		require.NoError(t, err, "adults=%d", adults)
		assert.Equal(t, 1, strings.Count(tmpl.String(), "&Ad1="))
	}
}

func TestNewURLTemplateOptionalOccupancy(t *testing.T) {
	for _, tt := range []struct {
		children, infants int
	}{
		{0, 0}, {1, 0}, {0, 1}, {3, 2},
	} {
		cfg := testDatesFinder()
		cfg.NumChildren = tt.children
		cfg.NumInfants = tt.infants

		tmpl, err := NewURLTemplate(cfg)
		require.NoError(t, err)

		wantChildren, wantInfants := 0, 0
		if tt.children > 0 {
			wantChildren = 1
			assert.Contains(t, tmpl.String(), "&Ch1="+string(rune('0'+tt.children)))
		}
		if tt.infants > 0 {
			wantInfants = 1
			assert.Contains(t, tmpl.String(), "&Inf1="+string(rune('0'+tt.infants)))
		}
		assert.Equal(t, wantChildren, strings.Count(tmpl.String(), "Ch1="))
		assert.Equal(t, wantInfants, strings.Count(tmpl.String(), "Inf1="))
	}

	cfg := testDatesFinder()
	cfg.NumInfants = -1
	_, err := NewURLTemplate(cfg)
	assert.ErrorContains(t, err, "num_infants must be >= 0")
}

func TestNewURLTemplateBaseWithQuery(t *testing.T) {
	cfg := testDatesFinder()
	cfg.BaseURL = "https://example.com/results?source=test"

	tmpl, err := NewURLTemplate(cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tmpl.String(), "https://example.com/results?source=test&lang=heb&"))
}

func TestFormatMessage(t *testing.T) {
	tmpl, err := NewURLTemplate(testDatesFinder())
	require.NoError(t, err)

	msg := FormatMessage(tmpl, []config.DateRange{
		dateRange(t, "2022-07-01", "2022-07-03"),
		dateRange(t, "2022-07-10", "2022-07-12"),
	})

	lines := strings.Split(msg, "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "שלום!", lines[0])
	assert.Equal(t, "01/07/2022 - 03/07/2022", lines[2])
	assert.Contains(t, lines[3], "In=2022-07-01&Out=2022-07-03")
	assert.Equal(t, "10/07/2022 - 12/07/2022", lines[4])
	assert.Contains(t, lines[5], "In=2022-07-10&Out=2022-07-12")
	assert.Equal(t, "להתראות!", lines[6])
}
