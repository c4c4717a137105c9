package present

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherlookup/internal/types"
)

func chennaiReport() types.Report {
	return types.Report{
		Current: types.CurrentConditions{
			Name:        "Chennai",
			Country:     "IN",
			Description: "clear sky",
			Label:       "Clear",
			Icon:        "01d",
			Temperature: 31.2,
			TempMin:     30.1,
			TempMax:     32.6,
			FeelsLike:   36.4,
			Humidity:    62,
			WindSpeed:   4.63,
			Clouds:      0,
			Visibility:  6000,
			Pressure:    1009,
			Sunrise:     1700000000,
			Sunset:      1700042000,
		},
		Forecast: types.ForecastSeries{
			{Timestamp: 1700049600, Icon: "10d", Label: "Rain", Description: "light rain", Temperature: 30.1, SlotText: "2023-11-15 12:00:00"},
			{Timestamp: 1700136000, Icon: "01d", Label: "Clear", Description: "clear sky", Temperature: 31.5, SlotText: "2023-11-16 12:00:00"},
		},
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{31.2, 31},
		{31.5, 32},
		{31.49, 31},
		{-2.5, -2},
		{-2.6, -3},
		{-0.4, 0},
		{0, 0},
		{0.49999999999999994, 0},
		{-0.5, 0},
		{2.5, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in), "Round(%v)", tt.in)
	}
}

func TestUnitFormatting(t *testing.T) {
	assert.Equal(t, "31°C", Temperature(31.2))
	assert.Equal(t, "33°", Degrees(32.6))
	assert.Equal(t, "62%", Percent(62))
	assert.Equal(t, "4.63 m/s", Wind(4.63))
	assert.Equal(t, "4 m/s", Wind(4))
	assert.Equal(t, "6.0 km", Visibility(6000))
	assert.Equal(t, "10.0 km", Visibility(10000))
	assert.Equal(t, "0.8 km", Visibility(750))
	assert.Equal(t, "1009 hPa", Pressure(1009))
}

func TestFormatter_ClockAndWeekday(t *testing.T) {
	utc := NewFormatter("", time.UTC)
	ist := NewFormatter("", time.FixedZone("IST", 19800))

	// 1700000000 is 2023-11-14 22:13:20 UTC.
	assert.Equal(t, "22:13", utc.Clock(1700000000))
	assert.Equal(t, "03:43", ist.Clock(1700000000))
	assert.Equal(t, "Tue", utc.Weekday(1700000000))
	assert.Equal(t, "Wed", ist.Weekday(1700000000))
}

func TestFormatter_IconURLs(t *testing.T) {
	f := NewFormatter("", time.UTC)
	assert.Equal(t, "https://openweathermap.org/img/wn/01d@4x.png", f.IconURL("01d"))
	assert.Equal(t, "https://openweathermap.org/img/wn/01d.png", f.SmallIconURL("01d"))
	assert.Empty(t, f.IconURL(""))

	custom := NewFormatter("http://icons.local/wn/", time.UTC)
	assert.Equal(t, "http://icons.local/wn/10n.png", custom.SmallIconURL("10n"))
}

func TestFormatter_ViewSuccess(t *testing.T) {
	f := NewFormatter("", time.UTC)
	v := f.View(types.SuccessState("Chennai", chennaiReport()))

	assert.Equal(t, types.StatusSuccess, v.Status)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Banner)
	assert.True(t, v.HasReport)
	assert.True(t, v.CanRefresh)

	assert.Equal(t, "Chennai, IN", v.Current.Title)
	assert.Equal(t, "31°C", v.Current.Temperature)
	assert.Equal(t, "33°", v.Current.High)
	assert.Equal(t, "30°", v.Current.Low)
	assert.Equal(t, "36°C", v.Current.FeelsLike)
	assert.Equal(t, "22:13", v.Current.Sunrise)
	assert.Equal(t, "https://openweathermap.org/img/wn/01d@4x.png", v.Current.IconURL)

	require.Len(t, v.Forecast, 2)
	assert.Equal(t, DayView{
		Day:         "Wed",
		IconURL:     "https://openweathermap.org/img/wn/10d.png",
		Description: "light rain",
		Temperature: "30°C",
		Label:       "Rain",
	}, v.Forecast[0])
	assert.Equal(t, "32°C", v.Forecast[1].Temperature)
}

func TestFormatter_ViewHidesReportWhileLoading(t *testing.T) {
	prev := chennaiReport()
	v := NewFormatter("", time.UTC).View(types.LoadingState("Madurai", &prev))

	assert.True(t, v.Loading)
	assert.False(t, v.HasReport)
	assert.False(t, v.CanRefresh)
	assert.Equal(t, "Madurai", v.Query)
}

func TestFormatter_ViewBanners(t *testing.T) {
	f := NewFormatter("", time.UTC)

	notFound := f.View(types.FailedState("Atlantis", types.ReasonNotFound))
	assert.Equal(t, "City not found. Please try again.", notFound.Banner)
	assert.False(t, notFound.HasReport)
	assert.Empty(t, notFound.Forecast)

	generic := f.View(types.FailedState("Chennai", types.ReasonGeneric))
	assert.Equal(t, "An error occurred.", generic.Banner)
}

func TestRenderer_HTML(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	f := NewFormatter("", time.UTC)

	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.RenderHTML(&buf, f.View(types.SuccessState("Chennai", chennaiReport()))))

		html := buf.String()
		assert.Contains(t, html, "Chennai, IN")
		assert.Contains(t, html, "31°C")
		assert.Contains(t, html, `src="https://openweathermap.org/img/wn/01d@4x.png"`)
		assert.Contains(t, html, `action="/refresh"`)
		assert.Contains(t, html, "6.0 km")
		assert.NotContains(t, html, `role="alert"`)
		assert.NotContains(t, html, `http-equiv="refresh"`)
	})

	t.Run("loading polls", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.RenderHTML(&buf, f.View(types.LoadingState("Chennai", nil))))

		html := buf.String()
		assert.Contains(t, html, `http-equiv="refresh"`)
		assert.Contains(t, html, `role="status"`)
		assert.NotContains(t, html, `action="/refresh"`)
	})

	t.Run("query is escaped", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.RenderHTML(&buf, f.View(types.LoadingState("<script>", nil))))
		assert.NotContains(t, buf.String(), "<script>")
	})

	t.Run("not found banner", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.RenderHTML(&buf, f.View(types.FailedState("Atlantis", types.ReasonNotFound))))
		assert.Contains(t, buf.String(), "City not found. Please try again.")
		assert.NotContains(t, buf.String(), "5-Day Forecast")
	})
}

func TestRenderer_Text(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	f := NewFormatter("", time.UTC)

	var buf bytes.Buffer
	require.NoError(t, r.RenderText(&buf, f.View(types.SuccessState("Chennai", chennaiReport()))))
	out := buf.String()
	assert.Contains(t, out, "Chennai, IN\nclear sky\n")
	assert.Contains(t, out, "Temperature  31°C")
	assert.Contains(t, out, "5-Day Forecast")
	assert.Contains(t, out, "Wed")

	buf.Reset()
	require.NoError(t, r.RenderText(&buf, f.View(types.FailedState("Chennai", types.ReasonGeneric))))
	assert.Equal(t, "An error occurred.\n", buf.String())

	buf.Reset()
	require.NoError(t, r.RenderText(&buf, f.View(types.IdleState())))
	assert.Equal(t, "Type a city name to look up the weather.\n", buf.String())
}
