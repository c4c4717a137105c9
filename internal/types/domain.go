package types

import "time"

// LocationQuery is a trimmed, non-empty place name. Values are produced by
// lookup.NormalizeQuery; the zero value never reaches an upstream call.
type LocationQuery string

// String returns the query text.
func (q LocationQuery) String() string {
	return string(q)
}

// CurrentConditions is an immutable snapshot of one successful
// current-weather response. Temperatures are Celsius, wind is m/s,
// visibility is meters and pressure is hPa.
type CurrentConditions struct {
	Name          string  `json:"name"`
	Country       string  `json:"country"`
	Description   string  `json:"description"`
	Label         string  `json:"label"`
	Icon          string  `json:"icon"`
	Temperature   float64 `json:"temperature"`
	TempMin       float64 `json:"temp_min"`
	TempMax       float64 `json:"temp_max"`
	FeelsLike     float64 `json:"feels_like"`
	Humidity      int     `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection int     `json:"wind_direction"`
	Clouds        int     `json:"clouds"`
	Visibility    int     `json:"visibility"`
	Pressure      int     `json:"pressure"`
	Sunrise       int64   `json:"sunrise"`
	Sunset        int64   `json:"sunset"`
	ObservedAt    int64   `json:"observed_at"`
	UTCOffset     int     `json:"utc_offset"`
}

// SunriseTime returns Sunrise as a UTC time.Time.
func (c CurrentConditions) SunriseTime() time.Time {
	return time.Unix(c.Sunrise, 0).UTC()
}

// SunsetTime returns Sunset as a UTC time.Time.
func (c CurrentConditions) SunsetTime() time.Time {
	return time.Unix(c.Sunset, 0).UTC()
}

// ForecastPoint is one raw 3-hourly entry of the upstream forecast list.
// DtTxt is the upstream's own "YYYY-MM-DD HH:MM:SS" rendering of the slot,
// which the reducer trusts over Dt.
type ForecastPoint struct {
	Dt          int64   `json:"dt"`
	DtTxt       string  `json:"dt_txt"`
	Icon        string  `json:"icon"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
}

// ForecastEntry is the representative forecast for one day.
type ForecastEntry struct {
	Timestamp   int64   `json:"timestamp"`
	Icon        string  `json:"icon"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	SlotText    string  `json:"slot_text"`
}

// Time returns Timestamp as a UTC time.Time.
func (e ForecastEntry) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

// ForecastSeries is the chronological forecast strip. Its length is not
// guaranteed to be five.
type ForecastSeries []ForecastEntry

// Report pairs current conditions with the forecast strip so the two are
// always installed and cleared together.
type Report struct {
	Current  CurrentConditions `json:"current"`
	Forecast ForecastSeries    `json:"forecast"`
}
