// Package present turns a types.FetchState into display strings and renders
// them as the HTML page or a plain-text report. Nothing in here makes
// decisions about the state; it only formats what the orchestrator
// committed.
package present

import (
	"math"
	"strconv"
	"strings"
	"time"

	"weatherlookup/internal/types"
)

// DefaultIconBaseURL serves the upstream condition icons.
const DefaultIconBaseURL = "https://openweathermap.org/img/wn"

// View is everything a template needs to draw the page.
type View struct {
	Status     types.FetchStatus
	Loading    bool
	Banner     string
	Query      string
	HasReport  bool
	CanRefresh bool
	Current    CurrentView
	Forecast   []DayView
}

// CurrentView is the hero card and the detail grid.
type CurrentView struct {
	City        string
	Country     string
	Title       string
	Description string
	IconURL     string
	Temperature string
	High        string
	Low         string
	FeelsLike   string
	Humidity    string
	Wind        string
	Clouds      string
	Visibility  string
	Pressure    string
	Sunrise     string
	Sunset      string
}

// DayView is one tile of the forecast strip.
type DayView struct {
	Day         string
	IconURL     string
	Description string
	Temperature string
	Label       string
}

// Formatter formats in a fixed display location.
type Formatter struct {
	iconBaseURL string
	loc         *time.Location
}

// NewFormatter returns a Formatter. An empty iconBaseURL uses
// DefaultIconBaseURL and a nil loc uses time.Local.
func NewFormatter(iconBaseURL string, loc *time.Location) *Formatter {
	iconBaseURL = strings.TrimRight(iconBaseURL, "/")
	if iconBaseURL == "" {
		iconBaseURL = DefaultIconBaseURL
	}
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{iconBaseURL: iconBaseURL, loc: loc}
}

// View formats state. The report is only included in Success.
func (f *Formatter) View(state types.FetchState) View {
	v := View{
		Status:  state.Status(),
		Loading: state.IsLoading(),
		Banner:  state.Reason().Message(),
		Query:   state.Query().String(),
	}

	report, ok := state.Visible()
	if !ok {
		return v
	}
	v.HasReport = true
	v.CanRefresh = true
	v.Current = f.current(report.Current)
	v.Forecast = make([]DayView, 0, len(report.Forecast))
	for _, e := range report.Forecast {
		v.Forecast = append(v.Forecast, f.day(e))
	}
	return v
}

func (f *Formatter) current(c types.CurrentConditions) CurrentView {
	title := c.Name
	if c.Country != "" {
		title += ", " + c.Country
	}
	return CurrentView{
		City:        c.Name,
		Country:     c.Country,
		Title:       title,
		Description: c.Description,
		IconURL:     f.IconURL(c.Icon),
		Temperature: Temperature(c.Temperature),
		High:        Degrees(c.TempMax),
		Low:         Degrees(c.TempMin),
		FeelsLike:   Temperature(c.FeelsLike),
		Humidity:    Percent(c.Humidity),
		Wind:        Wind(c.WindSpeed),
		Clouds:      Percent(c.Clouds),
		Visibility:  Visibility(c.Visibility),
		Pressure:    Pressure(c.Pressure),
		Sunrise:     f.Clock(c.Sunrise),
		Sunset:      f.Clock(c.Sunset),
	}
}

func (f *Formatter) day(e types.ForecastEntry) DayView {
	return DayView{
		Day:         f.Weekday(e.Timestamp),
		IconURL:     f.SmallIconURL(e.Icon),
		Description: e.Description,
		Temperature: Temperature(e.Temperature),
		Label:       e.Label,
	}
}

// IconURL is the large (4x) icon used on the hero card.
func (f *Formatter) IconURL(icon string) string {
	if icon == "" {
		return ""
	}
	return f.iconBaseURL + "/" + icon + "@4x.png"
}

// SmallIconURL is the 1x icon used in the forecast strip.
func (f *Formatter) SmallIconURL(icon string) string {
	if icon == "" {
		return ""
	}
	return f.iconBaseURL + "/" + icon + ".png"
}

// Clock formats an epoch as 24-hour HH:MM in the display location.
func (f *Formatter) Clock(epoch int64) string {
	return time.Unix(epoch, 0).In(f.loc).Format("15:04")
}

// Weekday formats an epoch as a short English weekday ("Mon").
func (f *Formatter) Weekday(epoch int64) string {
	return time.Unix(epoch, 0).In(f.loc).Format("Mon")
}

// Round rounds half up, so -2.5 becomes -2 and 2.5 becomes 3. The fraction is
// compared directly rather than adding 0.5, which would carry
// 0.49999999999999994 up to 1.
func Round(x float64) int {
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return int(r)
}

// Temperature renders a Celsius value as "31°C".
func Temperature(celsius float64) string {
	return strconv.Itoa(Round(celsius)) + "°C"
}

// Degrees renders a Celsius value without the unit letter ("33°").
func Degrees(celsius float64) string {
	return strconv.Itoa(Round(celsius)) + "°"
}

// Percent renders "62%".
func Percent(v int) string {
	return strconv.Itoa(v) + "%"
}

// Wind renders the speed as reported, "4.63 m/s".
func Wind(speed float64) string {
	return strconv.FormatFloat(speed, 'f', -1, 64) + " m/s"
}

// Visibility renders meters as kilometers with one decimal, "6.0 km".
func Visibility(meters int) string {
	return strconv.FormatFloat(float64(meters)/1000, 'f', 1, 64) + " km"
}

// Pressure renders "1009 hPa".
func Pressure(hpa int) string {
	return strconv.Itoa(hpa) + " hPa"
}
