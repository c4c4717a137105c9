// Package forecast reduces the upstream 3-hourly forecast list to one
// representative entry per day.
//
// The representative is the midday slot as the upstream labels it: the time
// component of dt_txt must read "12:00:00". The epoch value is never used to
// re-derive the slot, so the selection follows the provider's own calendar.
// Days without a midday slot (usually the first and last of the window) are
// simply absent; nothing is backfilled or interpolated.
package forecast

import (
	"strings"

	"weatherlookup/internal/types"
)

// MiddaySlot is the textual time component that marks the representative slot.
const MiddaySlot = "12:00:00"

// IsMidday reports whether slotText ("YYYY-MM-DD HH:MM:SS") is a midday slot.
// Text without a time component never matches. The date and time must be
// separated by a space, which is how OpenWeatherMap writes dt_txt; an ISO
// "T" separator is not accepted.
func IsMidday(slotText string) bool {
	_, clock, ok := strings.Cut(strings.TrimSpace(slotText), " ")
	if !ok {
		return false
	}
	return strings.TrimSpace(clock) == MiddaySlot
}

// Reduce keeps the midday points in input order and projects each into a
// ForecastEntry. The result is never nil, so an empty strip encodes as [].
func Reduce(points []types.ForecastPoint) types.ForecastSeries {
	out := make(types.ForecastSeries, 0, len(points)/8+1)
	for _, p := range points {
		if !IsMidday(p.DtTxt) {
			continue
		}
		out = append(out, types.ForecastEntry{
			Timestamp:   p.Dt,
			Icon:        p.Icon,
			Label:       p.Label,
			Description: p.Description,
			Temperature: p.Temperature,
			SlotText:    p.DtTxt,
		})
	}
	return out
}

// ReduceEntries applies the same predicate to an already reduced series.
// Every entry produced by Reduce survives, which makes the reduction
// idempotent.
func ReduceEntries(series types.ForecastSeries) types.ForecastSeries {
	out := make(types.ForecastSeries, 0, len(series))
	for _, e := range series {
		if IsMidday(e.SlotText) {
			out = append(out, e)
		}
	}
	return out
}
