package openweather

import "weatherlookup/internal/types"

// conditionDTO is one element of the upstream "weather" array.
type conditionDTO struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// currentResponse is the subset of GET /weather the pipeline consumes.
type currentResponse struct {
	Name    string         `json:"name"`
	Dt      int64          `json:"dt"`
	Weather []conditionDTO `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int `json:"visibility"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int `json:"timezone"`
}

// forecastResponse is the subset of GET /forecast the pipeline consumes.
type forecastResponse struct {
	List []struct {
		Dt      int64          `json:"dt"`
		DtTxt   string         `json:"dt_txt"`
		Weather []conditionDTO `json:"weather"`
		Main    struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

// errorResponse is the body OpenWeatherMap sends with non-2xx statuses.
// cod is a number on /weather and a string on /forecast, so it is left raw.
type errorResponse struct {
	Message string `json:"message"`
}

func firstCondition(list []conditionDTO) conditionDTO {
	if len(list) == 0 {
		return conditionDTO{}
	}
	return list[0]
}

func (r currentResponse) toDomain() *types.CurrentConditions {
	cond := firstCondition(r.Weather)
	return &types.CurrentConditions{
		Name:          r.Name,
		Country:       r.Sys.Country,
		Description:   cond.Description,
		Label:         cond.Main,
		Icon:          cond.Icon,
		Temperature:   r.Main.Temp,
		TempMin:       r.Main.TempMin,
		TempMax:       r.Main.TempMax,
		FeelsLike:     r.Main.FeelsLike,
		Humidity:      r.Main.Humidity,
		WindSpeed:     r.Wind.Speed,
		WindDirection: r.Wind.Deg,
		Clouds:        r.Clouds.All,
		Visibility:    r.Visibility,
		Pressure:      r.Main.Pressure,
		Sunrise:       r.Sys.Sunrise,
		Sunset:        r.Sys.Sunset,
		ObservedAt:    r.Dt,
		UTCOffset:     r.Timezone,
	}
}

func (r forecastResponse) toDomain() []types.ForecastPoint {
	points := make([]types.ForecastPoint, 0, len(r.List))
	for _, item := range r.List {
		cond := firstCondition(item.Weather)
		points = append(points, types.ForecastPoint{
			Dt:          item.Dt,
			DtTxt:       item.DtTxt,
			Icon:        cond.Icon,
			Label:       cond.Main,
			Description: cond.Description,
			Temperature: item.Main.Temp,
		})
	}
	return points
}
