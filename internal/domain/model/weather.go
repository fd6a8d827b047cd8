package model

import "time"

// Weather is a point-in-time observation in metric units.
type Weather struct {
	Temp        float64 `json:"temp"`      // °C
	FeelsLike   float64 `json:"feelsLike"` // °C
	Condition   string  `json:"condition"` // provider group: Clear, Rain, Snow...
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`  // %
	WindSpeed   float64 `json:"windSpeed"` // m/s
	Icon        string  `json:"icon"`
}

// DailyForecast aggregates one local calendar day.
type DailyForecast struct {
	Date        time.Time `json:"date"`
	Temp        float64   `json:"temp"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	Icon        string    `json:"icon"`
}

type OutfitSuggestions struct {
	Clothing    []string `json:"clothing"`
	Accessories []string `json:"accessories"`
	Tips        []string `json:"tips"`
	Layers      int      `json:"layers"`
}

const (
	windyThreshold    = 20 // m/s
	humidThreshold    = 80 // %
	sunnyTempFloorDeg = 20
)

type tempBand struct {
	below       float64
	clothing    []string
	accessories []string
	tip         string
	layers      int
}

// Bands are checked in order; the first whose upper bound is above the
// temperature applies.
var tempBands = []tempBand{
	{0, []string{"Heavy winter coat", "Thermal underwear", "Thick sweater", "Wool pants", "Winter boots"},
		[]string{"Thick scarf", "Insulated gloves", "Warm beanie", "Ear muffs"},
		"Freezing. Layer up with thermal wear.", 4},
	{10, []string{"Heavy coat", "Sweater", "Long pants", "Boots", "Long-sleeve shirt"},
		[]string{"Scarf", "Gloves", "Beanie"},
		"Cold weather, dress warmly.", 3},
	{15, []string{"Jacket", "Long-sleeve shirt", "Jeans", "Closed shoes"},
		[]string{"Light scarf"},
		"Cool weather, a jacket is recommended.", 2},
	{20, []string{"Light jacket or cardigan", "Long sleeves", "Jeans or pants", "Sneakers"},
		nil,
		"Mild weather, good for layering.", 2},
	{25, []string{"T-shirt", "Light pants or jeans", "Sneakers", "Light dress"},
		nil,
		"Pleasant weather, dress comfortably.", 1},
	{30, []string{"T-shirt", "Shorts or light pants", "Sandals", "Summer dress"},
		[]string{"Sunglasses", "Sun hat"},
		"Warm weather, stay cool and comfortable.", 1},
}

var hotBand = tempBand{
	clothing:    []string{"Tank top", "Shorts", "Sandals", "Light breathable fabrics"},
	accessories: []string{"Sunglasses", "Wide-brim hat", "Sunscreen"},
	tip:         "Very hot. Wear light, breathable clothing.",
	layers:      1,
}

// OutfitFor maps temperature, condition, wind and humidity to clothing advice.
func OutfitFor(w Weather) OutfitSuggestions {
	band := hotBand
	for _, b := range tempBands {
		if w.Temp < b.below {
			band = b
			break
		}
	}
	s := OutfitSuggestions{
		Clothing:    append([]string{}, band.clothing...),
		Accessories: append([]string{}, band.accessories...),
		Tips:        []string{band.tip},
		Layers:      band.layers,
	}

	switch w.Condition {
	case "Rain", "Drizzle", "Thunderstorm":
		s.addAccessories("Umbrella", "Waterproof jacket", "Rain boots")
		s.Tips = append(s.Tips, "Rain expected, bring waterproof gear.")
	case "Snow":
		s.addAccessories("Waterproof boots", "Waterproof gloves")
		s.Tips = append(s.Tips, "Snowy conditions, wear waterproof footwear.")
	}
	if w.WindSpeed > windyThreshold {
		s.Tips = append(s.Tips, "Windy conditions, secure loose clothing and accessories.")
		s.addAccessories("Hair tie or clips")
	}
	if w.Humidity > humidThreshold {
		s.Tips = append(s.Tips, "High humidity, choose breathable fabrics.")
	}
	if w.Condition == "Clear" && w.Temp > sunnyTempFloorDeg {
		s.addAccessories("Sunglasses", "Sunscreen")
		s.Tips = append(s.Tips, "Sunny day, protect yourself from UV rays.")
	}
	return s
}

// addAccessories appends items not already listed.
func (s *OutfitSuggestions) addAccessories(items ...string) {
	for _, it := range items {
		dup := false
		for _, have := range s.Accessories {
			if have == it {
				dup = true
				break
			}
		}
		if !dup {
			s.Accessories = append(s.Accessories, it)
		}
	}
}

// WeatherReport pairs current conditions with outfit advice.
type WeatherReport struct {
	Provider    string            `json:"provider"`
	Weather     Weather           `json:"weather"`
	Suggestions OutfitSuggestions `json:"suggestions"`
}

type ForecastDay struct {
	DailyForecast
	Suggestions OutfitSuggestions `json:"suggestions"`
}

// AsWeather lets a forecast day be scored like current conditions.
func (d DailyForecast) AsWeather() Weather {
	return Weather{
		Temp:        d.Temp,
		FeelsLike:   d.Temp,
		Condition:   d.Condition,
		Description: d.Description,
		Humidity:    d.Humidity,
		WindSpeed:   d.WindSpeed,
		Icon:        d.Icon,
	}
}
