package weather

import "time"

// Snapshot is a normalised current-conditions observation.
type Snapshot struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	WindSpeed   float64   `json:"windSpeed"`
	Visibility  int       `json:"visibility"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	RainChance  int       `json:"rainChance"`
	Source      string    `json:"source"`
	ObservedAt  time.Time `json:"observedAt"`
}

// Recommendation is the irrigation hint derived from current conditions.
type Recommendation struct {
	Text  string `json:"text"`
	Level string `json:"level"`
}

// Response is returned to API consumers.
type Response struct {
	Snapshot       Snapshot       `json:"snapshot"`
	Recommendation Recommendation `json:"recommendation"`
	Notice         string         `json:"notice,omitempty"`
}

// Config controls the weather domain.
type Config struct {
	DefaultCity string
}

// Snapshot sources.
const (
	SourceOpenWeather = "openweathermap"
	SourceMock        = "mock"
)

// Recommendation levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)
