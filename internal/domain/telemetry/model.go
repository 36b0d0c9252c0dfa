package telemetry

import "time"

// Metric status buckets.
const (
	StatusOptimal  = "optimal"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Metric keys.
const (
	MetricSoilMoisture = "soilMoisture"
	MetricTemperature  = "temperature"
	MetricHumidity     = "humidity"
)

// Range is an inclusive optimal band.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Config holds classification thresholds.
type Config struct {
	SoilMoisture Range
	Temperature  Range
	Humidity     Range
	WarningBand  float64
	// ScheduleHour is the local hour the automatic irrigation run starts.
	ScheduleHour int
}

// DefaultConfig mirrors the ranges agronomists use for field crops.
func DefaultConfig() Config {
	return Config{
		SoilMoisture: Range{Min: 60, Max: 80},
		Temperature:  Range{Min: 25, Max: 30},
		Humidity:     Range{Min: 60, Max: 80},
		WarningBand:  5,
		ScheduleHour: 6,
	}
}

// Credentials identify a field device.
type Credentials struct {
	DeviceID string
	APIKey   string
}

// ReadingRequest is a device telemetry payload.
type ReadingRequest struct {
	DeviceID     string    `json:"deviceId,omitempty"`
	APIKey       string    `json:"apiKey,omitempty"`
	SoilMoisture float64   `json:"soilMoisture"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	Battery      int       `json:"battery"`
	Signal       string    `json:"signal"`
	Timestamp    time.Time `json:"timestamp"`
}

// Reading is a stored telemetry sample.
type Reading struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"deviceId"`
	UserID       int64     `json:"-"`
	SoilMoisture float64   `json:"soilMoisture"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	Battery      int       `json:"battery"`
	Signal       string    `json:"signal"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// Metric is one dashboard sensor card.
type Metric struct {
	Key     string  `json:"key"`
	Title   string  `json:"title"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Optimal Range   `json:"optimal"`
	Status  string  `json:"status"`
}

// SystemStatus summarises the sensor fleet.
type SystemStatus struct {
	System        string    `json:"system"`
	SensorsActive int       `json:"sensorsActive"`
	SensorsTotal  int       `json:"sensorsTotal"`
	Connectivity  string    `json:"connectivity"`
	LastUpdate    time.Time `json:"lastUpdate,omitempty"`
}

// IrrigationControl is the schedule card derived from user settings.
type IrrigationControl struct {
	Mode              string    `json:"mode"`
	DurationMinutes   int       `json:"durationMinutes"`
	MoistureThreshold int       `json:"moistureThreshold"`
	NextSchedule      time.Time `json:"nextSchedule"`
	NeedsWater        bool      `json:"needsWater"`
}

// Dashboard is the aggregated home view.
type Dashboard struct {
	Metrics    []Metric          `json:"metrics"`
	System     SystemStatus      `json:"system"`
	Irrigation IrrigationControl `json:"irrigation"`
	HasReading bool              `json:"hasReading"`
}

// Alert is published when a reading lands in the critical band.
type Alert struct {
	DeviceID string   `json:"deviceId"`
	Metrics  []Metric `json:"metrics"`
}
