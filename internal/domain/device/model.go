package device

import (
	"errors"
	"time"
)

// ErrDeviceExists is returned by repositories when a device id is already registered.
var ErrDeviceExists = errors.New("device already registered")

// Connection states.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Signal strength buckets reported by field units.
const (
	SignalExcellent = "excellent"
	SignalGood      = "good"
	SignalFair      = "fair"
	SignalPoor      = "poor"
)

// Config tunes device bookkeeping.
type Config struct {
	OfflineAfter time.Duration
	APIKeyLength int
}

// Device is a registered field sensor unit.
type Device struct {
	ID         string
	UserID     int64
	Name       string
	Signal     string
	Battery    int
	APIKeyHash string
	LastSeen   time.Time
	CreatedAt  time.Time
}

// View is the transport shape of a device.
type View struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Battery  int       `json:"battery"`
	Signal   string    `json:"signal"`
	LastSeen time.Time `json:"lastSeen"`
}

// RegisterRequest is the Settings page connection form.
type RegisterRequest struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

// RegisterResponse carries the freshly issued API key. The key is not retrievable later.
type RegisterResponse struct {
	Device View   `json:"device"`
	APIKey string `json:"apiKey"`
}

// Settings holds a user's field and irrigation preferences.
type Settings struct {
	FieldSize          float64   `json:"fieldSize"`
	CropType           string    `json:"cropType"`
	SoilType           string    `json:"soilType"`
	IrrigationDuration int       `json:"irrigationDuration"`
	MoistureThreshold  int       `json:"moistureThreshold"`
	Automation         bool      `json:"automation"`
	Notifications      bool      `json:"notifications"`
	UpdatedAt          time.Time `json:"updatedAt,omitempty"`
}

// SoilType describes one selectable soil option.
type SoilType struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Options is the catalog backing the settings form.
type Options struct {
	CropTypes []string   `json:"cropTypes"`
	SoilTypes []SoilType `json:"soilTypes"`
}

const (
	DefaultIrrigationDuration = 30
	DefaultMoistureThreshold  = 60
	DefaultSoilType           = "loam"

	minIrrigationDuration = 1
	maxIrrigationDuration = 240
)

var cropTypes = []string{
	"Wheat", "Corn", "Rice", "Cotton", "Soybean",
	"Vegetables", "Fruits", "Flowers", "Pasture", "Other",
}

var soilTypes = []SoilType{
	{Value: "sand", Label: "Sandy Soil", Description: "Fast drainage"},
	{Value: "loam", Label: "Loam Soil", Description: "Well balanced"},
	{Value: "clay", Label: "Clay Soil", Description: "Slow drainage"},
	{Value: "silt", Label: "Silt Soil", Description: "Moisture retentive"},
}

// DefaultSettings returns the preferences applied before a user saves any.
func DefaultSettings() Settings {
	return Settings{
		SoilType:           DefaultSoilType,
		IrrigationDuration: DefaultIrrigationDuration,
		MoistureThreshold:  DefaultMoistureThreshold,
		Automation:         true,
		Notifications:      true,
	}
}

// CatalogOptions returns copies of the crop and soil catalogs.
func CatalogOptions() Options {
	return Options{
		CropTypes: append([]string(nil), cropTypes...),
		SoilTypes: append([]SoilType(nil), soilTypes...),
	}
}
