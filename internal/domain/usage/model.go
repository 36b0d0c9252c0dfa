package usage

import "time"

// DailyUsageRecord is one calendar day of irrigation water accounting.
type DailyUsageRecord struct {
	Date            string  `json:"date"`
	WaterUsed       float64 `json:"waterUsed"`
	WaterSaved      float64 `json:"waterSaved"`
	IrrigationCount int     `json:"irrigationCount"`
}

// StoredRecord is a DailyUsageRecord owned by a user.
type StoredRecord struct {
	UserID    int64
	Record    DailyUsageRecord
	UpdatedAt time.Time
}

// RecordRequest is the payload accepted by Record.
type RecordRequest struct {
	Date            string  `json:"date"`
	WaterUsed       float64 `json:"waterUsed"`
	WaterSaved      float64 `json:"waterSaved"`
	IrrigationCount int     `json:"irrigationCount"`
}

// ListResponse wraps a list of records for transport.
type ListResponse struct {
	Records []DailyUsageRecord `json:"records"`
	Days    int                `json:"days"`
}

const (
	// DefaultListDays is used when callers do not request a span.
	DefaultListDays = 30
	// MaxListDays bounds the span a single List call may return.
	MaxListDays = 366
)
