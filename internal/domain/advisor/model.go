package advisor

import (
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/weather"
	"github.com/yanqian/smart-irrigation/pkg/metrics"
)

// Advice sources.
const (
	SourceRules = "rules"
	SourceLLM   = "llm"
)

// Priorities understood by the dashboard card.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Request captures the advice query.
type Request struct {
	City string `json:"city" form:"city"`
}

// Response is the AI advice card payload.
type Response struct {
	Advice            string              `json:"advice"`
	Confidence        int                 `json:"confidence"`
	Priority          string              `json:"priority"`
	Tips              []string            `json:"tips"`
	Source            string              `json:"source"`
	Weather           weather.Snapshot    `json:"weather"`
	SoilMoisture      *float64            `json:"soilMoisture,omitempty"`
	MoistureThreshold int                 `json:"moistureThreshold"`
	CropType          string              `json:"cropType,omitempty"`
	Usage             *metrics.TokenUsage `json:"usage,omitempty"`
	GeneratedAt       time.Time           `json:"generatedAt"`
}

// Config wires runtime settings for the advisor.
type Config struct {
	Model           string
	Temperature     float32
	Prompt          string
	MaxPromptTokens int
}
