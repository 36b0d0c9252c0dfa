package weather

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

const (
	defaultCity   = "Dharwad"
	maxCityLength = 85
	demoNotice    = "Using demo data - configure an OpenWeatherMap API key for real-time data"
)

// Service returns current conditions with an irrigation hint.
type Service interface {
	Current(ctx context.Context, city string) (Response, error)
}

// Client fetches current conditions from an upstream provider.
type Client interface {
	Current(ctx context.Context, city string) (Snapshot, error)
}

type service struct {
	cfg    Config
	client Client
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the weather domain. A nil client serves demo data.
func NewService(cfg Config, client Client, logger *slog.Logger) Service {
	if strings.TrimSpace(cfg.DefaultCity) == "" {
		cfg.DefaultCity = defaultCity
	}
	return &service{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "weather.service"),
		now:    util.NowUTC,
	}
}

func (s *service) Current(ctx context.Context, city string) (Response, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		city = s.cfg.DefaultCity
	}
	if len([]rune(city)) > maxCityLength {
		return Response{}, apperrors.Wrap("invalid_input", "city name too long", nil)
	}

	if s.client == nil {
		snap := MockSnapshot(city, s.now())
		return Response{Snapshot: snap, Recommendation: Recommend(snap), Notice: demoNotice}, nil
	}

	snap, err := s.client.Current(ctx, city)
	if err != nil {
		s.logger.Warn("weather upstream failed, serving demo data", "city", city, "error", err)
		snap = MockSnapshot(city, s.now())
		return Response{Snapshot: snap, Recommendation: Recommend(snap), Notice: demoNotice}, nil
	}
	return Response{Snapshot: snap, Recommendation: Recommend(snap)}, nil
}

// MockSnapshot returns the demo observation shown when no provider is configured.
func MockSnapshot(city string, at time.Time) Snapshot {
	return Snapshot{
		City:        city,
		Temperature: 28,
		FeelsLike:   30,
		TempMin:     26,
		TempMax:     32,
		Humidity:    65,
		Pressure:    1013,
		WindSpeed:   3.5,
		Visibility:  10000,
		Condition:   "Clouds",
		Description: "scattered clouds",
		RainChance:  30,
		Source:      SourceMock,
		ObservedAt:  at,
	}
}

// Recommend maps conditions to an irrigation hint.
func Recommend(s Snapshot) Recommendation {
	switch {
	case s.Condition == "Rain" || s.Condition == "Drizzle" || s.Condition == "Thunderstorm":
		return Recommendation{Text: "No irrigation needed - rain expected", Level: LevelLow}
	case s.Temperature > 30 && s.Humidity < 40:
		return Recommendation{Text: "High irrigation recommended - hot and dry conditions", Level: LevelHigh}
	case s.Temperature > 25 && s.WindSpeed > 15:
		return Recommendation{Text: "Moderate irrigation - windy conditions increase evaporation", Level: LevelMedium}
	case s.Humidity > 70:
		return Recommendation{Text: "Reduced irrigation - high humidity reduces evaporation", Level: LevelLow}
	default:
		return Recommendation{Text: "Normal irrigation schedule", Level: LevelMedium}
	}
}
