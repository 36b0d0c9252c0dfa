package usage

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/events"
	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

// Service manages the per-day usage ledger.
type Service interface {
	Record(ctx context.Context, userID int64, req RecordRequest) (DailyUsageRecord, error)
	List(ctx context.Context, userID int64, days int) (ListResponse, error)
	Delete(ctx context.Context, userID int64, date string) error
}

type service struct {
	repo        Repository
	invalidator Invalidator
	publisher   events.Publisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewService wires the usage domain. The invalidator and publisher may be nil.
func NewService(repo Repository, invalidator Invalidator, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:        repo,
		invalidator: invalidator,
		publisher:   publisher,
		logger:      logger.With("component", "usage.service"),
		now:         util.NowUTC,
	}
}

func (s *service) Record(ctx context.Context, userID int64, req RecordRequest) (DailyUsageRecord, error) {
	if userID == 0 {
		return DailyUsageRecord{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	date := strings.TrimSpace(req.Date)
	day, err := util.ParseDate(date)
	if err != nil {
		return DailyUsageRecord{}, apperrors.Wrap("invalid_input", "date must be formatted as YYYY-MM-DD", err)
	}
	if day.After(s.now()) {
		return DailyUsageRecord{}, apperrors.Wrap("invalid_input", "date cannot be in the future", nil)
	}
	if err := validateQuantities(req); err != nil {
		return DailyUsageRecord{}, err
	}

	rec := DailyUsageRecord{
		Date:            date,
		WaterUsed:       req.WaterUsed,
		WaterSaved:      req.WaterSaved,
		IrrigationCount: req.IrrigationCount,
	}
	if err := s.repo.Upsert(ctx, userID, rec); err != nil {
		return DailyUsageRecord{}, apperrors.Wrap("storage_error", "failed to persist usage record", err)
	}
	s.logger.Info("usage recorded", "user_id", userID, "date", date, "water_used", rec.WaterUsed)

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, userID); err != nil {
			s.logger.Warn("report cache invalidation failed", "user_id", userID, "error", err)
		}
	}
	if s.publisher != nil {
		evt := events.Event{
			Type:       events.TypeUsageRecorded,
			UserID:     userID,
			Key:        date,
			Payload:    rec,
			OccurredAt: s.now(),
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("publish usage event failed", "user_id", userID, "error", err)
		}
	}
	return rec, nil
}

func (s *service) List(ctx context.Context, userID int64, days int) (ListResponse, error) {
	if userID == 0 {
		return ListResponse{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	if days == 0 {
		days = DefaultListDays
	}
	if days < 0 || days > MaxListDays {
		return ListResponse{}, apperrors.Wrap("invalid_input", "days must be between 1 and 366", nil)
	}
	records, err := s.repo.ListSince(ctx, userID, Since(s.now(), days))
	if err != nil {
		return ListResponse{}, apperrors.Wrap("storage_error", "failed to load usage records", err)
	}
	if records == nil {
		records = []DailyUsageRecord{}
	}
	return ListResponse{Records: records, Days: days}, nil
}

func (s *service) Delete(ctx context.Context, userID int64, date string) error {
	if userID == 0 {
		return apperrors.Wrap("unauthorized", "missing user", nil)
	}
	if _, err := util.ParseDate(date); err != nil {
		return apperrors.Wrap("invalid_input", "date must be formatted as YYYY-MM-DD", err)
	}
	found, err := s.repo.Delete(ctx, userID, date)
	if err != nil {
		return apperrors.Wrap("storage_error", "failed to delete usage record", err)
	}
	if !found {
		return apperrors.Wrap("not_found", "usage record not found", nil)
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, userID); err != nil {
			s.logger.Warn("report cache invalidation failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

// Since returns the first calendar day of a trailing span of days ending at now.
func Since(now time.Time, days int) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -(days - 1))
}

func validateQuantities(req RecordRequest) error {
	if !validQuantity(req.WaterUsed) {
		return apperrors.Wrap("invalid_input", "waterUsed must be a non-negative number", nil)
	}
	if !validQuantity(req.WaterSaved) {
		return apperrors.Wrap("invalid_input", "waterSaved must be a non-negative number", nil)
	}
	if req.IrrigationCount < 0 {
		return apperrors.Wrap("invalid_input", "irrigationCount must be non-negative", nil)
	}
	return nil
}

func validQuantity(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
