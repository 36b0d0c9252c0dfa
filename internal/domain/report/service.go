package report

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/smart-irrigation/internal/domain/usage"
	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

// Report sources.
const (
	SourceLedger  = "ledger"
	SourceCache   = "cache"
	SourceFixture = "fixture"
)

const (
	weeklyWindow    = 7
	monthlyWindow   = 30
	defaultHistory  = 2 * monthlyWindow
	exportMimeType  = "text/csv"
	exportKeyPrefix = "reports"
)

// Service exposes the period report workflows.
type Service interface {
	Reports(ctx context.Context, userID int64) (Response, error)
	Period(ctx context.Context, userID int64, period Period) (PeriodSummary, error)
	Export(ctx context.Context, userID int64) (ExportResult, error)
	Invalidate(ctx context.Context, userID int64) error
}

// RecordSource reads a user's usage ledger.
type RecordSource interface {
	ListSince(ctx context.Context, userID int64, since time.Time) ([]usage.DailyUsageRecord, error)
}

// Cache stores computed responses per user.
type Cache interface {
	Get(ctx context.Context, userID int64) (Response, bool, error)
	Set(ctx context.Context, userID int64, resp Response, ttl time.Duration) error
	Delete(ctx context.Context, userID int64) error
}

// ObjectStorage persists exported report files.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

type service struct {
	cfg     Config
	records RecordSource
	cache   Cache
	storage ObjectStorage
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires the report domain. cache and storage may be nil.
func NewService(cfg Config, records RecordSource, cache Cache, storage ObjectStorage, logger *slog.Logger) Service {
	if cfg.HistoryDays < defaultHistory {
		cfg.HistoryDays = defaultHistory
	}
	return &service{
		cfg:     cfg,
		records: records,
		cache:   cache,
		storage: storage,
		logger:  logger.With("component", "report.service"),
		now:     util.NowUTC,
	}
}

func (s *service) Reports(ctx context.Context, userID int64) (Response, error) {
	if userID == 0 {
		return Response{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("report cache read failed", "user_id", userID, "error", err)
		} else if ok {
			cached.Source = SourceCache
			return cached, nil
		}
	}

	records, err := s.records.ListSince(ctx, userID, usage.Since(s.now(), s.cfg.HistoryDays))
	if err != nil {
		if s.cfg.FixtureFallback {
			s.logger.Warn("usage ledger unavailable, serving fixture report", "user_id", userID, "error", err)
			resp := FixtureResponse()
			resp.GeneratedAt = s.now()
			return resp, nil
		}
		return Response{}, apperrors.Wrap("storage_error", "failed to load usage records", err)
	}

	resp, err := Build(records)
	if err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			return Response{}, apperrors.Wrap("invalid_record", "usage ledger is inconsistent", err)
		}
		return Response{}, apperrors.Wrap("report_error", "failed to summarize usage", err)
	}
	resp.GeneratedAt = s.now()

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, userID, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("report cache write failed", "user_id", userID, "error", err)
		}
	}
	return resp, nil
}

func (s *service) Period(ctx context.Context, userID int64, period Period) (PeriodSummary, error) {
	normalized := Period(strings.ToLower(strings.TrimSpace(string(period))))
	if _, ok := (Response{}).Summary(normalized); !ok {
		return PeriodSummary{}, apperrors.Wrap("invalid_input", "period must be weekly, monthly or yearly", nil)
	}
	resp, err := s.Reports(ctx, userID)
	if err != nil {
		return PeriodSummary{}, err
	}
	summary, _ := resp.Summary(normalized)
	return summary, nil
}

func (s *service) Export(ctx context.Context, userID int64) (ExportResult, error) {
	if userID == 0 {
		return ExportResult{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	if s.storage == nil {
		return ExportResult{}, apperrors.Wrap("export_disabled", "report export is not configured", nil)
	}
	records, err := s.records.ListSince(ctx, userID, usage.Since(s.now(), s.cfg.HistoryDays))
	if err != nil {
		return ExportResult{}, apperrors.Wrap("storage_error", "failed to load usage records", err)
	}
	resp, err := Build(records)
	if err != nil {
		return ExportResult{}, apperrors.Wrap("invalid_record", "usage ledger is inconsistent", err)
	}
	payload, err := renderCSV(records, resp)
	if err != nil {
		return ExportResult{}, apperrors.Wrap("report_error", "failed to render export", err)
	}

	createdAt := s.now()
	key := exportKey(userID, createdAt)
	obj, err := s.storage.Put(ctx, key, payload, exportMimeType)
	if err != nil {
		return ExportResult{}, apperrors.Wrap("storage_error", "failed to store export", err)
	}
	s.logger.Info("report exported", "user_id", userID, "key", obj.Key, "size", obj.Size)
	return ExportResult{
		Key:       obj.Key,
		Size:      obj.Size,
		MimeType:  obj.MimeType,
		CreatedAt: createdAt,
	}, nil
}

func (s *service) Invalidate(ctx context.Context, userID int64) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, userID)
}

// Build computes the three fixed report configurations from a ledger slice.
func Build(records []Record) (Response, error) {
	weekly, err := Summarize(records, weeklyWindow, false)
	if err != nil {
		return Response{}, err
	}
	monthly, err := Summarize(records, monthlyWindow, false)
	if err != nil {
		return Response{}, err
	}
	yearly, err := Summarize(records, monthlyWindow, true)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Weekly:      weekly,
		Monthly:     monthly,
		Yearly:      yearly,
		Source:      SourceLedger,
		RecordCount: len(records),
	}, nil
}

func exportKey(userID int64, at time.Time) string {
	return exportKeyPrefix + "/" + formatInt(userID) + "/" + at.Format("20060102") + "-" + uuid.NewString() + ".csv"
}
