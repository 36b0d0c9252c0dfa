package reportcache

import (
	"context"

	"github.com/yanqian/smart-irrigation/internal/domain/report"
	"github.com/yanqian/smart-irrigation/internal/domain/usage"
)

// ReportInvalidator lets the usage service drop cached reports without importing the report domain.
type ReportInvalidator struct {
	reports report.Service
}

// NewReportInvalidator wraps the report service.
func NewReportInvalidator(reports report.Service) *ReportInvalidator {
	return &ReportInvalidator{reports: reports}
}

// Invalidate implements usage.Invalidator.
func (i *ReportInvalidator) Invalidate(ctx context.Context, userID int64) error {
	if i == nil || i.reports == nil {
		return nil
	}
	return i.reports.Invalidate(ctx, userID)
}

var _ usage.Invalidator = (*ReportInvalidator)(nil)
