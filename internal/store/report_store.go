package store

import (
	"context"
	"errors"
	"time"

	"insight-service/internal/model"
	"insight-service/prometheus"

	"gorm.io/gorm"
)

// ReportStore owns all report persistence. Every read and mutation combines
// the primary-key predicate with the owner predicate in a single statement,
// so ownership checks cannot race with the operation they guard.
type ReportStore struct {
	db *gorm.DB
}

// NewReportStore creates a report store on top of the given database
func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Create inserts a new report owned by userID and returns it with the
// generated id and timestamp filled in.
func (s *ReportStore) Create(ctx context.Context, report *model.Report) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := s.db.WithContext(ctx).Create(report); result.Error != nil {
		return result.Error
	}
	return nil
}

// Get returns the report iff it exists and is owned by userID. Seeded demo
// reports are readable by every caller. Nonexistence and ownership mismatch
// both yield ErrNotFound.
func (s *ReportStore) Get(ctx context.Context, id uint, userID string) (*model.Report, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var report model.Report
	result := s.db.WithContext(ctx).Where("id = ? AND (user_id = ? OR seed_key IS NOT NULL)", id, userID).First(&report)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &report, nil
}

// List returns all reports owned by userID plus the seeded demo reports,
// newest first. The demo rows guarantee a first-time caller never sees an
// empty list.
func (s *ReportStore) List(ctx context.Context, userID string) ([]model.Report, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var reports []model.Report
	result := s.db.WithContext(ctx).Where("user_id = ? OR seed_key IS NOT NULL", userID).Order("created_at DESC").Find(&reports)
	if result.Error != nil {
		return nil, result.Error
	}
	return reports, nil
}

// UpdateName renames the report matching id and userID and returns the
// updated row. Returns ErrNotFound when no row matched.
func (s *ReportStore) UpdateName(ctx context.Context, id uint, userID string, name string) (*model.Report, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	result := s.db.WithContext(ctx).Model(&model.Report{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("name", name)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.Get(ctx, id, userID)
}
