package store

import (
	"context"
	"errors"
	"time"

	"insight-service/internal/model"
	"insight-service/prometheus"

	"gorm.io/gorm"
)

// BrandStore is the single CRUD implementation shared by all five
// brand-strategy entity kinds. The kind registry entry supplies the table;
// everything else is identical across kinds. All operations are owner-scoped
// with a single combined predicate.
type BrandStore struct {
	db *gorm.DB
}

// NewBrandStore creates a brand store on top of the given database
func NewBrandStore(db *gorm.DB) *BrandStore {
	return &BrandStore{db: db}
}

// Create inserts a new statement of the given kind owned by userID
func (s *BrandStore) Create(ctx context.Context, kind model.BrandKind, userID, statement, originalInput string) (*model.BrandStatement, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	entry := model.BrandStatement{
		UserID:        userID,
		Statement:     statement,
		OriginalInput: originalInput,
	}
	if result := s.db.WithContext(ctx).Table(kind.Table).Create(&entry); result.Error != nil {
		return nil, result.Error
	}

	prometheus.BrandOperationCounter.WithLabelValues(kind.Name, "create").Inc()
	return &entry, nil
}

// List returns all statements of the given kind owned by userID, newest first
func (s *BrandStore) List(ctx context.Context, kind model.BrandKind, userID string) ([]model.BrandStatement, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var entries []model.BrandStatement
	result := s.db.WithContext(ctx).Table(kind.Table).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	prometheus.BrandOperationCounter.WithLabelValues(kind.Name, "list").Inc()
	return entries, nil
}

// Update replaces the statement text of the row matching id and userID and
// returns the updated row. Only the statement column is touched. Returns
// ErrNotFound when no row matched.
func (s *BrandStore) Update(ctx context.Context, kind model.BrandKind, id uint, userID, statement string) (*model.BrandStatement, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	result := s.db.WithContext(ctx).Table(kind.Table).
		Where("id = ? AND user_id = ?", id, userID).
		Update("statement", statement)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var entry model.BrandStatement
	if err := s.db.WithContext(ctx).Table(kind.Table).
		Where("id = ? AND user_id = ?", id, userID).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	prometheus.BrandOperationCounter.WithLabelValues(kind.Name, "update").Inc()
	return &entry, nil
}

// Delete removes the row matching id and userID. Deleting a row that does
// not exist (or is not owned by userID) is not an error: delete is
// idempotent.
func (s *BrandStore) Delete(ctx context.Context, kind model.BrandKind, id uint, userID string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := s.db.WithContext(ctx).Table(kind.Table).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.BrandStatement{})
	if result.Error != nil {
		return result.Error
	}

	prometheus.BrandOperationCounter.WithLabelValues(kind.Name, "delete").Inc()
	return nil
}
