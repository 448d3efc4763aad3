package store

import (
	"context"
	"errors"
	"time"

	"insight-service/internal/model"
	"insight-service/pkg/jwtutil"
	"insight-service/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore persists user identities. Rows are created and refreshed from the
// identity provider's claims; billing ids are attached by the billing
// integration.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a user store on top of the given database
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// UpsertFromClaims creates the user row on first sight and refreshes the
// profile fields on subsequent logins. Billing ids are left untouched.
func (s *UserStore) UpsertFromClaims(ctx context.Context, claims *jwtutil.UserClaims) (*model.User, error) {
	defer prometheus.TrackDBOperation("upsert")(time.Now())

	user := model.User{
		ID:              claims.UserID,
		Email:           claims.Email,
		FirstName:       claims.FirstName,
		LastName:        claims.LastName,
		ProfileImageURL: claims.ProfileImageURL,
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "updated_at"}),
	}).Create(&user)
	if result.Error != nil {
		return nil, result.Error
	}

	return s.Get(ctx, claims.UserID)
}

// Get returns the user row by id
func (s *UserStore) Get(ctx context.Context, id string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByStripeCustomerID resolves the owner of a billing customer. Used by the
// webhook handler, which only sees the customer id.
func (s *UserStore) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "stripe_customer_id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetStripeCustomerID attaches the billing customer id to the user
func (s *UserStore) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("stripe_customer_id", customerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStripeSubscriptionID records the user's subscription state. A nil id
// clears it (subscription canceled).
func (s *UserStore) SetStripeSubscriptionID(ctx context.Context, userID string, subscriptionID *string) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("stripe_subscription_id", subscriptionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
