package model

import "time"

// User represents the user model stored in the database. The ID is the
// identity provider's subject claim; Stripe fields are populated by the
// billing integration.
type User struct {
	ID                   string    `json:"id" gorm:"type:varchar(255);primaryKey"`
	Email                string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	FirstName            string    `json:"firstName" gorm:"type:varchar(100)"`
	LastName             string    `json:"lastName" gorm:"type:varchar(100)"`
	ProfileImageURL      string    `json:"profileImageUrl" gorm:"type:text"`
	StripeCustomerID     *string   `json:"stripeCustomerId,omitempty" gorm:"type:varchar(255);index"`
	StripeSubscriptionID *string   `json:"stripeSubscriptionId,omitempty" gorm:"type:varchar(255)"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}
