package schema

import "time"

// Claim represents the claims table - the CLAIMS edge from an ambassador to a tripler.
// A tripler has at most one claim.
type Claim struct {
	AmbassadorID string    `gorm:"column:ambassador_id;not null;type:uuid"`
	TriplerID    string    `gorm:"column:tripler_id;primaryKey;type:uuid"`
	Since        time.Time `gorm:"column:since;not null;type:timestamptz"`
}

// TableName specifies the table name for the Claim model
func (Claim) TableName() string {
	return "claims"
}

// WasOnce represents the was_once table - the WAS_ONCE edge from an ambassador to the
// tripler record they used to be. An ambassador has at most one.
type WasOnce struct {
	AmbassadorID string `gorm:"column:ambassador_id;primaryKey;type:uuid"`
	TriplerID    string `gorm:"column:tripler_id;not null;type:uuid"`
	// RewardedPreviousClaimer flips from false to true at most once
	RewardedPreviousClaimer bool `gorm:"column:rewarded_previous_claimer;not null;default:false"`
}

// TableName specifies the table name for the WasOnce model
func (WasOnce) TableName() string {
	return "was_once"
}

// GetsPaid represents the gets_paid table - the GETS_PAID edge from an ambassador to a payout
type GetsPaid struct {
	AmbassadorID string `gorm:"column:ambassador_id;not null;type:uuid"`
	PayoutID     string `gorm:"column:payout_id;primaryKey;type:uuid"`
	// TriplerID is the tripler whose confirmation earned the payout
	TriplerID string `gorm:"column:tripler_id;not null;type:uuid"`
}

// TableName specifies the table name for the GetsPaid model
func (GetsPaid) TableName() string {
	return "gets_paid"
}
