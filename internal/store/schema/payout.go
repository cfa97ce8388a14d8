package schema

import (
	"time"

	"github.com/votetripling/ambassador-api/internal/domain"
)

// Payout represents the payouts table - money owed to an ambassador
type Payout struct {
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// Amount is in cents
	Amount    int64               `gorm:"column:amount;not null"`
	Status    domain.PayoutStatus `gorm:"column:status;not null;type:text;default:pending"`
	CreatedAt time.Time           `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Payout model
func (Payout) TableName() string {
	return "payouts"
}
