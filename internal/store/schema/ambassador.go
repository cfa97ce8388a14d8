package schema

import (
	"time"

	"github.com/votetripling/ambassador-api/internal/domain"
)

// Ambassador represents the ambassadors table - volunteer organizers who claim triplers
type Ambassador struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	FirstName string    `gorm:"column:first_name;not null;type:text"`
	LastName  *string   `gorm:"column:last_name;type:text"`
	Phone     string    `gorm:"column:phone;not null;type:text"`
	Email     *string   `gorm:"column:email;type:text"`
	Latitude  float64   `gorm:"column:latitude;not null"`
	Longitude float64   `gorm:"column:longitude;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Ambassador model
func (Ambassador) TableName() string {
	return "ambassadors"
}

// Location returns the location of the ambassador
func (a *Ambassador) Location() domain.Location {
	return domain.Location{Latitude: a.Latitude, Longitude: a.Longitude}
}

// LastNameOrEmpty returns the last name or an empty string
func (a *Ambassador) LastNameOrEmpty() string {
	if a.LastName == nil {
		return ""
	}
	return *a.LastName
}

// Clone returns a deep copy of the ambassador
func (a *Ambassador) Clone() *Ambassador {
	cp := *a
	cp.LastName = cloneString(a.LastName)
	cp.Email = cloneString(a.Email)
	return &cp
}
