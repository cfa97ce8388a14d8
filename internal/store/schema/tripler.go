package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/votetripling/ambassador-api/internal/domain"
)

// Tripler represents the triplers table - recruits who pledge to bring three voters to the polls
type Tripler struct {
	// ID is a UUID assigned on creation
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// FirstName is the given name as entered
	FirstName string `gorm:"column:first_name;not null;type:text"`
	// LastName is the family name as entered
	LastName *string `gorm:"column:last_name;type:text"`
	// FirstNameNormalized is the folded first name used for search
	FirstNameNormalized string `gorm:"column:first_name_normalized;not null;type:text"`
	// LastNameNormalized is the folded last name used for search
	LastNameNormalized string `gorm:"column:last_name_normalized;not null;type:text"`
	// Phone is the canonical E.164 phone number
	Phone string `gorm:"column:phone;not null;type:text"`
	// Email is the lowercased email address
	Email *string `gorm:"column:email;type:text"`
	// VoterID is the voter file identifier
	VoterID *string `gorm:"column:voter_id;type:text"`
	// Address is the postal address
	Address datatypes.JSONType[Address] `gorm:"column:address;not null;type:jsonb"`
	// Latitude and Longitude are the geocoded location of the address
	Latitude  float64 `gorm:"column:latitude;not null"`
	Longitude float64 `gorm:"column:longitude;not null"`
	// Status is the confirmation state
	Status domain.TriplerStatus `gorm:"column:status;not null;type:text;default:unconfirmed"`
	// Triplees is the pledged triplee list, set when confirmation starts
	Triplees datatypes.JSONType[Triplees] `gorm:"column:triplees;not null;type:jsonb"`
	// Verification is the append-only list of identity lookup results
	Verification datatypes.JSONSlice[domain.Verification] `gorm:"column:verification;not null;type:jsonb"`
	// CarrierInfo is the append-only list of carrier lookups
	CarrierInfo datatypes.JSONSlice[domain.CarrierRecord] `gorm:"column:carrier_info;not null;type:jsonb"`
	// BlockedCarrierInfo is the append-only list of carrier lookups that were blocked
	BlockedCarrierInfo datatypes.JSONSlice[domain.CarrierRecord] `gorm:"column:blocked_carrier_info;not null;type:jsonb"`
	// ConfirmedAt is set once when the tripler confirms
	ConfirmedAt *time.Time `gorm:"column:confirmed_at;type:timestamptz"`
	// UpgradeSMSSent records whether the ambassador invitation was sent after confirmation
	UpgradeSMSSent bool `gorm:"column:upgrade_sms_sent;not null;default:false"`
	// IsAmbassadorAndHasConfirmed is set when the tripler became an ambassador and the referral bonus was paid
	IsAmbassadorAndHasConfirmed bool `gorm:"column:is_ambassador_and_has_confirmed;not null;default:false"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Tripler model
func (Tripler) TableName() string {
	return "triplers"
}

// Location returns the geocoded location of the tripler
func (t *Tripler) Location() domain.Location {
	return domain.Location{Latitude: t.Latitude, Longitude: t.Longitude}
}

// TripleeList returns the pledged triplees
func (t *Tripler) TripleeList() []domain.Triplee {
	return t.Triplees.Data().Items
}

// City returns the city of the postal address
func (t *Tripler) City() string {
	return t.Address.Data().City
}

// Clone returns a deep copy of the tripler
func (t *Tripler) Clone() *Tripler {
	cp := *t
	cp.LastName = cloneString(t.LastName)
	cp.Email = cloneString(t.Email)
	cp.VoterID = cloneString(t.VoterID)
	cp.Triplees = datatypes.NewJSONType(NewTriplees(t.Triplees.Data().Items))
	cp.Verification = append(datatypes.JSONSlice[domain.Verification]{}, t.Verification...)
	cp.CarrierInfo = append(datatypes.JSONSlice[domain.CarrierRecord]{}, t.CarrierInfo...)
	cp.BlockedCarrierInfo = append(datatypes.JSONSlice[domain.CarrierRecord]{}, t.BlockedCarrierInfo...)
	if t.ConfirmedAt != nil {
		at := *t.ConfirmedAt
		cp.ConfirmedAt = &at
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
