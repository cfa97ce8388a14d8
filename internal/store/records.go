package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// validID reports whether id can be a primary key; malformed ids never match a record
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// isDomainSentinel reports whether err is a store-level sentinel callers are expected to branch on
func isDomainSentinel(err error) bool {
	return errors.Is(err, domain.ErrPhoneTaken) ||
		errors.Is(err, domain.ErrEmailTaken) ||
		errors.Is(err, domain.ErrAmbassadorExists) ||
		errors.Is(err, domain.ErrAlreadyClaimed) ||
		errors.Is(err, domain.ErrClaimLimitReached) ||
		errors.Is(err, domain.ErrStatusMismatch)
}

func errAmbassadorMissing(id string) error {
	return fmt.Errorf("ambassador %q does not exist", id)
}

var errNegativeAmount = errors.New("payout amount must not be negative")

func errTriplerMissing(id string) error {
	return fmt.Errorf("tripler %q does not exist", id)
}

func newTripler(input CreateTriplerInput, now time.Time) *schema.Tripler {
	addr := input.Address
	addr.SchemaVersion = schema.AddressSchemaVersion

	return &schema.Tripler{
		ID:                  uuid.NewString(),
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		FirstNameNormalized: domain.NormalizeName(input.FirstName),
		LastNameNormalized:  domain.NormalizeOptionalName(input.LastName),
		Phone:               input.Phone,
		Email:               input.Email,
		VoterID:             input.VoterID,
		Address:             datatypes.NewJSONType(addr),
		Latitude:            input.Location.Latitude,
		Longitude:           input.Location.Longitude,
		Status:              domain.TriplerStatusUnconfirmed,
		Triplees:            datatypes.NewJSONType(schema.NewTriplees(nil)),
		Verification:        datatypes.JSONSlice[domain.Verification]{},
		CarrierInfo:         datatypes.JSONSlice[domain.CarrierRecord]{},
		BlockedCarrierInfo:  datatypes.JSONSlice[domain.CarrierRecord]{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func newAmbassador(input CreateAmbassadorInput, now time.Time) *schema.Ambassador {
	return &schema.Ambassador{
		ID:        uuid.NewString(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Email:     input.Email,
		Latitude:  input.Location.Latitude,
		Longitude: input.Location.Longitude,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newPayout(amount int64, createdAt time.Time) *schema.Payout {
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &schema.Payout{
		ID:        uuid.NewString(),
		Amount:    amount,
		Status:    domain.PayoutStatusPending,
		CreatedAt: createdAt,
	}
}
