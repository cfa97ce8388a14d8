package lookup

import (
	"context"

	"github.com/votetripling/ambassador-api/internal/domain"
)

// AddressQuery is the postal address sent to a geocoder
type AddressQuery struct {
	Address1 string
	City     string
	State    string
	Zip      string
}

// Carrier is the result of a carrier lookup
type Carrier struct {
	Name    string
	Blocked bool
}

// Geocoder resolves a postal address to coordinates
//
//go:generate mockgen -source=lookup.go -destination=../mocks/lookup.go -package=mocks -mock_names=Geocoder=MockGeocoder,CarrierLookup=MockCarrierLookup,IdentityLookup=MockIdentityLookup
type Geocoder interface {
	// Geocode returns nil when the address has no match
	Geocode(ctx context.Context, address AddressQuery) (*domain.Location, error)
}

// CarrierLookup resolves the carrier of a phone number and whether it is blocked
type CarrierLookup interface {
	LookupCarrier(ctx context.Context, phone string) (*Carrier, error)
}

// IdentityLookup resolves the name a phone number is registered to.
// It returns nil when the provider knows no name for the number.
type IdentityLookup interface {
	LookupIdentity(ctx context.Context, phone string) (*domain.Verification, error)
}
