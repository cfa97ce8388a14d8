package schema

import "github.com/votetripling/ambassador-api/internal/domain"

// AddressSchemaVersion is the current version of the Address JSON value
const AddressSchemaVersion = 1

// TripleesSchemaVersion is the current version of the Triplees JSON value
const TripleesSchemaVersion = 1

// Address is the postal address of a tripler, stored as a versioned JSON value
type Address struct {
	SchemaVersion int    `json:"schema_version"`
	Address1      string `json:"address1"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	Country       string `json:"country,omitempty"`
}

// NewAddress returns an address stamped with the current schema version
func NewAddress(address1, city, state, zip, country string) Address {
	return Address{
		SchemaVersion: AddressSchemaVersion,
		Address1:      address1,
		City:          city,
		State:         state,
		Zip:           zip,
		Country:       country,
	}
}

// Triplees is the pledged triplee list of a tripler, stored as a versioned JSON value
type Triplees struct {
	SchemaVersion int              `json:"schema_version"`
	Items         []domain.Triplee `json:"items"`
}

// NewTriplees returns a triplee list stamped with the current schema version
func NewTriplees(items []domain.Triplee) Triplees {
	cp := make([]domain.Triplee, len(items))
	copy(cp, items)
	return Triplees{SchemaVersion: TripleesSchemaVersion, Items: cp}
}
