package dto

import (
	"time"

	"github.com/votetripling/ambassador-api/internal/domain"
)

// AddressResponse represents a postal address
type AddressResponse struct {
	Address1 string `json:"address1"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country,omitempty"`
}

// TriplerResponse represents a tripler
type TriplerResponse struct {
	ID                          string                 `json:"id"`
	FirstName                   string                 `json:"first_name"`
	LastName                    *string                `json:"last_name,omitempty"`
	Phone                       string                 `json:"phone"`
	Email                       *string                `json:"email,omitempty"`
	VoterID                     *string                `json:"voter_id,omitempty"`
	Address                     AddressResponse        `json:"address"`
	Location                    domain.Location        `json:"location"`
	Status                      domain.TriplerStatus   `json:"status"`
	Triplees                    []domain.Triplee       `json:"triplees"`
	Verification                []domain.Verification  `json:"verification,omitempty"`
	CarrierInfo                 []domain.CarrierRecord `json:"carrier_info,omitempty"`
	BlockedCarrierInfo          []domain.CarrierRecord `json:"blocked_carrier_info,omitempty"`
	ConfirmedAt                 *time.Time             `json:"confirmed_at,omitempty"`
	UpgradeSMSSent              bool                   `json:"upgrade_sms_sent"`
	IsAmbassadorAndHasConfirmed bool                   `json:"is_ambassador_and_has_confirmed"`
	CreatedAt                   time.Time              `json:"created_at"`
	UpdatedAt                   time.Time              `json:"updated_at"`
}

// TriplerListResponse represents a list of triplers
type TriplerListResponse struct {
	Triplers []TriplerResponse `json:"triplers"`
}

// TriplerMatchResponse represents a ranked fuzzy search result
type TriplerMatchResponse struct {
	TriplerResponse
	Score      float64  `json:"score"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// TriplerMatchListResponse represents the ranked results of a fuzzy search
type TriplerMatchListResponse struct {
	Triplers []TriplerMatchResponse `json:"triplers"`
}

// SuggestedTriplerResponse represents a suggested tripler with its distance in meters
type SuggestedTriplerResponse struct {
	TriplerResponse
	DistanceMeters float64 `json:"distance_meters"`
}

// SuggestedTriplerListResponse represents the suggestions for an ambassador
type SuggestedTriplerListResponse struct {
	Triplers []SuggestedTriplerResponse `json:"triplers"`
}

// AmbassadorResponse represents an ambassador
type AmbassadorResponse struct {
	ID        string          `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  *string         `json:"last_name,omitempty"`
	Phone     string          `json:"phone"`
	Email     *string         `json:"email,omitempty"`
	Location  domain.Location `json:"location"`
	// WasOnceTriplerID links an ambassador who used to be a tripler to that record
	WasOnceTriplerID *string   `json:"was_once_tripler_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ClaimResponse represents a CLAIMS edge
type ClaimResponse struct {
	AmbassadorID string    `json:"ambassador_id"`
	TriplerID    string    `json:"tripler_id"`
	Since        time.Time `json:"since"`
}

// TriplerLimitResponse represents the claim limit of an ambassador
type TriplerLimitResponse struct {
	Limit int `json:"limit"`
}
