package dto

import (
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/search"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// MapTriplerToDTO maps a tripler record to its response
func MapTriplerToDTO(t *schema.Tripler) *TriplerResponse {
	address := t.Address.Data()
	triplees := t.TripleeList()
	if triplees == nil {
		triplees = []domain.Triplee{}
	}

	return &TriplerResponse{
		ID:        t.ID,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Phone:     t.Phone,
		Email:     t.Email,
		VoterID:   t.VoterID,
		Address: AddressResponse{
			Address1: address.Address1,
			City:     address.City,
			State:    address.State,
			Zip:      address.Zip,
			Country:  address.Country,
		},
		Location:                    t.Location(),
		Status:                      t.Status,
		Triplees:                    triplees,
		Verification:                t.Verification,
		CarrierInfo:                 t.CarrierInfo,
		BlockedCarrierInfo:          t.BlockedCarrierInfo,
		ConfirmedAt:                 t.ConfirmedAt,
		UpgradeSMSSent:              t.UpgradeSMSSent,
		IsAmbassadorAndHasConfirmed: t.IsAmbassadorAndHasConfirmed,
		CreatedAt:                   t.CreatedAt,
		UpdatedAt:                   t.UpdatedAt,
	}
}

// MapTriplersToDTO maps tripler records to a list response
func MapTriplersToDTO(triplers []*schema.Tripler) *TriplerListResponse {
	out := make([]TriplerResponse, len(triplers))
	for i, t := range triplers {
		out[i] = *MapTriplerToDTO(t)
	}
	return &TriplerListResponse{Triplers: out}
}

// MapMatchesToDTO maps ranked search results; withDistance is false for admin searches
func MapMatchesToDTO(matches []search.Match, withDistance bool) *TriplerMatchListResponse {
	out := make([]TriplerMatchResponse, len(matches))
	for i, m := range matches {
		out[i] = TriplerMatchResponse{
			TriplerResponse: *MapTriplerToDTO(m.Tripler),
			Score:           m.Score,
		}
		if withDistance {
			d := m.DistanceKm
			out[i].DistanceKm = &d
		}
	}
	return &TriplerMatchListResponse{Triplers: out}
}

// MapSuggestionsToDTO maps suggested triplers
func MapSuggestionsToDTO(suggested []store.SuggestedTripler) *SuggestedTriplerListResponse {
	out := make([]SuggestedTriplerResponse, len(suggested))
	for i, s := range suggested {
		out[i] = SuggestedTriplerResponse{
			TriplerResponse: *MapTriplerToDTO(s.Tripler),
			DistanceMeters:  s.DistanceMeters,
		}
	}
	return &SuggestedTriplerListResponse{Triplers: out}
}

// MapAmbassadorToDTO maps an ambassador record and its optional WAS_ONCE edge
func MapAmbassadorToDTO(a *schema.Ambassador, wasOnce *schema.WasOnce) *AmbassadorResponse {
	resp := &AmbassadorResponse{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Phone:     a.Phone,
		Email:     a.Email,
		Location:  a.Location(),
		CreatedAt: a.CreatedAt,
	}
	if wasOnce != nil {
		id := wasOnce.TriplerID
		resp.WasOnceTriplerID = &id
	}
	return resp
}

// MapClaimToDTO maps a claim edge
func MapClaimToDTO(c *schema.Claim) *ClaimResponse {
	return &ClaimResponse{
		AmbassadorID: c.AmbassadorID,
		TriplerID:    c.TriplerID,
		Since:        c.Since,
	}
}
