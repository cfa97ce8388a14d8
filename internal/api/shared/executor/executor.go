package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/api/shared/dto"
	"github.com/votetripling/ambassador-api/internal/api/shared/types"
	"github.com/votetripling/ambassador-api/internal/claims"
	"github.com/votetripling/ambassador-api/internal/confirmation"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/logger"
	"github.com/votetripling/ambassador-api/internal/lookup"
	"github.com/votetripling/ambassador-api/internal/search"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

// Executor is the interface for the API executor
//
//go:generate mockgen -source=executor.go -destination=../../../mocks/api_executor.go -package=mocks -mock_names=Executor=MockAPIExecutor
type Executor interface {
	// CreateTripler geocodes the address and creates an unconfirmed tripler
	CreateTripler(ctx context.Context, req dto.CreateTriplerRequest) (*dto.TriplerResponse, error)

	// UpdateTripler applies a partial profile update, geocoding a changed address
	UpdateTripler(ctx context.Context, triplerID string, req dto.UpdateTriplerRequest) (*dto.TriplerResponse, error)

	// DeleteTripler deletes a tripler and its edges
	DeleteTripler(ctx context.Context, triplerID string) error

	// GetTripler retrieves a tripler claimed by the ambassador
	GetTripler(ctx context.Context, ambassadorID string, triplerID string) (*dto.TriplerResponse, error)

	// ConfirmTripler confirms a pending tripler and issues the payouts
	ConfirmTripler(ctx context.Context, triplerID string) (*dto.TriplerResponse, error)

	// ReconfirmTripler resends the reconfirmation message to a pending tripler
	ReconfirmTripler(ctx context.Context, triplerID string) error

	// AdminSearchTriplers runs the admin filter search
	AdminSearchTriplers(ctx context.Context, filter search.AdminFilter) (*dto.TriplerListResponse, error)

	// SearchTriplers runs the fuzzy name search; admins see every tripler, ambassadors unclaimed ones ranked by distance
	SearchTriplers(ctx context.Context, principal types.Principal, firstName string, lastName string) (*dto.TriplerMatchListResponse, error)

	// SuggestTriplers lists unclaimed triplers near the ambassador
	SuggestTriplers(ctx context.Context, ambassadorID string, maxDistanceMeters float64, limit int) (*dto.SuggestedTriplerListResponse, error)

	// CreateAmbassador geocodes the address and creates an ambassador
	CreateAmbassador(ctx context.Context, req dto.CreateAmbassadorRequest) (*dto.AmbassadorResponse, error)

	// ClaimTripler claims a tripler for the ambassador
	ClaimTripler(ctx context.Context, ambassadorID string, triplerID string) (*dto.ClaimResponse, error)

	// DetachTripler releases a claimed tripler; ambassadors may only detach their own
	DetachTripler(ctx context.Context, principal types.Principal, triplerID string) error

	// StartConfirmation sends the confirmation request to a claimed tripler
	StartConfirmation(ctx context.Context, ambassadorID string, triplerID string, req dto.StartConfirmationRequest) (*dto.TriplerResponse, error)

	// RemindTripler resends the confirmation request to a pending tripler
	RemindTripler(ctx context.Context, ambassadorID string, triplerID string, req dto.RemindTriplerRequest) (*dto.TriplerResponse, error)

	// GetTriplerLimit returns the claim limit
	GetTriplerLimit(ctx context.Context) *dto.TriplerLimitResponse

	// Health checks the backing store
	Health(ctx context.Context) error
}

type executor struct {
	store        store.Store
	geocoder     lookup.Geocoder
	claims       *claims.Manager
	confirmation *confirmation.Workflow
	matcher      *search.Matcher
}

// NewExecutor creates the executor shared by every REST handler
func NewExecutor(
	st store.Store,
	geocoder lookup.Geocoder,
	claimManager *claims.Manager,
	workflow *confirmation.Workflow,
	matcher *search.Matcher,
) Executor {
	return &executor{
		store:        st,
		geocoder:     geocoder,
		claims:       claimManager,
		confirmation: workflow,
		matcher:      matcher,
	}
}

func (e *executor) CreateTripler(ctx context.Context, req dto.CreateTriplerRequest) (*dto.TriplerResponse, error) {
	phone, err := domain.NormalizePhone(req.Phone)
	if err != nil {
		return nil, domain.NewValidationError(domain.MsgInvalidPhone)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := e.checkTriplerUnique(ctx, "", phone, email); err != nil {
		return nil, err
	}

	address := toAddress(req.Address)
	location, err := e.geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	tripler, err := e.store.CreateTripler(ctx, store.CreateTriplerInput{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  trimmed(req.LastName),
		Phone:     phone,
		Email:     email,
		VoterID:   trimmed(req.VoterID),
		Address:   address,
		Location:  *location,
	})
	if err != nil {
		return nil, mapUniqueError(err, "failed to create tripler")
	}

	logger.InfoCtx(ctx, "Tripler created", zap.String("tripler_id", tripler.ID))

	return dto.MapTriplerToDTO(tripler), nil
}

func (e *executor) UpdateTripler(ctx context.Context, triplerID string, req dto.UpdateTriplerRequest) (*dto.TriplerResponse, error) {
	tripler, err := e.store.GetTriplerByID(ctx, triplerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tripler: %w", err)
	}
	if tripler == nil {
		return nil, domain.NewNotFoundError(domain.MsgInvalidTripler)
	}

	input := store.UpdateTriplerInput{
		FirstName: trimmed(req.FirstName),
		LastName:  trimmed(req.LastName),
		VoterID:   trimmed(req.VoterID),
	}

	var phone string
	if req.Phone != nil {
		phone, err = domain.NormalizePhone(*req.Phone)
		if err != nil {
			return nil, domain.NewValidationError(domain.MsgInvalidPhone)
		}
		input.Phone = &phone
	}
	if req.Email != nil {
		input.Email, err = normalizeEmail(req.Email)
		if err != nil {
			return nil, err
		}
	}
	if err := e.checkTriplerUnique(ctx, tripler.ID, phone, input.Email); err != nil {
		return nil, err
	}

	if req.Address != nil {
		address := toAddress(*req.Address)
		location, err := e.geocode(ctx, address)
		if err != nil {
			return nil, err
		}
		input.Address = &address
		input.Location = location
	}

	updated, err := e.store.UpdateTripler(ctx, tripler.ID, input)
	if err != nil {
		return nil, mapUniqueError(err, "failed to update tripler")
	}
	if updated == nil {
		return nil, domain.NewNotFoundError(domain.MsgInvalidTripler)
	}

	return dto.MapTriplerToDTO(updated), nil
}

func (e *executor) DeleteTripler(ctx context.Context, triplerID string) error {
	deleted, err := e.store.DeleteTripler(ctx, triplerID)
	if err != nil {
		return fmt.Errorf("failed to delete tripler: %w", err)
	}
	if !deleted {
		return domain.NewNotFoundError(domain.MsgInvalidTripler)
	}

	logger.InfoCtx(ctx, "Tripler deleted", zap.String("tripler_id", triplerID))
	return nil
}

func (e *executor) GetTripler(ctx context.Context, ambassadorID string, triplerID string) (*dto.TriplerResponse, error) {
	tripler, err := e.store.GetTriplerByID(ctx, triplerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tripler: %w", err)
	}
	if tripler == nil {
		return nil, domain.NewNotFoundError(domain.MsgInvalidTripler)
	}

	claim, err := e.store.GetClaimByTripler(ctx, tripler.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	if claim == nil || claim.AmbassadorID != ambassadorID {
		return nil, domain.NewNotFoundError(domain.MsgInvalidTripler)
	}

	return dto.MapTriplerToDTO(tripler), nil
}

func (e *executor) ConfirmTripler(ctx context.Context, triplerID string) (*dto.TriplerResponse, error) {
	tripler, err := e.confirmation.Confirm(ctx, triplerID)
	if err != nil {
		return nil, err
	}
	return dto.MapTriplerToDTO(tripler), nil
}

func (e *executor) ReconfirmTripler(ctx context.Context, triplerID string) error {
	return e.confirmation.Reconfirm(ctx, triplerID)
}

func (e *executor) AdminSearchTriplers(ctx context.Context, filter search.AdminFilter) (*dto.TriplerListResponse, error) {
	triplers, err := e.matcher.AdminSearch(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.MapTriplersToDTO(triplers), nil
}

func (e *executor) SearchTriplers(ctx context.Context, principal types.Principal, firstName string, lastName string) (*dto.TriplerMatchListResponse, error) {
	if principal.IsAdmin() {
		matches, err := e.matcher.AdminFuzzySearch(ctx, firstName, lastName)
		if err != nil {
			return nil, err
		}
		return dto.MapMatchesToDTO(matches, false), nil
	}

	ambassador, err := e.ambassador(ctx, principal.AmbassadorID)
	if err != nil {
		return nil, err
	}
	matches, err := e.matcher.AmbassadorSearch(ctx, ambassador, firstName, lastName)
	if err != nil {
		return nil, err
	}
	return dto.MapMatchesToDTO(matches, true), nil
}

func (e *executor) SuggestTriplers(ctx context.Context, ambassadorID string, maxDistanceMeters float64, limit int) (*dto.SuggestedTriplerListResponse, error) {
	ambassador, err := e.ambassador(ctx, ambassadorID)
	if err != nil {
		return nil, err
	}

	suggested, err := e.matcher.Suggest(ctx, ambassador, maxDistanceMeters, limit)
	if err != nil {
		return nil, err
	}
	return dto.MapSuggestionsToDTO(suggested), nil
}

func (e *executor) CreateAmbassador(ctx context.Context, req dto.CreateAmbassadorRequest) (*dto.AmbassadorResponse, error) {
	phone, err := domain.NormalizePhone(req.Phone)
	if err != nil {
		return nil, domain.NewValidationError(domain.MsgInvalidPhone)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	location, err := e.geocode(ctx, toAddress(req.Address))
	if err != nil {
		return nil, err
	}

	ambassador, err := e.store.CreateAmbassador(ctx, store.CreateAmbassadorInput{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  trimmed(req.LastName),
		Phone:     phone,
		Email:     email,
		Location:  *location,
	})
	if errors.Is(err, domain.ErrAmbassadorExists) {
		return nil, domain.NewConflictError(domain.MsgPhoneInUse)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create ambassador: %w", err)
	}

	wasOnce, err := e.store.GetWasOnce(ctx, ambassador.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get was_once: %w", err)
	}

	logger.InfoCtx(ctx, "Ambassador created",
		zap.String("ambassador_id", ambassador.ID),
		zap.Bool("was_tripler", wasOnce != nil))

	return dto.MapAmbassadorToDTO(ambassador, wasOnce), nil
}

func (e *executor) ClaimTripler(ctx context.Context, ambassadorID string, triplerID string) (*dto.ClaimResponse, error) {
	ambassador, err := e.ambassador(ctx, ambassadorID)
	if err != nil {
		return nil, err
	}

	claim, err := e.claims.Claim(ctx, ambassador, triplerID)
	if err != nil {
		return nil, err
	}
	return dto.MapClaimToDTO(claim), nil
}

func (e *executor) DetachTripler(ctx context.Context, principal types.Principal, triplerID string) error {
	if !principal.IsAdmin() {
		claim, err := e.store.GetClaimByTripler(ctx, triplerID)
		if err != nil {
			return fmt.Errorf("failed to get claim: %w", err)
		}
		if claim == nil || claim.AmbassadorID != principal.AmbassadorID {
			return domain.NewNotFoundError(domain.MsgInvalidTripler)
		}
	}
	return e.claims.Detach(ctx, triplerID)
}

func (e *executor) StartConfirmation(ctx context.Context, ambassadorID string, triplerID string, req dto.StartConfirmationRequest) (*dto.TriplerResponse, error) {
	ambassador, err := e.ambassador(ctx, ambassadorID)
	if err != nil {
		return nil, err
	}

	tripler, err := e.confirmation.StartConfirmation(ctx, confirmation.StartInput{
		Ambassador: ambassador,
		TriplerID:  triplerID,
		Phone:      req.Phone,
		Triplees:   req.ToTriplees(),
	})
	if err != nil {
		return nil, err
	}
	return dto.MapTriplerToDTO(tripler), nil
}

func (e *executor) RemindTripler(ctx context.Context, ambassadorID string, triplerID string, req dto.RemindTriplerRequest) (*dto.TriplerResponse, error) {
	ambassador, err := e.ambassador(ctx, ambassadorID)
	if err != nil {
		return nil, err
	}

	tripler, err := e.confirmation.Remind(ctx, ambassador, triplerID, req.Phone)
	if err != nil {
		return nil, err
	}
	return dto.MapTriplerToDTO(tripler), nil
}

func (e *executor) GetTriplerLimit(_ context.Context) *dto.TriplerLimitResponse {
	return &dto.TriplerLimitResponse{Limit: e.claims.Limit()}
}

func (e *executor) Health(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// ambassador resolves the authenticated ambassador
func (e *executor) ambassador(ctx context.Context, id string) (*schema.Ambassador, error) {
	ambassador, err := e.store.GetAmbassadorByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ambassador: %w", err)
	}
	if ambassador == nil {
		return nil, domain.NewNotFoundError(domain.MsgInvalidAmbassador)
	}
	return ambassador, nil
}

// checkTriplerUnique rejects a phone or email held by another tripler than selfID
func (e *executor) checkTriplerUnique(ctx context.Context, selfID string, phone string, email *string) error {
	if phone != "" {
		other, err := e.store.GetTriplerByPhone(ctx, phone)
		if err != nil {
			return fmt.Errorf("failed to get tripler by phone: %w", err)
		}
		if other != nil && other.ID != selfID {
			return domain.NewConflictError(domain.MsgPhoneInUse)
		}
	}
	if email != nil {
		other, err := e.store.GetTriplerByEmail(ctx, *email)
		if err != nil {
			return fmt.Errorf("failed to get tripler by email: %w", err)
		}
		if other != nil && other.ID != selfID {
			return domain.NewConflictError(domain.MsgEmailInUse)
		}
	}
	return nil
}

// geocode resolves an address; an unknown address is a validation error
func (e *executor) geocode(ctx context.Context, address schema.Address) (*domain.Location, error) {
	location, err := e.geocoder.Geocode(ctx, lookup.AddressQuery{
		Address1: address.Address1,
		City:     address.City,
		State:    address.State,
		Zip:      address.Zip,
	})
	if err != nil {
		return nil, domain.NewDependencyError(domain.MsgGeocoder, err)
	}
	if location == nil {
		return nil, domain.NewValidationError(domain.MsgInvalidAddress)
	}
	return location, nil
}

func toAddress(req dto.AddressRequest) schema.Address {
	return schema.NewAddress(
		strings.TrimSpace(req.Address1),
		strings.TrimSpace(req.City),
		strings.TrimSpace(req.State),
		strings.TrimSpace(req.Zip),
		strings.TrimSpace(req.Country),
	)
}

func normalizeEmail(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	if !domain.ValidateEmail(strings.TrimSpace(*raw)) {
		return nil, domain.NewValidationError(domain.MsgInvalidEmail)
	}
	email := domain.NormalizeEmail(*raw)
	return &email, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func mapUniqueError(err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrPhoneTaken):
		return domain.NewConflictError(domain.MsgPhoneInUse)
	case errors.Is(err, domain.ErrEmailTaken):
		return domain.NewConflictError(domain.MsgEmailInUse)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
