package dto

import (
	"fmt"
	"strings"

	"github.com/votetripling/ambassador-api/internal/api/shared/constants"
	apierrors "github.com/votetripling/ambassador-api/internal/api/shared/errors"
	"github.com/votetripling/ambassador-api/internal/domain"
)

// AddressRequest represents a postal address in a request body
type AddressRequest struct {
	Address1 string `json:"address1" binding:"required"`
	City     string `json:"city" binding:"required"`
	State    string `json:"state" binding:"required"`
	Zip      string `json:"zip" binding:"required"`
	Country  string `json:"country"`
}

// CreateTriplerRequest represents the request body for creating a tripler
type CreateTriplerRequest struct {
	FirstName string         `json:"first_name" binding:"required"`
	LastName  *string        `json:"last_name"`
	Phone     string         `json:"phone" binding:"required"`
	Email     *string        `json:"email"`
	VoterID   *string        `json:"voter_id"`
	Address   AddressRequest `json:"address" binding:"required"`
}

// Validate validates the request body
func (r *CreateTriplerRequest) Validate() error {
	if err := validateName("first_name", r.FirstName); err != nil {
		return err
	}
	if r.LastName != nil {
		if err := validateName("last_name", *r.LastName); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTriplerRequest represents the request body for updating a tripler; omitted fields are left unchanged
type UpdateTriplerRequest struct {
	FirstName *string         `json:"first_name"`
	LastName  *string         `json:"last_name"`
	Phone     *string         `json:"phone"`
	Email     *string         `json:"email"`
	VoterID   *string         `json:"voter_id"`
	Address   *AddressRequest `json:"address"`
}

// Validate validates the request body
func (r *UpdateTriplerRequest) Validate() error {
	if r.FirstName != nil {
		if err := validateName("first_name", *r.FirstName); err != nil {
			return err
		}
	}
	if r.LastName != nil {
		if err := validateName("last_name", *r.LastName); err != nil {
			return err
		}
	}
	if r.Address != nil && (r.Address.Address1 == "" || r.Address.City == "" || r.Address.State == "" || r.Address.Zip == "") {
		return apierrors.NewValidationError("address requires address1, city, state and zip")
	}
	return nil
}

// CreateAmbassadorRequest represents the request body for creating an ambassador
type CreateAmbassadorRequest struct {
	FirstName string         `json:"first_name" binding:"required"`
	LastName  *string        `json:"last_name"`
	Phone     string         `json:"phone" binding:"required"`
	Email     *string        `json:"email"`
	Address   AddressRequest `json:"address" binding:"required"`
}

// Validate validates the request body
func (r *CreateAmbassadorRequest) Validate() error {
	if err := validateName("first_name", r.FirstName); err != nil {
		return err
	}
	if r.LastName != nil {
		return validateName("last_name", *r.LastName)
	}
	return nil
}

// TripleeRequest represents one pledged triplee
type TripleeRequest struct {
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name"`
	Housemate    bool   `json:"housemate"`
	Relationship string `json:"relationship"`
}

// StartConfirmationRequest represents the request body for starting a tripler confirmation
type StartConfirmationRequest struct {
	Phone    string           `json:"phone"`
	Triplees []TripleeRequest `json:"triplees" binding:"dive"`
}

// Validate validates the request body
func (r *StartConfirmationRequest) Validate() error {
	if len(r.Triplees) != domain.RequiredTriplees {
		return apierrors.NewValidationError(domain.MsgInsufficientTriple)
	}
	return nil
}

// ToTriplees converts the request triplees to domain values
func (r *StartConfirmationRequest) ToTriplees() []domain.Triplee {
	out := make([]domain.Triplee, len(r.Triplees))
	for i, t := range r.Triplees {
		out[i] = domain.Triplee{
			FirstName:    strings.TrimSpace(t.FirstName),
			LastName:     strings.TrimSpace(t.LastName),
			Housemate:    t.Housemate,
			Relationship: strings.TrimSpace(t.Relationship),
		}
	}
	return out
}

// RemindTriplerRequest represents the request body for reminding a pending tripler
type RemindTriplerRequest struct {
	Phone string `json:"phone"`
}

func validateName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apierrors.NewValidationError(fmt.Sprintf("%s is required", field))
	}
	if len(value) > constants.MAX_NAME_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("%s must be at most %d characters", field, constants.MAX_NAME_LENGTH))
	}
	return nil
}
