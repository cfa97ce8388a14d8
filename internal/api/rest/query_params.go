package rest

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/votetripling/ambassador-api/internal/api/shared/constants"
	"github.com/votetripling/ambassador-api/internal/search"
)

// AdminSearchQueryParams holds query parameters for GET /admin/triplers
type AdminSearchQueryParams struct {
	Phone                       string `form:"phone"`
	Email                       string `form:"email"`
	FirstName                   string `form:"first_name"`
	LastName                    string `form:"last_name"`
	VoterID                     string `form:"voter_id"`
	Status                      string `form:"status"`
	IsAmbassadorAndHasConfirmed *bool  `form:"is_ambassador_and_has_confirmed"`
}

// SearchQueryParams holds query parameters for GET /triplers
type SearchQueryParams struct {
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
}

// SuggestQueryParams holds query parameters for GET /suggest-triplers.
// Zero values fall back to the configured defaults.
type SuggestQueryParams struct {
	MaxDistanceMeters float64 `form:"max_distance" binding:"gte=0"`
	Limit             int     `form:"limit" binding:"gte=0"`
}

// ParseAdminSearchQuery parses query parameters for GET /admin/triplers
func ParseAdminSearchQuery(c *gin.Context) (search.AdminFilter, error) {
	var params AdminSearchQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return search.AdminFilter{}, err
	}

	return search.AdminFilter{
		Phone:                       params.Phone,
		Email:                       params.Email,
		FirstName:                   params.FirstName,
		LastName:                    params.LastName,
		VoterID:                     params.VoterID,
		Status:                      params.Status,
		IsAmbassadorAndHasConfirmed: params.IsAmbassadorAndHasConfirmed,
	}, nil
}

// ParseSearchQuery parses query parameters for GET /triplers
func ParseSearchQuery(c *gin.Context) (*SearchQueryParams, error) {
	var params SearchQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if len(params.FirstName) > constants.MAX_QUERY_LENGTH || len(params.LastName) > constants.MAX_QUERY_LENGTH {
		return nil, fmt.Errorf("search terms must be at most %d characters", constants.MAX_QUERY_LENGTH)
	}

	return &params, nil
}

// ParseSuggestQuery parses query parameters for GET /suggest-triplers
func ParseSuggestQuery(c *gin.Context) (*SuggestQueryParams, error) {
	var params SuggestQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	return &params, nil
}
