package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/api/middleware"
	"github.com/votetripling/ambassador-api/internal/api/shared/constants"
	"github.com/votetripling/ambassador-api/internal/api/shared/dto"
	apierrors "github.com/votetripling/ambassador-api/internal/api/shared/errors"
	"github.com/votetripling/ambassador-api/internal/api/shared/executor"
	"github.com/votetripling/ambassador-api/internal/api/shared/types"
	"github.com/votetripling/ambassador-api/internal/logger"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// CreateTripler creates an unconfirmed tripler (admin)
	// POST /api/v1/triplers
	CreateTripler(c *gin.Context)

	// UpdateTripler updates a tripler's profile (admin)
	// PUT /api/v1/triplers/:id
	UpdateTripler(c *gin.Context)

	// DeleteTripler deletes a tripler (admin)
	// DELETE /api/v1/triplers/:id
	DeleteTripler(c *gin.Context)

	// ConfirmTripler confirms a pending tripler (admin)
	// PUT /api/v1/triplers/:id/confirm
	ConfirmTripler(c *gin.Context)

	// ReconfirmTripler resends the reconfirmation message (admin)
	// PUT /api/v1/triplers/:id/reconfirm
	ReconfirmTripler(c *gin.Context)

	// AdminSearchTriplers filters triplers (admin)
	// GET /api/v1/admin/triplers?phone=<phone>&email=<email>&first_name=<name>&last_name=<name>&voter_id=<id>&status=<status>&is_ambassador_and_has_confirmed=<bool>
	AdminSearchTriplers(c *gin.Context)

	// CreateAmbassador creates an ambassador (admin)
	// POST /api/v1/ambassadors
	CreateAmbassador(c *gin.Context)

	// SearchTriplers runs the fuzzy name search
	// GET /api/v1/triplers?first_name=<name>&last_name=<name>
	SearchTriplers(c *gin.Context)

	// SuggestTriplers lists unclaimed triplers near the caller
	// GET /api/v1/suggest-triplers?max_distance=<meters>&limit=<limit>
	SuggestTriplers(c *gin.Context)

	// GetTripler retrieves a tripler claimed by the caller
	// GET /api/v1/triplers/:id
	GetTripler(c *gin.Context)

	// GetTriplerLimit returns the claim limit
	// GET /api/v1/triplers-limit
	GetTriplerLimit(c *gin.Context)

	// ClaimTripler claims a tripler for the caller
	// POST /api/v1/triplers/:id/claim
	ClaimTripler(c *gin.Context)

	// DetachTripler releases a claimed tripler
	// DELETE /api/v1/triplers/:id/claim
	DetachTripler(c *gin.Context)

	// StartConfirmation sends the confirmation request to a claimed tripler
	// PUT /api/v1/triplers/:id/start-confirm
	StartConfirmation(c *gin.Context)

	// RemindTripler resends the confirmation request
	// PUT /api/v1/triplers/:id/remind
	RemindTripler(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(exec executor.Executor) Handler {
	return &handler{
		executor: exec,
	}
}

func (h *handler) CreateTripler(c *gin.Context) {
	var req dto.CreateTriplerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err)
		return
	}

	tripler, err := h.executor.CreateTripler(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tripler)
}

func (h *handler) UpdateTripler(c *gin.Context) {
	triplerID, ok := triplerParam(c)
	if !ok {
		return
	}

	var req dto.UpdateTriplerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err)
		return
	}

	tripler, err := h.executor.UpdateTripler(c.Request.Context(), triplerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tripler)
}

func (h *handler) DeleteTripler(c *gin.Context) {
	triplerID, ok := triplerParam(c)
	if !ok {
		return
	}

	if err := h.executor.DeleteTripler(c.Request.Context(), triplerID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) ConfirmTripler(c *gin.Context) {
	triplerID, ok := triplerParam(c)
	if !ok {
		return
	}

	tripler, err := h.executor.ConfirmTripler(c.Request.Context(), triplerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tripler)
}

func (h *handler) ReconfirmTripler(c *gin.Context) {
	triplerID, ok := triplerParam(c)
	if !ok {
		return
	}

	if err := h.executor.ReconfirmTripler(c.Request.Context(), triplerID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) AdminSearchTriplers(c *gin.Context) {
	filter, err := ParseAdminSearchQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	triplers, err := h.executor.AdminSearchTriplers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, triplers)
}

func (h *handler) CreateAmbassador(c *gin.Context) {
	var req dto.CreateAmbassadorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err)
		return
	}

	ambassador, err := h.executor.CreateAmbassador(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ambassador)
}

func (h *handler) SearchTriplers(c *gin.Context) {
	principal, ok := principalOf(c)
	if !ok {
		return
	}

	query, err := ParseSearchQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	matches, err := h.executor.SearchTriplers(c.Request.Context(), principal, query.FirstName, query.LastName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, matches)
}

func (h *handler) SuggestTriplers(c *gin.Context) {
	principal, ok := principalOf(c)
	if !ok {
		return
	}

	query, err := ParseSuggestQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	suggested, err := h.executor.SuggestTriplers(c.Request.Context(), principal.AmbassadorID, query.MaxDistanceMeters, query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, suggested)
}

func (h *handler) GetTripler(c *gin.Context) {
	principal, ok := principalOf(c)
	if !ok {
		return
	}
	triplerID, ok := triplerParam(c)
	if !ok {
		return
	}

	tripler, err := h.executor.GetTripler(c.Request.Context(), principal.AmbassadorID, triplerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tripler)
}

func (h *handler) GetTriplerLimit(c *gin.Context) {
	c.JSON(http.StatusOK, h.executor.GetTriplerLimit(c.Request.Context()))
}

func (h *handler) ClaimTripler(c *gin.Context) {
	principal, ok := principalOf(c)
	if !ok {
		return
	}
	triplerID, ok := triplerParam(c)
	if !ok {
		return
	}

	claim, err := h.executor.ClaimTripler(c.Request.Context(), principal.AmbassadorID, triplerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, claim)
}

func (h *handler) DetachTripler(c *gin.Context) {
	principal, ok := principalOf(c)
	if !ok {
		return
	}
	triplerID, ok := triplerParam(c)
	if !ok {
		return
	}

	if err := h.executor.DetachTripler(c.Request.Context(), principal, triplerID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) StartConfirmation(c *gin.Context) {
	principal, ok := principalOf(c)
	if !ok {
		return
	}
	triplerID, ok := triplerParam(c)
	if !ok {
		return
	}

	var req dto.StartConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err)
		return
	}

	tripler, err := h.executor.StartConfirmation(c.Request.Context(), principal.AmbassadorID, triplerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tripler)
}

func (h *handler) RemindTripler(c *gin.Context) {
	principal, ok := principalOf(c)
	if !ok {
		return
	}
	triplerID, ok := triplerParam(c)
	if !ok {
		return
	}

	// The body is optional
	var req dto.RemindTriplerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	}

	tripler, err := h.executor.RemindTripler(c.Request.Context(), principal.AmbassadorID, triplerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tripler)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	if err := h.executor.Health(c.Request.Context()); err != nil {
		logger.WarnCtx(c.Request.Context(), "Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": constants.SERVICE_NAME,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": constants.SERVICE_NAME,
	})
}

func triplerParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondBadRequest(c, "Tripler ID is required")
		return "", false
	}
	return id, true
}

func principalOf(c *gin.Context) (types.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierrors.NewUnauthorizedError("Authentication required"))
		return types.Principal{}, false
	}
	return principal, true
}
