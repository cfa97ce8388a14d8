package server_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votetripling/ambassador-api/internal/api/middleware"
	"github.com/votetripling/ambassador-api/internal/api/server"
	"github.com/votetripling/ambassador-api/internal/api/shared/dto"
	apierrors "github.com/votetripling/ambassador-api/internal/api/shared/errors"
	"github.com/votetripling/ambassador-api/internal/api/shared/types"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/mocks"
	"github.com/votetripling/ambassador-api/internal/search"
)

const adminKey = "admin-key"

type routerFixture struct {
	exec   *mocks.MockAPIExecutor
	router *gin.Engine
}

func newRouter(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockAPIExecutor(ctrl)
	router := server.NewRouter(server.Config{}, exec, middleware.AuthConfig{APIKeys: []string{adminKey}})
	return &routerFixture{exec: exec, router: router}
}

func (f *routerFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ApiKey "+adminKey)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHealthCheck(t *testing.T) {
	f := newRouter(t)

	f.exec.EXPECT().Health(gomock.Any()).Return(nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	f.exec.EXPECT().Health(gomock.Any()).Return(errors.New("db down"))
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	f := newRouter(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/triplers?first_name=ann", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, decodeError(t, w).Code)
}

func TestRoutes_AmbassadorOnly(t *testing.T) {
	f := newRouter(t)

	// admins authenticate by api key and cannot reach ambassador routes
	for _, path := range []string{"/api/v1/suggest-triplers", "/api/v1/triplers-limit", "/api/v1/triplers/t1"} {
		w := f.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   apierrors.ErrorCode
	}{
		{domain.NewValidationError(domain.MsgInvalidPhone), http.StatusBadRequest, apierrors.ErrCodeValidationFailed},
		{domain.NewConflictError(domain.MsgAlreadyClaimed), http.StatusConflict, apierrors.ErrCodeConflict},
		{domain.NewNotFoundError(domain.MsgInvalidTripler), http.StatusNotFound, apierrors.ErrCodeNotFound},
		{domain.NewStateError(domain.MsgInvalidStatus), http.StatusConflict, apierrors.ErrCodeInvalidState},
		{domain.NewFraudBlockError(domain.MsgFraudCarrier), http.StatusForbidden, apierrors.ErrCodeFraudBlocked},
		{domain.NewDependencyError(domain.MsgGeocoder, errors.New("timeout")), http.StatusBadGateway, apierrors.ErrCodeDependencyFailure},
		{errors.New("boom"), http.StatusInternalServerError, apierrors.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			f := newRouter(t)
			f.exec.EXPECT().ConfirmTripler(gomock.Any(), "t1").Return(nil, tt.err)

			w := f.do(http.MethodPut, "/api/v1/triplers/t1/confirm", nil)
			assert.Equal(t, tt.status, w.Code)
			apiErr := decodeError(t, w)
			assert.Equal(t, tt.code, apiErr.Code)
			if tt.code == apierrors.ErrCodeInternalError {
				assert.NotContains(t, apiErr.Message, "boom")
			}
		})
	}
}

func TestCreateTripler(t *testing.T) {
	f := newRouter(t)

	req := dto.CreateTriplerRequest{
		FirstName: "Ann",
		Phone:     "+12125550101",
		Address:   dto.AddressRequest{Address1: "1 Main St", City: "Austin", State: "TX", Zip: "78701"},
	}
	f.exec.EXPECT().CreateTripler(gomock.Any(), req).Return(&dto.TriplerResponse{ID: "t1", FirstName: "Ann"}, nil)

	w := f.do(http.MethodPost, "/api/v1/triplers", req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.TriplerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "t1", resp.ID)
}

func TestCreateTripler_InvalidBody(t *testing.T) {
	f := newRouter(t)

	// missing address
	w := f.do(http.MethodPost, "/api/v1/triplers", map[string]string{"first_name": "Ann", "phone": "+12125550101"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.ErrCodeValidationFailed, decodeError(t, w).Code)

	// blank name
	w = f.do(http.MethodPost, "/api/v1/triplers", dto.CreateTriplerRequest{
		FirstName: "   ",
		Phone:     "+12125550101",
		Address:   dto.AddressRequest{Address1: "1 Main St", City: "Austin", State: "TX", Zip: "78701"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminSearchTriplers_QueryParams(t *testing.T) {
	f := newRouter(t)

	yes := true
	f.exec.EXPECT().AdminSearchTriplers(gomock.Any(), search.AdminFilter{
		Phone:                       "2125550101",
		LastName:                    "obrien",
		Status:                      "pending",
		IsAmbassadorAndHasConfirmed: &yes,
	}).Return(&dto.TriplerListResponse{Triplers: []dto.TriplerResponse{}}, nil)

	w := f.do(http.MethodGet, "/api/v1/admin/triplers?phone=2125550101&last_name=obrien&status=pending&is_ambassador_and_has_confirmed=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchTriplers_AdminPrincipal(t *testing.T) {
	f := newRouter(t)

	f.exec.EXPECT().
		SearchTriplers(gomock.Any(), types.Principal{Role: types.RoleAdmin}, "Ann", "").
		Return(&dto.TriplerMatchListResponse{Triplers: []dto.TriplerMatchResponse{}}, nil)

	w := f.do(http.MethodGet, "/api/v1/triplers?first_name=Ann", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"triplers":[]}`, w.Body.String())
}

func TestDetachTripler_Admin(t *testing.T) {
	f := newRouter(t)

	f.exec.EXPECT().DetachTripler(gomock.Any(), types.Principal{Role: types.RoleAdmin}, "t1").Return(nil)

	w := f.do(http.MethodDelete, "/api/v1/triplers/t1/claim", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteTripler_NotFound(t *testing.T) {
	f := newRouter(t)

	f.exec.EXPECT().DeleteTripler(gomock.Any(), "t1").Return(domain.NewNotFoundError(domain.MsgInvalidTripler))

	w := f.do(http.MethodDelete, "/api/v1/triplers/t1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.MsgInvalidTripler, decodeError(t, w).Message)
}
