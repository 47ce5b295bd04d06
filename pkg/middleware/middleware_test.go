package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/inventory-ledger/pkg/errors"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	Setup(router, DefaultConfig("test", logging.NewNop()))
	return router
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestID(t *testing.T) {
	router := newTestRouter()
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
		assert.Equal(t, rec.Header().Get(HeaderRequestID), rec.Body.String())
		assert.Equal(t, rec.Header().Get(HeaderRequestID), rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, "req-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, "req-1", rec.Body.String())
	})
}

func TestTenantAuth(t *testing.T) {
	router := newTestRouter()
	router.GET("/scoped", RequireTenantAuth(), func(c *gin.Context) {
		tc, err := tenant.FromContext(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, tc)
	})

	t.Run("missing tenant", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scoped", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "MISSING_TENANT_CONTEXT", decodeError(t, rec).Code)
	})

	t.Run("headers copied to context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
		req.Header.Set(HeaderTenantID, "t1")
		req.Header.Set(HeaderRestaurantID, "r1")
		req.Header.Set(HeaderActorID, "chef")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var tc tenant.Context
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tc))
		assert.Equal(t, tenant.Context{TenantID: "t1", RestaurantID: "r1", ActorID: "chef"}, tc)
	})

	t.Run("optional falls back to default", func(t *testing.T) {
		r := newTestRouter()
		r.GET("/open", TenantAuth(TenantAuthConfig{DefaultTenantID: tenant.DefaultTenantID}), func(c *gin.Context) {
			c.String(http.StatusOK, tenant.GetTenantID(c.Request.Context()))
		})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
		assert.Equal(t, tenant.DefaultTenantID, rec.Body.String())
	})
}

func TestErrorRendering(t *testing.T) {
	router := newTestRouter()
	router.GET("/conflict", func(c *gin.Context) {
		NewErrorResponder(c, logging.NewNop()).RespondWithError(
			errors.ErrUnitIncompatible("lot unit kg is not compatible with L").WithDetail("lotId", "l1"))
	})
	router.GET("/attached", func(c *gin.Context) {
		_ = c.Error(errors.ErrNotFoundWithID("lot", "l9"))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/conflict", http.StatusConflict, errors.CodeUnitIncompatible},
		{"/attached", http.StatusNotFound, errors.CodeNotFound},
		{"/panic", http.StatusInternalServerError, errors.CodeInternalError},
		{"/nowhere", http.StatusNotFound, "ROUTE_NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.Equal(t, tc.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter()
	router.GET("/health", HealthCheck("test"))
	router.GET("/ready", ReadinessCheck("test", func(ctx context.Context) error {
		return fmt.Errorf("mongo down")
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "mongo down")
}

type sampleRequest struct {
	Name  string `json:"name" binding:"not_blank"`
	Unit  string `json:"unit" binding:"required,test_unit"`
	Items []struct {
		Qty float64 `json:"qty" binding:"gt=0"`
	} `json:"items" binding:"required,min=1,dive"`
}

func TestBindAndValidate(t *testing.T) {
	require.NoError(t, RegisterValidation("test_unit", "must be a known unit", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "kg"
	}))

	router := newTestRouter()
	router.POST("/bind", func(c *gin.Context) {
		var req sampleRequest
		if appErr := BindAndValidate(c, &req); appErr != nil {
			NewErrorResponder(c, logging.NewNop()).RespondWithAppError(appErr)
			return
		}
		c.Status(http.StatusNoContent)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"name":"flour","unit":"kg","items":[{"qty":1}]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = post(`{"name":" ","unit":"oz","items":[{"qty":0}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, errors.CodeValidationError, body.Code)
	assert.Equal(t, "is required", body.Details["name"])
	assert.Equal(t, "must be a known unit", body.Details["unit"])
	assert.Equal(t, "must be greater than 0", body.Details["items[0].qty"])

	rec = post(`{"name":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeBadRequest, decodeError(t, rec).Code)
}
