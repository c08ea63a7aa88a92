package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-lifecycle/internal/identity"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tokens := identity.NewTokenIssuer("test-secret", time.Hour)
	officer := model.User{UserID: "officer1", Role: model.RoleOfficer}
	valid, err := tokens.Issue(officer)
	require.NoError(t, err)

	foreign, err := identity.NewTokenIssuer("other-secret", time.Hour).Issue(officer)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedCaller model.Caller
	}{
		{"valid_token", "Bearer " + valid, http.StatusOK, model.Caller{UserID: "officer1", Role: model.RoleOfficer}},
		{"missing_header", "", http.StatusUnauthorized, model.Caller{}},
		{"wrong_scheme", "Basic " + valid, http.StatusUnauthorized, model.Caller{}},
		{"empty_token", "Bearer  ", http.StatusUnauthorized, model.Caller{}},
		{"garbage_token", "Bearer not.a.jwt", http.StatusUnauthorized, model.Caller{}},
		{"foreign_signature", "Bearer " + foreign, http.StatusUnauthorized, model.Caller{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.GET("/whoami", AuthMiddleware(tokens), func(c *gin.Context) {
				caller, ok := helpers.CallerFromContext(c)
				require.True(t, ok)
				c.JSON(http.StatusOK, caller)
			})

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedStatus != http.StatusOK {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				require.Equal(t, "authentication required", resp["message"])
				return
			}

			var caller model.Caller
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &caller))
			require.Equal(t, tc.expectedCaller, caller)
		})
	}
}

func TestPaymentKeyMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		configured     string
		presented      string
		expectedStatus int
	}{
		{"matching_key", "collector-key", "collector-key", http.StatusOK},
		{"missing_key", "collector-key", "", http.StatusUnauthorized},
		{"wrong_key", "collector-key", "collector-kez", http.StatusUnauthorized},
		{"prefix_of_key", "collector-key", "collector", http.StatusUnauthorized},
		{"unconfigured_rejects_empty", "", "", http.StatusUnauthorized},
		{"unconfigured_rejects_any", "", "collector-key", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.POST("/consume", PaymentKeyMiddleware(tc.configured), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/consume", nil)
			if tc.presented != "" {
				req.Header.Set(PaymentKeyHeader, tc.presented)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedStatus != http.StatusOK {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				require.Equal(t, "payment collaborator credential required", resp["message"])
			}
		})
	}
}

func TestRequestLoggerMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestLoggerMiddleware)
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusTeapot, "pong") })

	for _, path := range []string{"/ping", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.NotZero(t, w.Code)
	}
}
