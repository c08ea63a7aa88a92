package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-lifecycle/internal/auctionService"
	"auction-lifecycle/internal/events"
	"auction-lifecycle/internal/identity"
	"auction-lifecycle/internal/repository"
	"auction-lifecycle/internal/server"
	"auction-lifecycle/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@lelang.test"
	adminPassword = "admin-secret"
	paymentKey    = "integration-payment-key"
)

// testEnv is a full application wired over the in-memory store
type testEnv struct {
	router *gin.Engine
	repo   *repository.MemoryRepo
	bus    *events.Bus
}

// SetupTestEnv initializes the router with an in-memory repository and a seeded admin.
func SetupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	bus := events.NewBus()
	t.Cleanup(bus.Close)

	auctionSvc := auction.NewAuctionService(repo, bus,
		auction.WithBackendTimeout(time.Second),
		auction.WithMaxAttempts(50),
	)
	tokens := identity.NewTokenIssuer("integration-secret", time.Hour)
	identitySvc := identity.NewIdentityService(repo, tokens)
	require.NoError(t, identitySvc.EnsureAdmin(context.Background(), adminEmail, adminPassword))

	return &testEnv{
		router: server.SetupRouter(auctionSvc, identitySvc, tokens, bus, paymentKey),
		repo:   repo,
		bus:    bus,
	}
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses the envelope.
// A string body is sent verbatim.
func (e *testEnv) ExecuteRequestAndParse(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return e.executeWithHeaders(t, method, url, headers, body)
}

// ConsumePayment redeems an authorization token as the payment collaborator.
func (e *testEnv) ConsumePayment(t *testing.T, token, key string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	headers := map[string]string{}
	if key != "" {
		headers[server.PaymentKeyHeader] = key
	}
	return e.executeWithHeaders(t, http.MethodPost, "/payments/"+token+"/consume", headers, nil)
}

func (e *testEnv) executeWithHeaders(t *testing.T, method, url string, headers map[string]string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// data returns the envelope payload as an object
func data(resp map[string]any) map[string]any {
	d, _ := resp["data"].(map[string]any)
	return d
}

// RegisterAndLogin creates a user account and returns its id and bearer token.
func (e *testEnv) RegisterAndLogin(t *testing.T, email, name string) (string, string) {
	t.Helper()

	resp, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/auth/register", "", helpers.RegisterRequest{
		Email:    email,
		Name:     name,
		Password: "password1",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp)
	userID := data(resp)["user_id"].(string)

	return userID, e.Login(t, email, "password1")
}

// Login returns a fresh bearer token.
func (e *testEnv) Login(t *testing.T, email, password string) string {
	t.Helper()

	resp, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/auth/login", "", helpers.LoginRequest{
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusOK, w.Code, resp)
	return data(resp)["token"].(string)
}

// NewOfficer registers a user, promotes it through the admin API and logs it in again.
func (e *testEnv) NewOfficer(t *testing.T, email string) (string, string) {
	t.Helper()

	userID, _ := e.RegisterAndLogin(t, email, "Officer")
	adminToken := e.Login(t, adminEmail, adminPassword)

	resp, w := e.ExecuteRequestAndParse(t, http.MethodPut, "/users/"+userID+"/role", adminToken,
		helpers.ChangeRoleRequest{Role: "officer"})
	require.Equal(t, http.StatusOK, w.Code, resp)

	return userID, e.Login(t, email, "password1")
}

// OpenListing submits a listing as owner and approves it as officer.
func (e *testEnv) OpenListing(t *testing.T, ownerToken, officerToken string, maxPrice float64) string {
	t.Helper()

	resp, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/listings", ownerToken, helpers.SubmitListingRequest{
		Name:        "Antique clock",
		Description: "Working pendulum clock",
		MaxPrice:    maxPrice,
	})
	require.Equal(t, http.StatusCreated, w.Code, resp)
	listingID := data(resp)["listing_id"].(string)

	resp, w = e.ExecuteRequestAndParse(t, http.MethodPost, "/listings/"+listingID+"/review", officerToken,
		helpers.ReviewRequest{Decision: "approve"})
	require.Equal(t, http.StatusOK, w.Code, resp)

	return listingID
}
