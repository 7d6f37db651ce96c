// Package integration provides end-to-end tests for the Hemolink HTTP API.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemolink/hemolink/internal/auth"
	cachememory "github.com/hemolink/hemolink/internal/cache/memory"
	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/handler"
	"github.com/hemolink/hemolink/internal/lock"
	"github.com/hemolink/hemolink/internal/realtime"
	"github.com/hemolink/hemolink/internal/repository/memory"
	"github.com/hemolink/hemolink/internal/service"
	"github.com/hemolink/hemolink/internal/storage"
)

const testJWTSecret = "integration-test-secret-0123456789ab"

// testServer wires the full API against in-memory backends.
type testServer struct {
	srv    *httptest.Server
	tokens *auth.HMACTokenService
	users  *service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	repos := memory.NewRepositories(memory.NewStore())
	store := realtime.NewMemoryStore()
	t.Cleanup(store.Close)
	locker := lock.NewMemoryLocker()
	cache := cachememory.NewCache()

	backend, err := storage.NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)

	userService := service.NewUserService(repos.User, logger)
	donorService := service.NewDonorService(repos.DonorProfile, repos.User, store, nil, logger)
	requestService := service.NewRequestService(repos.Request, repos.DonorProfile, store, nil, logger)
	donationService := service.NewDonationService(repos.Donation, repos.DonorProfile, locker, store, nil, logger, service.DefaultDonationConfig())
	documentService := service.NewDocumentService(repos.Document, repos.User, backend, logger)
	deletionService := service.NewDeletionService(repos.DeletionRequest, repos.User, locker, nil, logger)
	notificationService := service.NewNotificationService(repos.Notification, store, nil, logger)
	bankService := service.NewBloodBankService(repos.BloodBank, logger)

	notifier := service.NewEventNotifier(notificationService, repos.DonorProfile, repos.Request, logger)
	notifier.Start(store)
	t.Cleanup(notifier.Close)

	tokens, err := auth.NewHMACTokenService(testJWTSecret, "hemolink-test", time.Hour)
	require.NoError(t, err)
	lookup := auth.NewCachedLookup(userService, cache, time.Minute)
	resolver := auth.NewResolver(lookup, time.Minute)

	router := handler.NewRouter(handler.RouterConfig{
		UserHandler:         handler.NewUserHandler(userService, logger),
		DonorHandler:        handler.NewDonorHandler(donorService, logger),
		RequestHandler:      handler.NewRequestHandler(requestService, logger),
		DonationHandler:     handler.NewDonationHandler(donationService, logger),
		DocumentHandler:     handler.NewDocumentHandler(documentService, logger),
		DeletionHandler:     handler.NewDeletionHandler(deletionService, logger),
		BloodBankHandler:    handler.NewBloodBankHandler(bankService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		AuthMiddleware:      auth.Middleware(tokens, resolver, auth.DefaultConfig()),
		Logger:              logger,
	})

	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, tokens: tokens, users: userService}
}

// createUser seeds a user and returns it with a valid bearer token.
func (ts *testServer) createUser(t *testing.T, username string, role domain.Role) (*domain.User, string) {
	t.Helper()

	uid := "uid-" + username
	out, err := ts.users.Create(context.Background(), service.CreateUserInput{
		Username:    username,
		Email:       username + "@example.com",
		Role:        role,
		FirebaseUID: uid,
	})
	require.NoError(t, err)

	token, err := ts.tokens.Issue(uid, out.User.Email, auth.TokenClaims{})
	require.NoError(t, err)
	return out.User, token
}

// do sends a JSON request and decodes the JSON response into out.
func (ts *testServer) do(t *testing.T, method, path, token string, body, out interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts := newTestServer(t)

	var body map[string]string
	resp := ts.do(t, http.MethodGet, "/health", "", nil, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestAnonymousRequestLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts := newTestServer(t)

	// Anyone can file an emergency request without an account
	var created domain.EmergencyRequest
	resp := ts.do(t, http.MethodPost, "/api/v1/requests", "", map[string]interface{}{
		"contactName":  "Passerby",
		"contactPhone": "0123456789",
		"bloodType":    "O-",
		"urgencyLevel": "critical",
		"hospitalName": "City General",
		"expiresAt":    time.Now().UTC().Add(12 * time.Hour).Format(time.RFC3339),
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, domain.RequestStatusPending, created.Status)
	assert.Nil(t, created.RequesterID)

	// And browse the open board
	var list struct {
		Requests   []*domain.EmergencyRequest `json:"requests"`
		TotalCount int64                      `json:"totalCount"`
	}
	resp = ts.do(t, http.MethodGet, "/api/v1/requests", "", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int64(1), list.TotalCount)

	// Validation failures report every bad field
	var apiErr handler.APIError
	resp = ts.do(t, http.MethodPost, "/api/v1/requests", "", map[string]interface{}{
		"contactPhone": "nope",
		"bloodType":    "Z+",
		"urgencyLevel": "critical",
		"expiresAt":    time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	}, &apiErr)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", apiErr.Error)
	assert.Contains(t, apiErr.Fields, "bloodType")
	assert.Contains(t, apiErr.Fields, "contactPhone")

	// Lifecycle endpoints require authentication
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/requests/%d/cancel", created.ID), "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDonorMatchAndDonationFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts := newTestServer(t)
	donor, donorToken := ts.createUser(t, "jordan", domain.RoleUser)
	_, adminToken := ts.createUser(t, "boss", domain.RoleAdmin)

	// Donor signs up
	var profile domain.DonorProfile
	resp := ts.do(t, http.MethodPost, "/api/v1/donors", donorToken, nil, &profile)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, donor.ID, profile.UserID)

	resp = ts.do(t, http.MethodPut, "/api/v1/donors/me/availability", donorToken,
		map[string]string{"status": "Available"}, &profile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.DonorStatusAvailable, profile.Status)

	// File a request and match the donor to it
	var request domain.EmergencyRequest
	resp = ts.do(t, http.MethodPost, "/api/v1/requests", "", map[string]interface{}{
		"contactName":  "Hospital desk",
		"contactPhone": "0123456789",
		"bloodType":    "O+",
		"urgencyLevel": "urgent",
		"expiresAt":    time.Now().UTC().Add(12 * time.Hour).Format(time.RFC3339),
	}, &request)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The caller volunteers themselves as the donor
	var matched domain.EmergencyRequest
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/requests/%d/match", request.ID), donorToken, nil, &matched)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.RequestStatusMatching, matched.Status)
	assert.Contains(t, matched.MatchedDonorIDs, donor.ID)

	// Admin records the donation against the request
	resp = ts.do(t, http.MethodPost, "/api/v1/admin/donations", adminToken, map[string]interface{}{
		"donorId":      donor.ID,
		"requestId":    request.ID,
		"bloodType":    "O+",
		"volumeMl":     450,
		"donationDate": time.Now().UTC().Format(time.RFC3339),
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Donor sees updated lifetime stats
	var stats struct {
		TotalDonations int     `json:"totalDonations"`
		LitersDonated  float64 `json:"litersDonated"`
		Badge          string  `json:"badge"`
	}
	resp = ts.do(t, http.MethodGet, "/api/v1/donations/stats", donorToken, nil, &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, stats.TotalDonations)
	assert.InDelta(t, 0.45, stats.LitersDonated, 0.001)

	// A second donation inside the interval is refused
	resp = ts.do(t, http.MethodPost, "/api/v1/admin/donations", adminToken, map[string]interface{}{
		"donorId":      donor.ID,
		"bloodType":    "O+",
		"volumeMl":     450,
		"donationDate": time.Now().UTC().Format(time.RFC3339),
	}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/requests/%d/fulfill", request.ID), donorToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminAccessControl(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts := newTestServer(t)
	_, userToken := ts.createUser(t, "casey", domain.RoleUser)
	_, adminToken := ts.createUser(t, "boss", domain.RoleAdmin)

	// Plain users cannot reach the admin surface
	resp := ts.do(t, http.MethodGet, "/api/v1/admin/users", userToken, nil, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// No token at all is unauthorized
	resp = ts.do(t, http.MethodGet, "/api/v1/admin/users", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A forged token is rejected
	resp = ts.do(t, http.MethodGet, "/api/v1/admin/users", "not-a-token", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Admins manage accounts
	var created domain.User
	resp = ts.do(t, http.MethodPost, "/api/v1/admin/users", adminToken, map[string]string{
		"username":  "volunteer1",
		"email":     "volunteer1@example.com",
		"role":      "volunteer",
		"bloodType": "A+",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, domain.RoleVolunteer, created.Role)
	assert.Empty(t, created.PasswordHash)

	var promoted domain.User
	resp = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/role", created.ID), adminToken,
		map[string]string{"role": "moderator"}, &promoted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.RoleModerator, promoted.Role)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/ban", created.ID), adminToken,
		map[string]string{"reason": "spam"}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestBloodBankInventory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts := newTestServer(t)
	_, adminToken := ts.createUser(t, "boss", domain.RoleAdmin)

	var bank domain.BloodBank
	resp := ts.do(t, http.MethodPost, "/api/v1/admin/blood-banks", adminToken, map[string]interface{}{
		"name":    "Central Blood Bank",
		"address": "1 Main St",
	}, &bank)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/blood-banks/%d/inventory", bank.ID), adminToken,
		map[string]interface{}{"bloodType": "AB-", "delta": 5}, &bank)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, bank.UnitsOf(domain.BloodABNegative))

	// Draining below zero conflicts with current stock
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/blood-banks/%d/inventory", bank.ID), adminToken,
		map[string]interface{}{"bloodType": "AB-", "delta": -6}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// The registry itself is public
	var banks []*domain.BloodBank
	resp = ts.do(t, http.MethodGet, "/api/v1/blood-banks", "", nil, &banks)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, banks, 1)
}

func TestNotificationDelivery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts := newTestServer(t)
	_, donorToken := ts.createUser(t, "dana", domain.RoleUser)

	resp := ts.do(t, http.MethodPost, "/api/v1/donors", donorToken, nil, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = ts.do(t, http.MethodPut, "/api/v1/donors/me/availability", donorToken,
		map[string]string{"status": "available"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// An anonymous emergency request fans out to available donors
	resp = ts.do(t, http.MethodPost, "/api/v1/requests", "", map[string]interface{}{
		"contactName":  "Pat",
		"contactPhone": "0123456789",
		"bloodType":    "O-",
		"urgencyLevel": "critical",
		"hospitalName": "City General",
		"expiresAt":    time.Now().Add(2 * time.Hour),
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Feed delivery is asynchronous
	var delivered *domain.Notification
	require.Eventually(t, func() bool {
		var list struct {
			Notifications []*domain.Notification `json:"notifications"`
		}
		resp := ts.do(t, http.MethodGet, "/api/v1/notifications", donorToken, nil, &list)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		for _, n := range list.Notifications {
			if n.Type == domain.NotificationEmergencyRequest {
				delivered = n
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond, "expected an emergency request notification")

	assert.Contains(t, delivered.Message, "O-")
	assert.Contains(t, delivered.Message, "City General")
	assert.False(t, delivered.Read)

	var count struct {
		UnreadCount int `json:"unreadCount"`
	}
	resp = ts.do(t, http.MethodGet, "/api/v1/notifications/unread-count", donorToken, nil, &count)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, count.UnreadCount)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/notifications/%d/read", delivered.ID), donorToken, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/notifications/unread-count", donorToken, nil, &count)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, count.UnreadCount)
}

func TestDeletionReviewWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts := newTestServer(t)
	_, userToken := ts.createUser(t, "casey", domain.RoleUser)
	admin, adminToken := ts.createUser(t, "boss", domain.RoleAdmin)
	_, secondAdminToken := ts.createUser(t, "chief", domain.RoleSuperAdmin)
	target, _ := ts.createUser(t, "target", domain.RoleUser)

	var deletion domain.DeletionRequest
	resp := ts.do(t, http.MethodPost, "/api/v1/admin/deletion-requests", adminToken, map[string]interface{}{
		"targetUserId": target.ID,
		"reason":       "duplicate account",
	}, &deletion)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, admin.ID, deletion.RequesterID)

	// The filer cannot review their own request
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/deletion-requests/%d/approve", deletion.ID), adminToken, nil, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// A different admin can
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/deletion-requests/%d/approve", deletion.ID), secondAdminToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Unread notifications start at zero
	var count struct {
		UnreadCount int `json:"unreadCount"`
	}
	resp = ts.do(t, http.MethodGet, "/api/v1/notifications/unread-count", userToken, nil, &count)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, count.UnreadCount)
}
