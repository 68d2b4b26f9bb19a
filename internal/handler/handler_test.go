package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estatehub/service-scheduling/internal/application"
	"github.com/estatehub/service-scheduling/internal/dispatch"
	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/repository/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type discardQueue struct{}

func (discardQueue) Enqueue(context.Context, dispatch.Task) error { return nil }

type testServer struct {
	router    *gin.Engine
	jwt       *auth.JWTManager
	providers *memory.ProviderRepository
	bookings  *memory.BookingRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	jwt := auth.NewJWTManager("handler-test-secret", time.Hour, time.Hour)

	providers := memory.NewProviderRepository()
	windows := memory.NewWindowRepository()
	bookings := memory.NewBookingRepository()
	deliverables := memory.NewDeliverableRepository()

	clock := application.Clock(application.SystemClock)
	checker := application.NewConflictChecker(bookings)
	resolver := application.NewAssignmentResolver(providers, windows, bookings, checker,
		bookingDomain.NewStandardPricingStrategy(), clock, log)
	lifecycle := application.NewStatusLifecycleManager(bookings, providers, discardQueue{},
		application.NewEventPublisher(nil, "booking.events", log), clock, log)
	bookingSvc := application.NewBookingService(bookings, resolver, lifecycle, nil, log)

	router := gin.New()
	root := router.Group("")
	NewBookingHandler(bookingSvc).RegisterRoutes(root, jwt)
	NewDeliverableHandler(application.NewDeliverableService(deliverables, bookings, log)).RegisterRoutes(root, jwt)
	NewAvailabilityHandler(application.NewAvailabilityService(windows, providers, clock, log)).RegisterRoutes(root, jwt)
	NewProviderHandler(application.NewProviderService(providers, log)).RegisterRoutes(root, jwt)
	NewAdminBookingHandler(bookingSvc).RegisterRoutes(root, jwt)

	return &testServer{router: router, jwt: jwt, providers: providers, bookings: bookings}
}

func (s *testServer) token(t *testing.T, role auth.Role, providerID *uuid.UUID) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(uuid.New(), role, providerID)
	require.NoError(t, err)
	return tok
}

func (s *testServer) addProvider(t *testing.T) *providerDomain.Provider {
	t.Helper()
	p, err := providerDomain.NewProvider(uuid.New(), providerDomain.KindPhotographer, providerDomain.Profile{
		Name: "Nour", ServiceAreas: []string{"Cairo"}, HourlyRateCents: 30000,
	})
	require.NoError(t, err)
	require.NoError(t, s.providers.Save(context.Background(), p))
	return p
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func TestBookings_RequireToken(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(t, http.MethodGet, "/api/v1/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestCreateBooking_ConflictReturnsDetails(t *testing.T) {
	s := newTestServer(t)
	p := s.addProvider(t)
	agent := s.token(t, auth.RoleAgent, nil)
	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour)
	lead := uuid.New()

	w, body := s.do(t, http.MethodPost, "/api/v1/bookings", agent, gin.H{
		"provider_id": p.ID(), "lead_id": lead, "scheduled_time": start, "duration_minutes": 120,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["confirmation_number"])
	assert.Equal(t, "requested", data["booking"].(map[string]interface{})["status"])

	w, body = s.do(t, http.MethodPost, "/api/v1/bookings", agent, gin.H{
		"provider_id": p.ID(), "lead_id": lead, "scheduled_time": start.Add(time.Hour), "duration_minutes": 30,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SCHEDULING_CONFLICT", errorCode(body))
	details, ok := body["conflict_details"].([]interface{})
	require.True(t, ok, "conflict_details missing: %s", w.Body.String())
	assert.Len(t, details, 1)

	w, _ = s.do(t, http.MethodPost, "/api/v1/bookings", agent, gin.H{
		"provider_id": p.ID(), "lead_id": lead, "scheduled_time": start.Add(2 * time.Hour), "duration_minutes": 60,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	p := s.addProvider(t)
	agent := s.token(t, auth.RoleAgent, nil)
	future := time.Now().UTC().Add(24 * time.Hour)

	tests := []struct {
		name string
		body gin.H
	}{
		{"both subjects", gin.H{"provider_id": p.ID(), "lead_id": uuid.New(), "property_id": uuid.New(), "scheduled_time": future, "duration_minutes": 30}},
		{"past time", gin.H{"provider_id": p.ID(), "lead_id": uuid.New(), "scheduled_time": time.Now().Add(-time.Hour), "duration_minutes": 30}},
		{"missing duration", gin.H{"provider_id": p.ID(), "lead_id": uuid.New(), "scheduled_time": future}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, http.MethodPost, "/api/v1/bookings", agent, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
		})
	}
}

func TestCreateBooking_NoProviderAvailable(t *testing.T) {
	s := newTestServer(t)
	agent := s.token(t, auth.RoleAgent, nil)
	w, body := s.do(t, http.MethodPost, "/api/v1/bookings", agent, gin.H{
		"lead_id": uuid.New(), "auto_assign": true, "location": "Giza",
		"scheduled_time": time.Now().UTC().Add(24 * time.Hour), "duration_minutes": 60,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_PROVIDER_AVAILABLE", errorCode(body))
}

func TestUpdateBooking_IllegalTransition(t *testing.T) {
	s := newTestServer(t)
	p := s.addProvider(t)
	pid := p.ID()
	agent := s.token(t, auth.RoleAgent, nil)
	providerToken := s.token(t, auth.RoleProvider, &pid)

	w, body := s.do(t, http.MethodPost, "/api/v1/bookings", agent, gin.H{
		"provider_id": pid, "lead_id": uuid.New(),
		"scheduled_time": time.Now().UTC().Add(24 * time.Hour), "duration_minutes": 60,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := body["data"].(map[string]interface{})["booking"].(map[string]interface{})["id"]

	w, body = s.do(t, http.MethodPut, "/api/v1/bookings", providerToken, gin.H{"booking_id": bookingID, "status": "completed"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))

	w, _ = s.do(t, http.MethodPut, "/api/v1/bookings", providerToken, gin.H{"booking_id": bookingID, "status": "assigned"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPut, "/api/v1/bookings", agent, gin.H{"booking_id": bookingID, "status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAvailability_UpsertAndRead(t *testing.T) {
	s := newTestServer(t)
	p := s.addProvider(t)
	pid := p.ID()
	providerToken := s.token(t, auth.RoleProvider, &pid)
	stranger := uuid.New()
	otherToken := s.token(t, auth.RoleProvider, &stranger)

	w, body := s.do(t, http.MethodPost, "/api/v1/availability", providerToken, gin.H{
		"provider_id": pid, "day_of_week": 1, "start_time": "9am", "end_time": "17:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))

	w, _ = s.do(t, http.MethodPost, "/api/v1/availability", otherToken, gin.H{
		"provider_id": pid, "day_of_week": 1, "start_time": "09:00", "end_time": "17:00",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/availability", providerToken, gin.H{
		"provider_id": pid, "day_of_week": 1, "start_time": "09:00", "end_time": "17:00",
		"break_start_time": "12:00", "break_end_time": "13:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = s.do(t, http.MethodGet, "/api/v1/availability?provider_id="+pid.String(), otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["availability"], 1)
	assert.Len(t, data["weekly_schedule"], 7)
	assert.Contains(t, data, "current_status")

	w, _ = s.do(t, http.MethodGet, "/api/v1/availability?day_of_week=x", otherToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/availability", providerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", s.token(t, auth.RoleAgent, nil), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := s.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", s.token(t, auth.RoleAdmin, nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["data"], "by_status")
}

func TestAdminBookings_FilterAndLookupByNumber(t *testing.T) {
	s := newTestServer(t)
	p := s.addProvider(t)
	agent := s.token(t, auth.RoleAgent, nil)
	admin := s.token(t, auth.RoleAdmin, nil)
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)

	w, body := s.do(t, http.MethodPost, "/api/v1/bookings", agent, gin.H{
		"provider_id": p.ID(), "property_id": uuid.New(), "scheduled_time": start, "duration_minutes": 45,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	number := body["data"].(map[string]interface{})["confirmation_number"].(string)

	w, body = s.do(t, http.MethodGet, "/api/v1/admin/bookings?status=requested&provider_id="+p.ID().String(), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, page["total"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/bookings?status=completed", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/bookings?from=2030-01-02T00:00:00Z&to=2030-01-01T00:00:00Z", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodGet, "/api/v1/admin/bookings/number/"+strings.ToLower(number), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, number, body["data"].(map[string]interface{})["booking_number"])

	w, body = s.do(t, http.MethodGet, "/api/v1/admin/bookings/number/BK-NOPE00", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query       string
		page, limit int
	}{
		{"", 1, 20},
		{"?page=3&limit=50", 3, 50},
		{"?page=-1&limit=0", 1, 20},
		{"?limit=1000", 1, 100},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		page, limit := parsePagination(c)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.limit, limit, tt.query)
	}
}
