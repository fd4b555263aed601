package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/Domenick1991/charterbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Reserve(ctx context.Context, input booking.ReserveInput) (*booking.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Reservation), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id))
}

func (m *MockBookingUseCase) Confirm(ctx context.Context, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id))
}

func (m *MockBookingUseCase) Get(ctx context.Context, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id))
}

func (m *MockBookingUseCase) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListByFlight(ctx context.Context, flightID string) ([]domain.Booking, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Relink(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookingUseCase) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

// stubAuth accepts the tokens it knows.
type stubAuth map[string]domain.Identity

func (s stubAuth) Verify(raw string) (domain.Identity, error) {
	id, ok := s[raw]
	if !ok {
		return domain.Identity{}, errors.New("unknown token")
	}
	return id, nil
}

var testAuth = stubAuth{
	"u1-token":    {Subject: "U1", Role: domain.RoleCustomer},
	"u2-token":    {Subject: "U2", Role: domain.RoleCustomer},
	"admin-token": {Subject: "A1", Role: domain.RoleAdmin},
}

func newTestRouter(bookings booking.BookingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{Bookings: bookings, Flights: &MockFlightUseCase{}, Auth: testAuth})
}

func do(router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func pendingBooking(id, userID string) *domain.Booking {
	return &domain.Booking{
		ID: id, FlightID: "CH101", UserID: userID, FleetID: "PK-ABC",
		Passengers: 5, TotalPrice: 500000,
		Status: domain.BookingStatusPending, PaymentStatus: domain.PaymentStatusUnpaid,
		CreatedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(map[string]any{"flightId": "CH101", "passengers": 5, "totalPrice": 500000})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(identityKey, domain.Identity{Subject: "U1", Role: domain.RoleCustomer})

	input := booking.ReserveInput{UserID: "U1", FlightID: "CH101", Passengers: 5, TotalPrice: 500000}
	mockService.On("Reserve", c.Request.Context(), input).
		Return(&booking.Reservation{Booking: pendingBooking("CB-1", "U1")}, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "CB-1", response.ID)
	assert.Equal(t, "PK-ABC", response.FleetID)
	assert.Equal(t, string(domain.BookingStatusPending), response.Status)
	assert.Equal(t, string(domain.PaymentStatusUnpaid), response.PaymentStatus)
	assert.Empty(t, response.Warnings)

	mockService.AssertExpectations(t)
}

func TestBookingRoutes_createStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", domain.ErrInvalidPassengers, http.StatusBadRequest},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound},
		{"flight not found", domain.ErrFlightNotFound, http.StatusNotFound},
		{"not bookable", domain.ErrFlightNotBookable, http.StatusConflict},
		{"insufficient", domain.ErrInsufficientInventory, http.StatusConflict},
		{"lock timeout", domain.ErrLockTimeout, http.StatusGatewayTimeout},
		{"internal", domain.Internal("create booking", errors.New("disk full")), http.StatusInternalServerError},
		{"internal over conflict", domain.Internal("create booking", domain.ErrDuplicateBookingID), http.StatusInternalServerError},
		{"internal over not found", domain.Internal("release seats", domain.ErrFlightNotFound), http.StatusInternalServerError},
		{"uncategorised", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			mockService.On("Reserve", mock.Anything, mock.Anything).Return(nil, tt.err)
			router := newTestRouter(mockService)

			w := do(router, http.MethodPost, "/bookings", "u1-token",
				map[string]any{"flightId": "CH101", "passengers": 9, "totalPrice": 0})

			assert.Equal(t, tt.want, w.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotContains(t, resp.Error, "disk full")
			assert.NotContains(t, w.Body.String(), `"id"`)
		})
	}
}

func TestBookingRoutes_createValidation(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newTestRouter(mockService)

	w := do(router, http.MethodPost, "/bookings", "u1-token", map[string]any{"flightId": "CH101"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/bookings", "u1-token", map[string]any{"passengers": 1, "totalPrice": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
}

func TestBookingRoutes_createIdentity(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newTestRouter(mockService)
	body := map[string]any{"userId": "U2", "flightId": "CH101", "passengers": 1, "totalPrice": 10}

	w := do(router, http.MethodPost, "/bookings", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/bookings", "forged", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/bookings", "u1-token", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	mockService.On("Reserve", mock.Anything, mock.MatchedBy(func(in booking.ReserveInput) bool {
		return in.UserID == "U2"
	})).Return(&booking.Reservation{
		Booking:  pendingBooking("CB-2", "U2"),
		Warnings: []string{"booking not linked to user: timeout"},
	}, nil).Once()

	w = do(router, http.MethodPost, "/bookings", "admin-token", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "U2", resp.UserID)
	assert.Len(t, resp.Warnings, 1)

	mockService.AssertExpectations(t)
}

func TestBookingRoutes_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newTestRouter(mockService)

	mockService.On("ListByUser", mock.Anything, "U1").Return([]domain.Booking{*pendingBooking("CB-1", "U1")}, nil).Once()
	w := do(router, http.MethodGet, "/bookings", "u1-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = do(router, http.MethodGet, "/bookings?userId=U2", "u1-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodGet, "/bookings?flightId=CH101", "u1-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	mockService.On("ListByUser", mock.Anything, "U2").Return([]domain.Booking{}, nil).Once()
	w = do(router, http.MethodGet, "/bookings?userId=U2", "admin-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	mockService.On("ListByFlight", mock.Anything, "CH101").Return([]domain.Booking{}, nil).Once()
	w = do(router, http.MethodGet, "/bookings?flightId=CH101", "admin-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	mockService.AssertExpectations(t)
}

func TestBookingRoutes_getCancelConfirm(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newTestRouter(mockService)

	mockService.On("Get", mock.Anything, "CB-1").Return(pendingBooking("CB-1", "U1"), nil)
	mockService.On("Get", mock.Anything, "CB-404").Return(nil, domain.ErrBookingNotFound)

	w := do(router, http.MethodGet, "/bookings/CB-1", "u1-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/bookings/CB-1", "u2-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodGet, "/bookings/CB-404", "u1-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/bookings/CB-1/cancel", "u2-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)

	cancelled := pendingBooking("CB-1", "U1")
	cancelled.Status = domain.BookingStatusCancelled
	mockService.On("Cancel", mock.Anything, "CB-1").Return(cancelled, nil).Once()
	w = do(router, http.MethodPost, "/bookings/CB-1/cancel", "u1-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.BookingStatusCancelled), resp.Status)

	mockService.On("Cancel", mock.Anything, "CB-1").Return(nil, domain.ErrBookingCancelled).Once()
	w = do(router, http.MethodPost, "/bookings/CB-1/cancel", "admin-token", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	mockService.On("Confirm", mock.Anything, "CB-1").Return(nil, domain.ErrBookingNotPending).Once()
	w = do(router, http.MethodPost, "/bookings/CB-1/confirm", "u1-token", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	mockService.AssertExpectations(t)
}
