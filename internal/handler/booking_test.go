package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skhumalo/airline-reservation/internal/handler"
	"github.com/skhumalo/airline-reservation/internal/middleware"
	"github.com/skhumalo/airline-reservation/internal/model"
	"github.com/skhumalo/airline-reservation/internal/service"
)

type mockBookingAPI struct {
	mock.Mock
}

func (m *mockBookingAPI) CreateBooking(ctx context.Context, in service.CreateBookingInput) (*service.BookingConfirmation, error) {
	args := m.Called(ctx, in)
	if conf := args.Get(0); conf != nil {
		return conf.(*service.BookingConfirmation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingAPI) CancelBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	args := m.Called(ctx, bookingID)
	if b := args.Get(0); b != nil {
		return b.(*model.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingAPI) UpdateBookingStatus(ctx context.Context, bookingID uint64, status string) error {
	return m.Called(ctx, bookingID, status).Error(0)
}

func (m *mockBookingAPI) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*model.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingAPI) GetBookingByReference(ctx context.Context, ref string) (*model.Booking, error) {
	args := m.Called(ctx, ref)
	if b := args.Get(0); b != nil {
		return b.(*model.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingAPI) ListUserBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	args := m.Called(ctx, userID)
	if bs := args.Get(0); bs != nil {
		return bs.([]model.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingAPI) ListAllBookings(ctx context.Context) ([]model.Booking, error) {
	args := m.Called(ctx)
	if bs := args.Get(0); bs != nil {
		return bs.([]model.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func newContext(t *testing.T, method, target, body string, userID uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, userID)
	c.Set(middleware.CtxRole, role)
	return c, rec
}

func sampleBooking(owner uint64) *model.Booking {
	uid := owner
	return &model.Booking{
		ID:              77,
		UserID:          &uid,
		FlightID:        3,
		SeatID:          42,
		Reference:       "AB12CD34",
		Status:          model.BookingConfirmed,
		TotalPriceCents: 189900,
		PassengerName:   "Thabo Mokoena",
	}
}

func TestCreateBookingHandler(t *testing.T) {
	svc := new(mockBookingAPI)
	h := handler.NewBookingHandler(svc, nil)

	conf := &service.BookingConfirmation{
		Booking: *sampleBooking(9),
		Flight:  model.Flight{ID: 3, FlightNumber: "SA101", Origin: "Johannesburg (JNB)", Destination: "Cape Town (CPT)"},
		Seat:    model.Seat{ID: 42, SeatNumber: "12C", SeatClass: model.SeatClassEconomy},
	}
	svc.On("CreateBooking", mock.Anything, service.CreateBookingInput{
		FlightID:      3,
		SeatID:        42,
		UserID:        9,
		PassengerName: "Thabo Mokoena",
	}).Return(conf, nil)

	body := `{"flight_id":3,"seat_id":42,"passenger_name":"Thabo Mokoena"}`
	c, rec := newContext(t, http.MethodPost, "/v1/bookings", body, 9, model.RoleCustomer)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AB12CD34", resp["reference"])
	assert.Equal(t, "SA101", resp["flight_number"])
	assert.Equal(t, "12C", resp["seat_number"])
	svc.AssertExpectations(t)
}

func TestCreateBookingHandlerSeatUnavailable(t *testing.T) {
	svc := new(mockBookingAPI)
	h := handler.NewBookingHandler(svc, nil)
	svc.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, service.ErrSeatUnavailable)

	body := `{"flight_id":3,"seat_id":42,"passenger_name":"Thabo Mokoena"}`
	c, rec := newContext(t, http.MethodPost, "/v1/bookings", body, 9, model.RoleCustomer)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBookingHandlerMissingPassenger(t *testing.T) {
	svc := new(mockBookingAPI)
	h := handler.NewBookingHandler(svc, nil)

	body := `{"flight_id":3,"seat_id":42}`
	c, rec := newContext(t, http.MethodPost, "/v1/bookings", body, 9, model.RoleCustomer)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestGetBookingOwnership(t *testing.T) {
	svc := new(mockBookingAPI)
	h := handler.NewBookingHandler(svc, nil)
	svc.On("GetBooking", mock.Anything, uint64(77)).Return(sampleBooking(9), nil)

	// Owner sees the booking.
	c, rec := newContext(t, http.MethodGet, "/v1/bookings/77", "", 9, model.RoleCustomer)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// A different customer gets 404, not 403, to avoid leaking existence.
	c, rec = newContext(t, http.MethodGet, "/v1/bookings/77", "", 10, model.RoleCustomer)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// An admin sees any booking.
	c, rec = newContext(t, http.MethodGet, "/v1/bookings/77", "", 1, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("77")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelBookingRetryableConflict(t *testing.T) {
	svc := new(mockBookingAPI)
	h := handler.NewBookingHandler(svc, nil)
	svc.On("GetBooking", mock.Anything, uint64(77)).Return(sampleBooking(9), nil)
	svc.On("CancelBooking", mock.Anything, uint64(77)).Return(nil, service.ErrRetryableConflict)

	c, rec := newContext(t, http.MethodDelete, "/v1/bookings/77", "", 9, model.RoleCustomer)
	c.SetParamNames("id")
	c.SetParamValues("77")

	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestCancelBookingAlreadyCancelledHandler(t *testing.T) {
	svc := new(mockBookingAPI)
	h := handler.NewBookingHandler(svc, nil)
	svc.On("GetBooking", mock.Anything, uint64(77)).Return(sampleBooking(9), nil)
	svc.On("CancelBooking", mock.Anything, uint64(77)).Return(nil, service.ErrAlreadyCancelled)

	c, rec := newContext(t, http.MethodDelete, "/v1/bookings/77", "", 9, model.RoleCustomer)
	c.SetParamNames("id")
	c.SetParamValues("77")

	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetByReferenceValidation(t *testing.T) {
	svc := new(mockBookingAPI)
	h := handler.NewBookingHandler(svc, nil)

	c, rec := newContext(t, http.MethodGet, "/v1/bookings/reference/short", "", 9, model.RoleCustomer)
	c.SetParamNames("ref")
	c.SetParamValues("short")

	require.NoError(t, h.GetByReference(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "GetBookingByReference", mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus(t *testing.T) {
	svc := new(mockBookingAPI)
	h := handler.NewAdminBookingHandler(svc, nil)
	svc.On("UpdateBookingStatus", mock.Anything, uint64(77), model.BookingPending).Return(nil)
	svc.On("GetBooking", mock.Anything, uint64(77)).Return(sampleBooking(9), nil)

	c, rec := newContext(t, http.MethodPatch, "/v1/admin/bookings/77/status", `{"status":"pending"}`, 1, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("77")

	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestAdminUpdateStatusInvalid(t *testing.T) {
	svc := new(mockBookingAPI)
	h := handler.NewAdminBookingHandler(svc, nil)
	svc.On("UpdateBookingStatus", mock.Anything, uint64(77), "TELEPORTED").Return(service.ErrInvalidStatus)

	c, rec := newContext(t, http.MethodPatch, "/v1/admin/bookings/77/status", `{"status":"TELEPORTED"}`, 1, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("77")

	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
