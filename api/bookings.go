package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"github.com/Domenick1991/charterbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	UserID          string `json:"userId"`
	FlightID        string `json:"flightId" binding:"required"`
	Passengers      *int   `json:"passengers" binding:"required"`
	TotalPrice      *int64 `json:"totalPrice" binding:"required"`
	SpecialRequests string `json:"specialRequests"`
}

type bookingResponse struct {
	ID              string   `json:"id"`
	FlightID        string   `json:"flightId"`
	UserID          string   `json:"userId"`
	FleetID         string   `json:"fleetId"`
	Passengers      int      `json:"passengers"`
	TotalPrice      int64    `json:"totalPrice"`
	SpecialRequests string   `json:"specialRequests,omitempty"`
	Status          string   `json:"status"`
	PaymentStatus   string   `json:"paymentStatus"`
	CreatedAt       string   `json:"createdAt"`
	Warnings        []string `json:"warnings,omitempty"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		FlightID:        b.FlightID,
		UserID:          b.UserID,
		FleetID:         b.FleetID,
		Passengers:      b.Passengers,
		TotalPrice:      b.TotalPrice,
		SpecialRequests: b.SpecialRequests,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/confirm", h.confirm)
}

func (h *BookingHandler) create(c *gin.Context) {
	caller, ok := identityFrom(c)
	if !ok {
		forbidden(c)
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	// Customers always book for themselves; only admins may book on
	// behalf of another user.
	userID := caller.Subject
	if req.UserID != "" && req.UserID != caller.Subject {
		if !caller.IsAdmin() {
			forbidden(c)
			return
		}
		userID = req.UserID
	}

	res, err := h.service.Reserve(c.Request.Context(), booking.ReserveInput{
		UserID:          userID,
		FlightID:        req.FlightID,
		Passengers:      *req.Passengers,
		TotalPrice:      *req.TotalPrice,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := toBookingResponse(res.Booking)
	resp.Warnings = res.Warnings
	c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) list(c *gin.Context) {
	caller, ok := identityFrom(c)
	if !ok {
		forbidden(c)
		return
	}

	var (
		bookings []domain.Booking
		err      error
	)
	userID := c.Query("userId")
	flightID := c.Query("flightId")
	switch {
	case flightID != "":
		if !caller.IsAdmin() {
			forbidden(c)
			return
		}
		bookings, err = h.service.ListByFlight(c.Request.Context(), flightID)
	default:
		if userID == "" {
			userID = caller.Subject
		}
		if userID != caller.Subject && !caller.IsAdmin() {
			forbidden(c)
			return
		}
		bookings, err = h.service.ListByUser(c.Request.Context(), userID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, ok := h.owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	if _, ok := h.owned(c); !ok {
		return
	}
	b, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) confirm(c *gin.Context) {
	if _, ok := h.owned(c); !ok {
		return
	}
	b, err := h.service.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// owned loads the booking named in the path and checks the caller may act
// on it. It writes the response itself when the answer is no.
func (h *BookingHandler) owned(c *gin.Context) (*domain.Booking, bool) {
	caller, ok := identityFrom(c)
	if !ok {
		forbidden(c)
		return nil, false
	}
	b, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if b.UserID != caller.Subject && !caller.IsAdmin() {
		forbidden(c)
		return nil, false
	}
	return b, true
}
