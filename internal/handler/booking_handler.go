package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/middleware"
	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/response"
)

type bookingService interface {
	ListCounselors(ctx context.Context, claims *models.JWTClaims) ([]models.Counselor, bool, error)
	ListAvailableSlots(ctx context.Context, claims *models.JWTClaims, counselorID, rawDate string) ([]models.TimeSlot, error)
	CreateBooking(ctx context.Context, claims *models.JWTClaims, req dto.CreateBookingRequest) (*models.Booking, error)
}

// BookingHandler serves the student side of counselor booking.
type BookingHandler struct {
	bookings bookingService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(bookings bookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Counselors godoc
// @Summary List bookable counselors of the student's institute
// @Tags Booking
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/counselors [get]
func (h *BookingHandler) Counselors(c *gin.Context) {
	counselors, hit, err := h.bookings.ListCounselors(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, counselors, nil, middleware.ExtractMeta(c))
}

// Slots godoc
// @Summary List open slots of a counselor on a date
// @Tags Booking
// @Produce json
// @Param counselorId path string true "Counselor ID"
// @Param date query string true "Date (YYYY-MM-DD or RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/counselors/{counselorId}/slots [get]
func (h *BookingHandler) Slots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	slots, err := h.bookings.ListAvailableSlots(c.Request.Context(), claimsFromContext(c), c.Param("counselorId"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Create godoc
// @Summary Reserve a slot
// @Tags Booking
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if !bindJSON(c, &req, "invalid booking payload") {
		return
	}
	booking, err := h.bookings.CreateBooking(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}
