package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/response"
)

type counselorService interface {
	ListBookings(ctx context.Context, claims *models.JWTClaims) ([]models.CounselorBooking, error)
	ApproveBooking(ctx context.Context, claims *models.JWTClaims, bookingID string, req dto.BookingDecisionRequest) ([]models.CounselorBooking, error)
	RejectBooking(ctx context.Context, claims *models.JWTClaims, bookingID string, req dto.BookingDecisionRequest) ([]models.CounselorBooking, error)
	ExportBookings(ctx context.Context, claims *models.JWTClaims, format string) (*dto.ExportFile, error)
}

// CounselorHandler serves the counselor's booking queue.
type CounselorHandler struct {
	counselors counselorService
}

// NewCounselorHandler constructs CounselorHandler.
func NewCounselorHandler(counselors counselorService) *CounselorHandler {
	return &CounselorHandler{counselors: counselors}
}

// Bookings godoc
// @Summary List the counselor's bookings
// @Tags Counselor
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /counselor/bookings [get]
func (h *CounselorHandler) Bookings(c *gin.Context) {
	items, err := h.counselors.ListBookings(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Approve godoc
// @Summary Approve a pending booking
// @Tags Counselor
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.BookingDecisionRequest false "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /counselor/bookings/{id}/approve [post]
func (h *CounselorHandler) Approve(c *gin.Context) {
	h.decide(c, h.counselors.ApproveBooking)
}

// Reject godoc
// @Summary Reject a pending booking
// @Tags Counselor
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.BookingDecisionRequest false "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /counselor/bookings/{id}/reject [post]
func (h *CounselorHandler) Reject(c *gin.Context) {
	h.decide(c, h.counselors.RejectBooking)
}

type decisionFunc func(context.Context, *models.JWTClaims, string, dto.BookingDecisionRequest) ([]models.CounselorBooking, error)

func (h *CounselorHandler) decide(c *gin.Context, decide decisionFunc) {
	var req dto.BookingDecisionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
			return
		}
	}
	items, err := decide(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Export godoc
// @Summary Export the counselor's bookings
// @Tags Counselor
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /counselor/bookings/export [get]
func (h *CounselorHandler) Export(c *gin.Context) {
	file, err := h.counselors.ExportBookings(c.Request.Context(), claimsFromContext(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Filename, file.Data)
}
