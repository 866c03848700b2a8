package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/pkg/response"
)

type instituteService interface {
	Overview(ctx context.Context, claims *models.JWTClaims) (*dto.InstituteOverview, error)
	CreateCounselor(ctx context.Context, claims *models.JWTClaims, req dto.CreateCounselorRequest) (*models.Counselor, error)
	UpdateCounselorStatus(ctx context.Context, claims *models.JWTClaims, counselorID string, req dto.CounselorStatusRequest) (*models.Counselor, error)
	GetAvailability(ctx context.Context, claims *models.JWTClaims, counselorID string) ([]models.Availability, error)
	UpdateAvailability(ctx context.Context, claims *models.JWTClaims, counselorID string, days []dto.AvailabilityDay) ([]models.Availability, error)
	GenerateSlots(ctx context.Context, claims *models.JWTClaims, counselorID string, req dto.GenerateSlotsRequest) (*dto.GenerateSlotsResult, error)
}

// InstituteHandler serves institute administration.
type InstituteHandler struct {
	institutes instituteService
}

// NewInstituteHandler constructs InstituteHandler.
func NewInstituteHandler(institutes instituteService) *InstituteHandler {
	return &InstituteHandler{institutes: institutes}
}

// Overview godoc
// @Summary Institute overview
// @Tags Institute
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institute/overview [get]
func (h *InstituteHandler) Overview(c *gin.Context) {
	res, err := h.institutes.Overview(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// CreateCounselor godoc
// @Summary Provision a counselor account
// @Tags Institute
// @Accept json
// @Produce json
// @Param payload body dto.CreateCounselorRequest true "Counselor"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /institute/counselors [post]
func (h *InstituteHandler) CreateCounselor(c *gin.Context) {
	var req dto.CreateCounselorRequest
	if !bindJSON(c, &req, "invalid counselor payload") {
		return
	}
	counselor, err := h.institutes.CreateCounselor(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, counselor)
}

// UpdateCounselorStatus godoc
// @Summary Activate or deactivate a counselor
// @Tags Institute
// @Accept json
// @Produce json
// @Param id path string true "Counselor ID"
// @Param payload body dto.CounselorStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /institute/counselors/{id}/status [patch]
func (h *InstituteHandler) UpdateCounselorStatus(c *gin.Context) {
	var req dto.CounselorStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	counselor, err := h.institutes.UpdateCounselorStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counselor, nil)
}

// GetAvailability godoc
// @Summary Weekly availability template of a counselor
// @Tags Institute
// @Produce json
// @Param id path string true "Counselor ID"
// @Success 200 {object} response.Envelope
// @Router /institute/counselors/{id}/availability [get]
func (h *InstituteHandler) GetAvailability(c *gin.Context) {
	week, err := h.institutes.GetAvailability(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// UpdateAvailability godoc
// @Summary Replace days of a counselor's weekly template
// @Tags Institute
// @Accept json
// @Produce json
// @Param id path string true "Counselor ID"
// @Param payload body []dto.AvailabilityDay true "Days"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /institute/counselors/{id}/availability [put]
func (h *InstituteHandler) UpdateAvailability(c *gin.Context) {
	var days []dto.AvailabilityDay
	if !bindJSON(c, &days, "invalid availability payload") {
		return
	}
	week, err := h.institutes.UpdateAvailability(c.Request.Context(), claimsFromContext(c), c.Param("id"), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// GenerateSlots godoc
// @Summary Materialize slots for a date range
// @Tags Institute
// @Accept json
// @Produce json
// @Param id path string true "Counselor ID"
// @Param payload body dto.GenerateSlotsRequest true "Range"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /institute/counselors/{id}/slots/generate [post]
func (h *InstituteHandler) GenerateSlots(c *gin.Context) {
	var req dto.GenerateSlotsRequest
	if !bindJSON(c, &req, "invalid range payload") {
		return
	}
	res, err := h.institutes.GenerateSlots(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
