package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/response"
)

type adminService interface {
	ListInstitutes(ctx context.Context, verified *bool) ([]models.Institute, error)
	VerifyInstitute(ctx context.Context, claims *models.JWTClaims, id string, req dto.VerifyInstituteRequest) (*models.Institute, error)
	DocumentLink(ctx context.Context, id string) (*dto.DocumentLink, error)
	Metrics() models.SystemMetrics
}

// AdminHandler serves platform administration.
type AdminHandler struct {
	admin adminService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admin adminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Institutes godoc
// @Summary List institutes
// @Tags Admin
// @Produce json
// @Param verified query bool false "Filter by verification state"
// @Success 200 {object} response.Envelope
// @Router /admin/institutes [get]
func (h *AdminHandler) Institutes(c *gin.Context) {
	var verified *bool
	if raw := c.Query("verified"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "verified must be a boolean"))
			return
		}
		verified = &v
	}
	items, err := h.admin.ListInstitutes(c.Request.Context(), verified)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Verify godoc
// @Summary Record the verification decision for an institute
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Institute ID"
// @Param payload body dto.VerifyInstituteRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /admin/institutes/{id}/verify [patch]
func (h *AdminHandler) Verify(c *gin.Context) {
	var req dto.VerifyInstituteRequest
	if !bindJSON(c, &req, "invalid verification payload") {
		return
	}
	institute, err := h.admin.VerifyInstitute(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institute, nil)
}

// Document godoc
// @Summary Time limited link to an institute's verification document
// @Tags Admin
// @Produce json
// @Param id path string true "Institute ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/institutes/{id}/document [get]
func (h *AdminHandler) Document(c *gin.Context) {
	link, err := h.admin.DocumentLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Metrics godoc
// @Summary In-process system metrics
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/metrics [get]
func (h *AdminHandler) Metrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.admin.Metrics(), nil)
}
