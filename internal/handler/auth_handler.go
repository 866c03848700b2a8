package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/internal/service"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error)
	Logout(ctx context.Context, refreshToken string, userID string, meta models.LoginRequest) error
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
}

type signupService interface {
	ListPublicInstitutes(ctx context.Context) ([]models.InstituteOption, error)
	SignupStudent(ctx context.Context, req models.StudentSignupRequest) (*models.UserInfo, error)
	SignupInstitute(ctx context.Context, req models.InstituteSignupRequest, doc *service.UploadedDocument) (*models.Institute, error)
}

type identityResolver interface {
	Resolve(ctx context.Context, claims *models.JWTClaims) (*models.Identity, error)
}

// AuthHandler wires HTTP endpoints to the auth, sign-up and identity services.
type AuthHandler struct {
	service  authService
	signup   signupService
	identity identityResolver
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, signup signupService, identity identityResolver) *AuthHandler {
	return &AuthHandler{service: svc, signup: signup, identity: identity}
}

// Login godoc
// @Summary Sign in with email and password
// @Description Returns an access token, a refresh token and the user's role.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	req.IP, req.UserAgent = clientMeta(c)

	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Description The presented refresh token is revoked and a new pair is issued.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req, "invalid refresh payload") {
		return
	}
	req.IP, req.UserAgent = clientMeta(c)

	session, err := h.service.RefreshToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Logout godoc
// @Summary Revoke the current refresh token
// @Tags Authentication
// @Accept json
// @Param payload body logoutRequest true "Refresh token"
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req logoutRequest
	if !bindJSON(c, &req, "refresh token required") {
		return
	}

	var meta models.LoginRequest
	meta.IP, meta.UserAgent = clientMeta(c)
	if err := h.service.Logout(c.Request.Context(), req.RefreshToken, claims.UserID, meta); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ChangePassword godoc
// @Summary Change the caller's password
// @Description Every refresh token of the user is revoked afterwards.
// @Tags Authentication
// @Accept json
// @Param payload body models.ChangePasswordRequest true "Current and new password"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req, "invalid change password payload") {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PublicInstitutes godoc
// @Summary List institutes open for student sign-up
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institutes/public [get]
func (h *AuthHandler) PublicInstitutes(c *gin.Context) {
	items, err := h.signup.ListPublicInstitutes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// SignupStudent godoc
// @Summary Register a student account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.StudentSignupRequest true "Student sign-up"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/signup/student [post]
func (h *AuthHandler) SignupStudent(c *gin.Context) {
	var req models.StudentSignupRequest
	if !bindJSON(c, &req, "invalid signup payload") {
		return
	}

	user, err := h.signup.SignupStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// SignupInstitute godoc
// @Summary Register an institute with its verification document
// @Tags Authentication
// @Accept multipart/form-data
// @Produce json
// @Param email formData string true "Admin email"
// @Param password formData string true "Password"
// @Param institute_name formData string true "Institute name"
// @Param address formData string false "Address"
// @Param phone formData string false "Phone"
// @Param website formData string false "Website"
// @Param verification_document formData file false "Verification document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/signup/institute [post]
func (h *AuthHandler) SignupInstitute(c *gin.Context) {
	var req models.InstituteSignupRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	var doc *service.UploadedDocument
	if fileHeader, err := c.FormFile("verification_document"); err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
			return
		}
		defer src.Close()
		doc = &service.UploadedDocument{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Content:     src,
		}
	} else if err != http.ErrMissingFile {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid verification document"))
		return
	}

	institute, err := h.signup.SignupInstitute(c.Request.Context(), req, doc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, institute)
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user with the profile of their role
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	identity, err := h.identity.Resolve(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, identity, nil)
}
