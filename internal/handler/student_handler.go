package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/pkg/response"
)

type studentService interface {
	Dashboard(ctx context.Context, claims *models.JWTClaims) (*dto.StudentDashboard, error)
	SubmitPHQ(ctx context.Context, claims *models.JWTClaims, req dto.ScreeningRequest) (*dto.ScreeningResult, error)
	SubmitGAD(ctx context.Context, claims *models.JWTClaims, req dto.ScreeningRequest) (*dto.ScreeningResult, error)
	LogMood(ctx context.Context, claims *models.JWTClaims, req dto.MoodRequest) (*models.MoodEntry, error)
	UpdateFocus(ctx context.Context, claims *models.JWTClaims, req dto.FocusRequest) (string, error)
	AddReminder(ctx context.Context, claims *models.JWTClaims, req dto.ReminderRequest) (*models.Reminder, error)
	ToggleReminder(ctx context.Context, claims *models.JWTClaims, id string) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, claims *models.JWTClaims, id string) error
	CancelBooking(ctx context.Context, claims *models.JWTClaims, bookingID string) (*models.Booking, error)
}

// StudentHandler exposes the student home screen endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// Dashboard godoc
// @Summary Student dashboard
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *StudentHandler) Dashboard(c *gin.Context) {
	res, err := h.students.Dashboard(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// SubmitPHQ godoc
// @Summary Submit a PHQ-9 screening
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body dto.ScreeningRequest true "Nine answers, each 0-3"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/screenings/phq9 [post]
func (h *StudentHandler) SubmitPHQ(c *gin.Context) {
	h.screening(c, h.students.SubmitPHQ)
}

// SubmitGAD godoc
// @Summary Submit a GAD-7 screening
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body dto.ScreeningRequest true "Seven answers, each 0-3"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/screenings/gad7 [post]
func (h *StudentHandler) SubmitGAD(c *gin.Context) {
	h.screening(c, h.students.SubmitGAD)
}

func (h *StudentHandler) screening(c *gin.Context, submit func(context.Context, *models.JWTClaims, dto.ScreeningRequest) (*dto.ScreeningResult, error)) {
	var req dto.ScreeningRequest
	if !bindJSON(c, &req, "invalid screening payload") {
		return
	}
	res, err := submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// LogMood godoc
// @Summary Log today's mood
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body dto.MoodRequest true "Mood"
// @Success 201 {object} response.Envelope
// @Router /student/moods [post]
func (h *StudentHandler) LogMood(c *gin.Context) {
	var req dto.MoodRequest
	if !bindJSON(c, &req, "invalid mood payload") {
		return
	}
	entry, err := h.students.LogMood(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateFocus godoc
// @Summary Set today's focus
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body dto.FocusRequest true "Focus"
// @Success 200 {object} response.Envelope
// @Router /student/focus [put]
func (h *StudentHandler) UpdateFocus(c *gin.Context) {
	var req dto.FocusRequest
	if !bindJSON(c, &req, "invalid focus payload") {
		return
	}
	focus, err := h.students.UpdateFocus(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"todays_focus": focus}, nil)
}

// AddReminder godoc
// @Summary Create a reminder
// @Tags Student
// @Accept json
// @Produce json
// @Param payload body dto.ReminderRequest true "Reminder"
// @Success 201 {object} response.Envelope
// @Router /student/reminders [post]
func (h *StudentHandler) AddReminder(c *gin.Context) {
	var req dto.ReminderRequest
	if !bindJSON(c, &req, "invalid reminder payload") {
		return
	}
	reminder, err := h.students.AddReminder(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reminder)
}

// ToggleReminder godoc
// @Summary Flip a reminder's completed flag
// @Tags Student
// @Produce json
// @Param id path string true "Reminder ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/reminders/{id}/toggle [patch]
func (h *StudentHandler) ToggleReminder(c *gin.Context) {
	reminder, err := h.students.ToggleReminder(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reminder, nil)
}

// DeleteReminder godoc
// @Summary Delete a reminder
// @Tags Student
// @Param id path string true "Reminder ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /student/reminders/{id} [delete]
func (h *StudentHandler) DeleteReminder(c *gin.Context) {
	if err := h.students.DeleteReminder(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CancelBooking godoc
// @Summary Cancel a confirmed booking
// @Tags Student
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/bookings/{id}/cancel [post]
func (h *StudentHandler) CancelBooking(c *gin.Context) {
	booking, err := h.students.CancelBooking(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}
