package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
)

type fakeStudentSrv struct {
	phq     []int
	gad     []int
	deleted string
}

func (f *fakeStudentSrv) Dashboard(context.Context, *models.JWTClaims) (*dto.StudentDashboard, error) {
	return &dto.StudentDashboard{TodaysFocus: "rest"}, nil
}

func (f *fakeStudentSrv) SubmitPHQ(_ context.Context, _ *models.JWTClaims, req dto.ScreeningRequest) (*dto.ScreeningResult, error) {
	f.phq = req.Answers
	return &dto.ScreeningResult{ID: "p1", Score: 5, Severity: "Mild"}, nil
}

func (f *fakeStudentSrv) SubmitGAD(_ context.Context, _ *models.JWTClaims, req dto.ScreeningRequest) (*dto.ScreeningResult, error) {
	f.gad = req.Answers
	return &dto.ScreeningResult{ID: "g1"}, nil
}

func (f *fakeStudentSrv) LogMood(context.Context, *models.JWTClaims, dto.MoodRequest) (*models.MoodEntry, error) {
	return &models.MoodEntry{}, nil
}

func (f *fakeStudentSrv) UpdateFocus(_ context.Context, _ *models.JWTClaims, req dto.FocusRequest) (string, error) {
	return strings.TrimSpace(req.TodaysFocus), nil
}

func (f *fakeStudentSrv) AddReminder(context.Context, *models.JWTClaims, dto.ReminderRequest) (*models.Reminder, error) {
	return &models.Reminder{}, nil
}

func (f *fakeStudentSrv) ToggleReminder(context.Context, *models.JWTClaims, string) (*models.Reminder, error) {
	return &models.Reminder{}, nil
}

func (f *fakeStudentSrv) DeleteReminder(_ context.Context, _ *models.JWTClaims, id string) error {
	f.deleted = id
	return nil
}

func (f *fakeStudentSrv) CancelBooking(_ context.Context, _ *models.JWTClaims, id string) (*models.Booking, error) {
	return &models.Booking{ID: id, Status: models.BookingCancelled}, nil
}

func TestStudentHandlerScreeningsRouteToInstrument(t *testing.T) {
	srv := &fakeStudentSrv{}
	h := NewStudentHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/student/screenings/phq9", strings.NewReader(`{"answers":[1,1,1,1,1,0,0,0,0]}`), studentClaims)
	h.SubmitPHQ(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, srv.phq, 9)
	assert.Nil(t, srv.gad)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"severity":"Mild"`)

	c, rec = newTestContext(http.MethodPost, "/student/screenings/gad7", strings.NewReader(`{"answers":[0,0,0,0,0,0,0]}`), studentClaims)
	h.SubmitGAD(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, srv.gad, 7)
}

func TestStudentHandlerScreeningRejectsMalformedBody(t *testing.T) {
	srv := &fakeStudentSrv{}
	c, rec := newTestContext(http.MethodPost, "/student/screenings/phq9", strings.NewReader(`{"answers":"all good"}`), studentClaims)

	NewStudentHandler(srv).SubmitPHQ(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
	assert.Nil(t, srv.phq)
}

func TestStudentHandlerFocusAndReminders(t *testing.T) {
	srv := &fakeStudentSrv{}
	h := NewStudentHandler(srv)

	c, rec := newTestContext(http.MethodPut, "/student/focus", strings.NewReader(`{"todays_focus":"  sleep early "}`), studentClaims)
	h.UpdateFocus(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"todays_focus":"sleep early"}`, string(decodeEnvelope(t, rec).Data))

	c, rec = newTestContext(http.MethodDelete, "/student/reminders/r1", nil, studentClaims)
	c.AddParam("id", "r1")
	h.DeleteReminder(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "r1", srv.deleted)
}

func TestStudentHandlerCancelBooking(t *testing.T) {
	c, rec := newTestContext(http.MethodPost, "/student/bookings/b1/cancel", nil, studentClaims)
	c.AddParam("id", "b1")

	NewStudentHandler(&fakeStudentSrv{}).CancelBooking(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"status":"cancelled"`)
}
