package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mannsetu-api/internal/dto"
	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
)

type fakeBookingSrv struct {
	counselors []models.Counselor
	hit        bool
	slots      []models.TimeSlot
	lastDate   string
	lastReq    dto.CreateBookingRequest
	createErr  error
}

func (f *fakeBookingSrv) ListCounselors(context.Context, *models.JWTClaims) ([]models.Counselor, bool, error) {
	return f.counselors, f.hit, nil
}

func (f *fakeBookingSrv) ListAvailableSlots(_ context.Context, _ *models.JWTClaims, _ string, rawDate string) ([]models.TimeSlot, error) {
	f.lastDate = rawDate
	return f.slots, nil
}

func (f *fakeBookingSrv) CreateBooking(_ context.Context, _ *models.JWTClaims, req dto.CreateBookingRequest) (*models.Booking, error) {
	f.lastReq = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Booking{ID: "b1", SlotID: req.SlotID, Status: models.BookingPending}, nil
}

func TestBookingHandlerCounselorsReportsCacheHit(t *testing.T) {
	srv := &fakeBookingSrv{counselors: []models.Counselor{{ID: "c1", FullName: "Dr. Rao"}}, hit: true}
	c, rec := newTestContext(http.MethodGet, "/student/counselors", nil, studentClaims)

	NewBookingHandler(srv).Counselors(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	var counselors []models.Counselor
	require.NoError(t, json.Unmarshal(envelope.Data, &counselors))
	assert.Equal(t, "Dr. Rao", counselors[0].FullName)
}

func TestBookingHandlerSlotsRequiresDate(t *testing.T) {
	srv := &fakeBookingSrv{}
	c, rec := newTestContext(http.MethodGet, "/student/counselors/c1/slots", nil, studentClaims)

	NewBookingHandler(srv).Slots(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.lastDate)
}

func TestBookingHandlerSlotsPassesDate(t *testing.T) {
	srv := &fakeBookingSrv{slots: []models.TimeSlot{}}
	c, rec := newTestContext(http.MethodGet, "/student/counselors/c1/slots?date=2030-01-07", nil, studentClaims)

	NewBookingHandler(srv).Slots(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2030-01-07", srv.lastDate)
	assert.JSONEq(t, "[]", string(decodeEnvelope(t, rec).Data))
}

func TestBookingHandlerCreate(t *testing.T) {
	srv := &fakeBookingSrv{}
	body := `{"counselor_id":"c1","slot_id":"c1|2030-01-07|09:00:00","notes":"first visit"}`
	c, rec := newTestContext(http.MethodPost, "/student/bookings", strings.NewReader(body), studentClaims)

	NewBookingHandler(srv).Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "c1|2030-01-07|09:00:00", srv.lastReq.SlotID)
	require.NotNil(t, srv.lastReq.Notes)
	assert.Equal(t, "first visit", *srv.lastReq.Notes)
}

func TestBookingHandlerCreateConflict(t *testing.T) {
	srv := &fakeBookingSrv{createErr: appErrors.Clone(appErrors.ErrSlotUnavailable, "slot already taken")}
	c, rec := newTestContext(http.MethodPost, "/student/bookings", strings.NewReader(`{"counselor_id":"c1","slot_id":"x"}`), studentClaims)

	NewBookingHandler(srv).Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "SLOT_UNAVAILABLE", envelope.Error.Code)
}

func TestBookingHandlerCreateRejectsMalformedJSON(t *testing.T) {
	srv := &fakeBookingSrv{}
	c, rec := newTestContext(http.MethodPost, "/student/bookings", strings.NewReader(`{`), studentClaims)

	NewBookingHandler(srv).Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.lastReq.SlotID)
}
