package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/internal/service"
)

type fakeSignupSrv struct {
	student    models.StudentSignupRequest
	institute  models.InstituteSignupRequest
	docName    string
	docType    string
	docContent string
	sawDoc     bool
}

func (f *fakeSignupSrv) ListPublicInstitutes(context.Context) ([]models.InstituteOption, error) {
	return []models.InstituteOption{{ID: "i1", InstituteName: "Valley College"}}, nil
}

func (f *fakeSignupSrv) SignupStudent(_ context.Context, req models.StudentSignupRequest) (*models.UserInfo, error) {
	f.student = req
	return &models.UserInfo{ID: "u1", Email: req.Email, Role: models.RoleStudent}, nil
}

func (f *fakeSignupSrv) SignupInstitute(_ context.Context, req models.InstituteSignupRequest, doc *service.UploadedDocument) (*models.Institute, error) {
	f.institute = req
	if doc != nil {
		f.sawDoc = true
		f.docName = doc.Filename
		f.docType = doc.ContentType
		raw, _ := io.ReadAll(doc.Content)
		f.docContent = string(raw)
	}
	return &models.Institute{ID: "i1", InstituteName: req.InstituteName}, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, claims *models.JWTClaims) (*models.Identity, error) {
	return &models.Identity{
		UserInfo:    models.UserInfo{ID: claims.UserID, Role: claims.Role},
		ProfileID:   "s1",
		InstituteID: "i1",
	}, nil
}

func institutePayload(t *testing.T, withDoc bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"email":          "admin@valley.edu",
		"password":       "secret123",
		"institute_name": "Valley College",
		"website":        "https://valley.edu",
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if withDoc {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="verification_document"; filename="my charter.pdf"`)
		header.Set("Content-Type", "application/pdf")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAuthHandlerSignupInstituteWithDocument(t *testing.T) {
	signup := &fakeSignupSrv{}
	body, contentType := institutePayload(t, true)
	c, rec := newTestContext(http.MethodPost, "/auth/signup/institute", body, nil)
	c.Request.Header.Set("Content-Type", contentType)

	NewAuthHandler(nil, signup, nil).SignupInstitute(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Valley College", signup.institute.InstituteName)
	assert.Equal(t, "https://valley.edu", signup.institute.Website)
	require.True(t, signup.sawDoc)
	assert.Equal(t, "my charter.pdf", signup.docName)
	assert.Equal(t, "application/pdf", signup.docType)
	assert.Equal(t, "%PDF-1.4", signup.docContent)
}

func TestAuthHandlerSignupInstituteWithoutDocument(t *testing.T) {
	signup := &fakeSignupSrv{}
	body, contentType := institutePayload(t, false)
	c, rec := newTestContext(http.MethodPost, "/auth/signup/institute", body, nil)
	c.Request.Header.Set("Content-Type", contentType)

	NewAuthHandler(nil, signup, nil).SignupInstitute(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, signup.sawDoc)
}

func TestAuthHandlerSignupStudent(t *testing.T) {
	signup := &fakeSignupSrv{}
	body := `{"email":"asha@valley.edu","password":"secret123","full_name":"Asha","institute_id":"i1"}`
	c, rec := newTestContext(http.MethodPost, "/auth/signup/student", strings.NewReader(body), nil)

	NewAuthHandler(nil, signup, nil).SignupStudent(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Asha", signup.student.FullName)
	assert.Equal(t, "i1", signup.student.InstituteID)
}

func TestAuthHandlerPublicInstitutes(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/institutes/public", nil, nil)

	NewAuthHandler(nil, &fakeSignupSrv{}, nil).PublicInstitutes(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), "Valley College")
}

func TestAuthHandlerMe(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/me", nil, studentClaims)

	NewAuthHandler(nil, nil, fakeResolver{}).Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := string(decodeEnvelope(t, rec).Data)
	assert.Contains(t, data, `"profile_id":"s1"`)
	assert.Contains(t, data, `"institute_id":"i1"`)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/me", nil, nil)

	NewAuthHandler(nil, nil, fakeResolver{}).Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
