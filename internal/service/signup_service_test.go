package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mannsetu-api/internal/models"
	"github.com/noah-isme/mannsetu-api/pkg/storage"
)

type fakeSignupStudents struct {
	user    *models.User
	student *models.Student
}

func (f *fakeSignupStudents) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	user.ID = "u-new"
	student.ID = "s-new"
	f.user, f.student = user, student
	return nil
}

type fakeSignupInstitutes struct {
	known     map[string]bool
	created   *models.Institute
	createErr error
}

func (f *fakeSignupInstitutes) CreateWithUser(ctx context.Context, user *models.User, institute *models.Institute) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = "u-inst"
	institute.ID = "i-new"
	f.created = institute
	return nil
}

func (f *fakeSignupInstitutes) FindByID(ctx context.Context, id string) (*models.Institute, error) {
	if !f.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Institute{ID: id}, nil
}

func (f *fakeSignupInstitutes) ListPublic(ctx context.Context) ([]models.InstituteOption, error) {
	return nil, nil
}

type fakeDocumentStore struct {
	name    string
	body    []byte
	removed []string
}

func (f *fakeDocumentStore) Put(ctx context.Context, name string, r io.Reader) (*storage.StoredDocument, error) {
	f.name = name
	f.body, _ = io.ReadAll(r)
	return &storage.StoredDocument{Key: "bucket/" + name, URL: "https://cdn.example/bucket/" + name}, nil
}

func (f *fakeDocumentStore) Link(ctx context.Context, doc storage.StoredDocument) (string, time.Time, error) {
	return doc.URL, time.Time{}, nil
}

func (f *fakeDocumentStore) Remove(ctx context.Context, doc storage.StoredDocument) error {
	f.removed = append(f.removed, doc.Key)
	return nil
}

const knownInstitute = "7d9f1a52-3c1e-4a4b-9d59-0c2f5e8b1a11"

func newSignupFixture() (*SignupService, *fakeAccounts, *fakeSignupStudents, *fakeSignupInstitutes, *fakeDocumentStore) {
	accounts := &fakeAccounts{taken: map[string]bool{"taken@uni.edu": true}}
	students := &fakeSignupStudents{}
	institutes := &fakeSignupInstitutes{known: map[string]bool{knownInstitute: true}}
	docs := &fakeDocumentStore{}
	svc := NewSignupService(accounts, students, institutes, docs, nil, nil, SignupConfig{
		MaxDocumentBytes: 1024,
		AllowedMIMEs:     []string{"application/pdf"},
	})
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, accounts, students, institutes, docs
}

func TestSignupStudent(t *testing.T) {
	svc, accounts, students, _, _ := newSignupFixture()

	info, err := svc.SignupStudent(context.Background(), models.StudentSignupRequest{
		Email:         " Asha@Uni.EDU",
		Password:      "secret1",
		FullName:      "Asha Verma",
		StudentNumber: "21CS042",
		InstituteID:   knownInstitute,
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@uni.edu", info.Email)
	assert.Equal(t, models.RoleStudent, info.Role)
	assert.Equal(t, knownInstitute, students.student.InstituteID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(students.user.PasswordHash), []byte("secret1")))
	require.Len(t, accounts.audits, 1)
	assert.Equal(t, models.AuditActionSignup, accounts.audits[0].Action)
}

func TestSignupStudentRejections(t *testing.T) {
	svc, _, students, _, _ := newSignupFixture()

	_, err := svc.SignupStudent(context.Background(), models.StudentSignupRequest{Email: "taken@uni.edu", Password: "secret1", FullName: "X", InstituteID: knownInstitute})
	requireAppError(t, err, "CONFLICT")

	_, err = svc.SignupStudent(context.Background(), models.StudentSignupRequest{Email: "new@uni.edu", Password: "secret1", FullName: "X", InstituteID: "00000000-0000-0000-0000-000000000000"})
	requireAppError(t, err, "VALIDATION_ERROR")

	assert.Nil(t, students.student)
}

func TestSignupInstituteStoresDocument(t *testing.T) {
	svc, _, _, institutes, docs := newSignupFixture()

	inst, err := svc.SignupInstitute(context.Background(), models.InstituteSignupRequest{
		Email:         "admin@north.edu",
		Password:      "secret1",
		InstituteName: "North Campus",
	}, &UploadedDocument{Filename: "my charter.pdf", ContentType: "application/pdf", Size: 4, Content: bytes.NewBufferString("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, "1700000000000-my_charter.pdf", docs.name)
	assert.Equal(t, "%PDF", string(docs.body))
	require.NotNil(t, inst.VerificationDocumentURL)
	assert.Equal(t, "https://cdn.example/bucket/1700000000000-my_charter.pdf", *inst.VerificationDocumentURL)
	assert.Equal(t, "bucket/1700000000000-my_charter.pdf", *institutes.created.VerificationDocumentKey)
}

func TestSignupInstituteDocumentChecks(t *testing.T) {
	req := models.InstituteSignupRequest{Email: "admin@north.edu", Password: "secret1", InstituteName: "North"}
	cases := map[string]*UploadedDocument{
		"missing":   nil,
		"too large": {Filename: "a.pdf", ContentType: "application/pdf", Size: 4096, Content: bytes.NewBufferString("x")},
		"bad type":  {Filename: "a.exe", ContentType: "application/x-msdownload", Size: 1, Content: bytes.NewBufferString("x")},
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _, _, _, docs := newSignupFixture()
			_, err := svc.SignupInstitute(context.Background(), req, doc)
			requireAppError(t, err, "VALIDATION_ERROR")
			assert.Empty(t, docs.name)
		})
	}
}

func TestSignupInstituteCreateFailure(t *testing.T) {
	svc, _, _, institutes, docs := newSignupFixture()
	institutes.createErr = errors.New("tx aborted")

	_, err := svc.SignupInstitute(context.Background(), models.InstituteSignupRequest{Email: "a@b.edu", Password: "secret1", InstituteName: "B"},
		&UploadedDocument{Filename: "a.pdf", ContentType: "application/pdf; charset=binary", Size: 1, Content: bytes.NewBufferString("x")})
	requireAppError(t, err, "INTERNAL_ERROR")
	assert.Equal(t, []string{"bucket/" + docs.name}, docs.removed)
}
