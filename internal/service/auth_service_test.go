package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
)

// fakeAuthStore keeps users and refresh tokens in maps.
type fakeAuthStore struct {
	users      map[string]*models.User // by email
	tokens     map[string]*models.RefreshToken
	revokeErr  error
	audits     []*models.AuditLog
	lastLogins []string
	revokedAll []string
}

func newFakeAuthStore(users ...*models.User) *fakeAuthStore {
	f := &fakeAuthStore{users: map[string]*models.User{}, tokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		f.users[u.Email] = u
	}
	return f
}

func (f *fakeAuthStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthStore) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthStore) UpdateLastLogin(_ context.Context, id string, _ time.Time) error {
	f.lastLogins = append(f.lastLogins, id)
	return nil
}

func (f *fakeAuthStore) UpdatePassword(ctx context.Context, id, hash string, _ time.Time) error {
	u, err := f.FindByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeAuthStore) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}

func (f *fakeAuthStore) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeAuthStore) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := f.tokens[token]; ok {
		return rt, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthStore) RevokeRefreshToken(_ context.Context, id string, at time.Time) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	for _, rt := range f.tokens {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &at
		}
	}
	return nil
}

func (f *fakeAuthStore) CreateAuditLog(_ context.Context, entry *models.AuditLog) error {
	f.audits = append(f.audits, entry)
	return nil
}

type stubCounselorStatus struct {
	counselor *models.Counselor
}

func (s stubCounselorStatus) FindByUserID(context.Context, string) (*models.Counselor, error) {
	if s.counselor == nil {
		return nil, sql.ErrNoRows
	}
	return s.counselor, nil
}

var testAuthConfig = AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, RefreshTokenExpiry: 24 * time.Hour}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func studentAccount(t *testing.T) *models.User {
	return &models.User{ID: "u1", Email: "asha@uni.edu", FullName: "Asha", PasswordHash: hashPassword(t, "password"), Active: true, Role: models.RoleStudent}
}

func errorCode(err error) string {
	return appErrors.FromError(err).Code
}

func TestAuthServiceLoginOpensSession(t *testing.T) {
	store := newFakeAuthStore(studentAccount(t))
	svc := NewAuthService(store, nil, nil, testAuthConfig)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@uni.edu", Password: "password", IP: "10.0.0.1"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.Contains(t, store.tokens, res.RefreshToken)
	assert.Equal(t, "10.0.0.1", store.tokens[res.RefreshToken].IPAddress)
	assert.Equal(t, []string{"u1"}, store.lastLogins)
	require.Len(t, store.audits, 1)
	assert.Equal(t, models.AuditActionLogin, store.audits[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	inactive := studentAccount(t)
	inactive.Email, inactive.ID, inactive.Active = "off@uni.edu", "u2", false

	cases := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{"unknown email", "nobody@uni.edu", "password", appErrors.ErrInvalidCredentials.Code},
		{"wrong password", "asha@uni.edu", "nope", appErrors.ErrInvalidCredentials.Code},
		{"inactive account", "off@uni.edu", "password", appErrors.ErrInactiveAccount.Code},
		{"malformed email", "asha", "password", appErrors.ErrValidation.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeAuthStore(studentAccount(t), inactive)
			svc := NewAuthService(store, nil, nil, testAuthConfig)

			_, err := svc.Login(context.Background(), models.LoginRequest{Email: tc.email, Password: tc.password})
			require.Error(t, err)
			assert.Equal(t, tc.code, errorCode(err))
			assert.Empty(t, store.tokens)
		})
	}
}

func TestAuthServiceLoginRejectsDeactivatedCounselor(t *testing.T) {
	counselor := &models.User{ID: "u-c", Email: "c@uni.edu", PasswordHash: hashPassword(t, "password"), Active: true, Role: models.RoleCounselor}
	req := models.LoginRequest{Email: "c@uni.edu", Password: "password"}

	off := NewAuthService(newFakeAuthStore(counselor), nil, nil, testAuthConfig,
		WithCounselorStatus(stubCounselorStatus{counselor: &models.Counselor{ID: "c1", IsActive: false}}))
	_, err := off.Login(context.Background(), req)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, errorCode(err))

	missing := NewAuthService(newFakeAuthStore(counselor), nil, nil, testAuthConfig, WithCounselorStatus(stubCounselorStatus{}))
	_, err = missing.Login(context.Background(), req)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, errorCode(err))

	on := NewAuthService(newFakeAuthStore(counselor), nil, nil, testAuthConfig,
		WithCounselorStatus(stubCounselorStatus{counselor: &models.Counselor{ID: "c1", IsActive: true}}))
	res, err := on.Login(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCounselor, res.User.Role)
}

func TestAuthServiceSingleSessionRevokesOthers(t *testing.T) {
	store := newFakeAuthStore(studentAccount(t))
	cfg := testAuthConfig
	cfg.SingleSession = true
	svc := NewAuthService(store, nil, nil, cfg)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@uni.edu", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, store.revokedAll)
}

func TestAuthServiceRefreshRotates(t *testing.T) {
	store := newFakeAuthStore(studentAccount(t))
	store.tokens["old"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "old", ExpiresAt: time.Now().Add(time.Hour)}
	svc := NewAuthService(store, nil, nil, testAuthConfig)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	require.NoError(t, err)
	assert.NotEqual(t, "old", res.RefreshToken)
	assert.True(t, store.tokens["old"].Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))
}

func TestAuthServiceRefreshFailsWhenRevokeFails(t *testing.T) {
	store := newFakeAuthStore(studentAccount(t))
	store.tokens["old"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "old", ExpiresAt: time.Now().Add(time.Hour)}
	store.revokeErr = assert.AnError
	svc := NewAuthService(store, nil, nil, testAuthConfig)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	assert.Equal(t, appErrors.ErrInternal.Code, errorCode(err))
	assert.Len(t, store.tokens, 1)
}

func TestAuthServiceRefreshRejectsUnknownAndExpired(t *testing.T) {
	store := newFakeAuthStore(studentAccount(t))
	store.tokens["stale"] = &models.RefreshToken{ID: "rt1", UserID: "u1", Token: "stale", ExpiresAt: time.Now().Add(-time.Minute)}
	svc := NewAuthService(store, nil, nil, testAuthConfig)

	for _, token := range []string{"stale", "never-issued"} {
		_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: token})
		assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err), token)
	}
}

func TestAuthServiceLogoutRejectsForeignToken(t *testing.T) {
	store := newFakeAuthStore()
	store.tokens["token"] = &models.RefreshToken{ID: "rt1", UserID: "owner", Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	svc := NewAuthService(store, nil, nil, testAuthConfig)

	err := svc.Logout(context.Background(), "token", "intruder", models.LoginRequest{})
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))
	assert.False(t, store.tokens["token"].Revoked)

	require.NoError(t, svc.Logout(context.Background(), "token", "owner", models.LoginRequest{}))
	assert.True(t, store.tokens["token"].Revoked)
}

func TestAuthServiceChangePassword(t *testing.T) {
	user := studentAccount(t)
	store := newFakeAuthStore(user)
	svc := NewAuthService(store, nil, nil, testAuthConfig)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"})
	require.Error(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "password", NewPassword: "newpassword"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword")))
	assert.Equal(t, []string{"u1"}, store.revokedAll)
}

func TestValidateTokenRejectsForgedAndExpired(t *testing.T) {
	user := &models.User{ID: "u1", Role: models.RoleStudent}
	svc := NewAuthService(newFakeAuthStore(), nil, nil, testAuthConfig)

	forger := NewAuthService(newFakeAuthStore(), nil, nil, AuthConfig{AccessTokenSecret: "other", AccessTokenExpiry: time.Hour})
	forged, err := forger.generateAccessToken(user, time.Now())
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))

	expired, err := svc.generateAccessToken(user, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))
}
