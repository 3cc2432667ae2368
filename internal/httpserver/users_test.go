package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/slim-mom/backend/internal/events"
	authmw "github.com/slim-mom/backend/internal/middleware/auth"
	"github.com/slim-mom/backend/internal/models"
	"github.com/slim-mom/backend/internal/repo"
	"github.com/slim-mom/backend/internal/service"
	"github.com/slim-mom/backend/internal/tokens"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent int
	fail bool
}

func (m *fakeMailer) SendVerification(_ context.Context, _, _ string) error {
	return m.record()
}

func (m *fakeMailer) Send(_ context.Context, _, _, _ string) error {
	return m.record()
}

func (m *fakeMailer) record() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent++
	return nil
}

type httpEnv struct {
	e      *echo.Echo
	db     *gorm.DB
	mailer *fakeMailer
}

func newHTTPEnv(t *testing.T) *httpEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RevokedToken{}))

	issuer := &tokens.Issuer{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	userRepo := &repo.GormRepo{DB: db}
	revoked := repo.NewRevocationRegistry(db)
	mailer := &fakeMailer{}

	svc := &service.IdentityService{
		Repo:     userRepo,
		Revoked:  revoked,
		Issuer:   issuer,
		Mailer:   mailer,
		Producer: events.NoopProducer{},
		BaseURL:  "http://localhost:8080",
	}

	e := echo.New()
	Register(e, &Deps{
		UserHandler: &UserHTTP{Svc: svc, Mailer: mailer},
		Gate:        authmw.NewGate(issuer, userRepo, revoked),
	})

	return &httpEnv{e: e, db: db, mailer: mailer}
}

func (env *httpEnv) do(t *testing.T, method, path string, body any, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var parsed map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &parsed)
	}
	return rec, parsed
}

func (env *httpEnv) verificationToken(t *testing.T, email string) string {
	t.Helper()

	var user models.User
	require.NoError(t, env.db.Where("email = ?", email).First(&user).Error)
	require.NotNil(t, user.VerificationToken)
	return *user.VerificationToken
}

func TestUsers_FullLifecycle(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)
	payload := map[string]string{"username": "jdoe", "email": "a@x.com", "password": "p1"}

	// Register.
	rec, body := env.do(t, http.MethodPost, "/api/users/register", payload, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	data := body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, false, user["verified"])
	assert.NotContains(t, rec.Body.String(), "password")

	// Login before verification: 403, not 401.
	login := map[string]string{"email": "a@x.com", "password": "p1"}
	rec, _ = env.do(t, http.MethodPost, "/api/users/login", login, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Activate.
	token := env.verificationToken(t, "a@x.com")
	rec, _ = env.do(t, http.MethodGet, "/api/users/verify/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the consumed token yields 404.
	rec, _ = env.do(t, http.MethodGet, "/api/users/verify/"+token, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Login now succeeds with a token pair.
	rec, body = env.do(t, http.MethodPost, "/api/users/login", login, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data = body["data"].(map[string]any)
	accessToken := data["token"].(string)
	refreshToken := data["refreshToken"].(string)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	loginUser := data["user"].(map[string]any)
	assert.Equal(t, "jdoe", loginUser["username"])

	// Protected profile.
	rec, body = env.do(t, http.MethodGet, "/api/users/current", nil, accessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jdoe", body["username"])
	assert.Equal(t, "a@x.com", body["email"])

	// Logout revokes the exact bearer token.
	rec, _ = env.do(t, http.MethodPost, "/api/users/logout", nil, accessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/api/users/current", nil, accessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsers_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)
	payload := map[string]string{"username": "jdoe", "email": "a@x.com", "password": "p1"}

	rec, _ := env.do(t, http.MethodPost, "/api/users/register", payload, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/users/register", payload, "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestUsers_Register_Validation(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)

	tests := []map[string]string{
		{"username": "", "email": "a@x.com", "password": "p1"},
		{"username": "jdoe", "email": "not-an-email", "password": "p1"},
		{"username": "jdoe", "email": "a@x.com", "password": ""},
	}
	for _, payload := range tests {
		rec, _ := env.do(t, http.MethodPost, "/api/users/register", payload, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestUsers_Register_MailFailure_StillCreated(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)
	env.mailer.fail = true

	payload := map[string]string{"username": "jdoe", "email": "a@x.com", "password": "p1"}
	rec, body := env.do(t, http.MethodPost, "/api/users/register", payload, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	data := body["data"].(map[string]any)
	assert.Contains(t, data["message"], "email sending failed")
}

func TestUsers_Login_BadCredentials(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/users/login",
		map[string]string{"email": "nobody@x.com", "password": "p1"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsers_ResendVerify(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)
	payload := map[string]string{"username": "jdoe", "email": "a@x.com", "password": "p1"}
	rec, _ := env.do(t, http.MethodPost, "/api/users/register", payload, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	oldToken := env.verificationToken(t, "a@x.com")

	rec, _ = env.do(t, http.MethodPost, "/api/users/resend-verify",
		map[string]string{"email": "a@x.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// The previous token no longer verifies.
	rec, _ = env.do(t, http.MethodGet, "/api/users/verify/"+oldToken, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/users/resend-verify",
		map[string]string{"email": "unknown@x.com"}, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Verified accounts cannot request another activation email.
	newToken := env.verificationToken(t, "a@x.com")
	rec, _ = env.do(t, http.MethodGet, "/api/users/verify/"+newToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/users/resend-verify",
		map[string]string{"email": "a@x.com"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsers_SendVerifyEmail(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/users/verify",
		map[string]string{"email": "a@x.com"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	env.mailer.fail = true
	rec, _ = env.do(t, http.MethodPost, "/api/users/verify",
		map[string]string{"email": "a@x.com"}, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func registerAndLogin(t *testing.T, env *httpEnv) (string, string) {
	t.Helper()

	payload := map[string]string{"username": "jdoe", "email": "a@x.com", "password": "p1"}
	rec, _ := env.do(t, http.MethodPost, "/api/users/register", payload, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	token := env.verificationToken(t, "a@x.com")
	rec, _ = env.do(t, http.MethodGet, "/api/users/verify/"+token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := env.do(t, http.MethodPost, "/api/users/login",
		map[string]string{"email": "a@x.com", "password": "p1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	return data["token"].(string), data["refreshToken"].(string)
}

func TestUsers_RefreshToken(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)
	accessToken, refreshToken := registerAndLogin(t, env)

	rec, body := env.do(t, http.MethodPost, "/api/users/refresh-token",
		map[string]string{"refreshToken": refreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	newAccess := body["accessToken"].(string)
	require.NotEmpty(t, newAccess)

	// The new access token authenticates on its own.
	rec, _ = env.do(t, http.MethodGet, "/api/users/current", nil, newAccess)
	require.Equal(t, http.StatusOK, rec.Code)

	// Garbage, a missing body and an access token all fail with 403.
	rec, _ = env.do(t, http.MethodPost, "/api/users/refresh-token",
		map[string]string{"refreshToken": "tampered"}, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/users/refresh-token", map[string]string{}, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/users/refresh-token",
		map[string]string{"refreshToken": accessToken}, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUsers_DailyKcal(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)
	accessToken, _ := registerAndLogin(t, env)

	rec, body := env.do(t, http.MethodPost, "/api/users/daily-kcal",
		map[string]float64{"kcal": 1800}, accessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1800), body["dailyKcal"])

	rec, _ = env.do(t, http.MethodPost, "/api/users/daily-kcal",
		map[string]float64{"kcal": -5}, accessToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/users/daily-kcal",
		map[string]float64{"kcal": 1800}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsers_Current_RequiresToken(t *testing.T) {
	t.Parallel()

	env := newHTTPEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/api/users/current", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
