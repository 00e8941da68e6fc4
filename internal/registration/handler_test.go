package registration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerjalepas/kerjalepas/internal/account"
	"github.com/kerjalepas/kerjalepas/internal/profile"
	"github.com/kerjalepas/kerjalepas/internal/ui"
)

func newTestApp(t *testing.T) (*fiber.App, *stubService) {
	t.Helper()
	stub := newStub(t)
	o, _ := newOrchestrator(stub, prometheus.NewRegistry())
	messages, err := ui.NewMessages("id")
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/register", NewHandler(o, messages, ui.DefaultPolicy().Register).Register)
	return app, stub
}

func postForm(t *testing.T, app *fiber.App, values url.Values, lang string) (int, ui.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	if lang != "" {
		req.Header.Set(fiber.HeaderAcceptLanguage, lang)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body ui.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func registrationForm() url.Values {
	return url.Values{
		"userType":        {"freelancer"},
		"fullName":        {" Ayu Lestari "},
		"email":           {" ayu@example.com "},
		"password":        {"rahasia"},
		"confirmPassword": {"rahasia"},
		"skills":          {"go, sql"},
		"hourlyRate":      {"150000"},
	}
}

func TestHandlerRegisterSuccess(t *testing.T) {
	app, stub := newTestApp(t)

	status, body := postForm(t, app, registrationForm(), "")
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, body.Success)
	assert.Equal(t, "login.html", body.Redirect)
	assert.Equal(t, int64(3000), body.RedirectAfterMS)
	assert.Contains(t, body.Message, "Registrasi berhasil")

	sess, err := stub.VerifyCredentials(t.Context(), "ayu@example.com", "rahasia")
	require.NoError(t, err)
	stored, ok := stub.LookupRecord(account.TableProfiles, sess.Identity.ID)
	require.True(t, ok)
	rec := stored.(profile.Record)
	require.NotNil(t, rec.HourlyRate)
	assert.Equal(t, 150000.0, *rec.HourlyRate)
	assert.Equal(t, "Ayu Lestari", rec.FullName)
}

func TestHandlerRegisterJSON(t *testing.T) {
	app, _ := newTestApp(t)

	payload := `{"user_type":"client","full_name":"Budi","email":"budi@example.com","password":"rahasia","confirm_password":"rahasia","company":"PT Maju","hourly_rate":0}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestHandlerRegisterFailures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(url.Values)
		lang       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "missing role",
			mutate:     func(v url.Values) { v.Del("userType") },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Pilih peran Anda (freelancer atau client)",
		},
		{
			name:       "password mismatch",
			mutate:     func(v url.Values) { v.Set("confirmPassword", "lainnya") },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Password dan konfirmasi password tidak cocok",
		},
		{
			name:       "form without confirmation",
			mutate:     func(v url.Values) { v.Del("confirmPassword") },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Password dan konfirmasi password tidak cocok",
		},
		{
			name:       "short password in english",
			mutate:     func(v url.Values) { v.Set("password", "123"); v.Set("confirmPassword", "123") },
			lang:       "en-GB",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "password must be at least 6 characters",
		},
		{
			name:       "invalid email",
			mutate:     func(v url.Values) { v.Set("email", "ayu@") },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Format email tidak valid",
		},
		{
			name:       "non numeric rate",
			mutate:     func(v url.Values) { v.Set("hourlyRate", "banyak") },
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Tarif per jam tidak valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, stub := newTestApp(t)
			form := registrationForm()
			tt.mutate(form)

			status, body := postForm(t, app, form, tt.lang)
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Empty(t, body.Redirect)
			assert.Zero(t, stub.attempts.Load())
		})
	}
}

func TestHandlerRegisterDuplicate(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := postForm(t, app, registrationForm(), "")
	require.Equal(t, http.StatusCreated, status)

	status, body := postForm(t, app, registrationForm(), "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email sudah terdaftar", body.Message)

	status, body = postForm(t, app, registrationForm(), "en")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email already registered", body.Message)
}
