package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kerjalepas/kerjalepas/internal/config"
	"github.com/kerjalepas/kerjalepas/internal/logging"
)

func devConfig() config.Config {
	return config.Config{
		AppName:               "KerjaLepas",
		AppEnv:                "dev",
		Port:                  "0",
		SessionSecret:         "test-secret",
		SessionTTL:            time.Hour,
		ConfirmationTTL:       time.Hour,
		RegisterRedirectDelay: 3 * time.Second,
		LoginRedirectDelay:    time.Second,
	}
}

func send(t *testing.T, srv *Server, method, target string, form url.Values, token string) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test %s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, target, err)
	}
	return resp.StatusCode, out
}

func TestFormRegistrationThenLogin(t *testing.T) {
	srv, err := New(devConfig(), nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	status, body := send(t, srv, http.MethodPost, "/api/v1/auth/register", url.Values{
		"userType":        {"freelancer"},
		"fullName":        {"Sari Wulandari"},
		"email":           {"sari@example.com"},
		"password":        {"rahasia"},
		"confirmPassword": {"rahasia"},
	}, "")
	if status != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d %v", status, body)
	}

	// Unrelated traffic in between reuses the server's request buffers.
	for i := 0; i < 3; i++ {
		send(t, srv, http.MethodPost, "/api/v1/auth/login", url.Values{
			"email":    {"zzzz@example.com"},
			"password": {"xxxxxxx"},
		}, "")
	}

	status, body = send(t, srv, http.MethodPost, "/api/v1/auth/login", url.Values{
		"email":    {"sari@example.com"},
		"password": {"rahasia"},
	}, "")
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %v", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token: %v", body)
	}

	status, body = send(t, srv, http.MethodGet, "/api/v1/me", nil, token)
	if status != http.StatusOK || body["email"] != "sari@example.com" {
		t.Fatalf("me: got %d %v", status, body)
	}
}

func TestUnauthorizedRendersJSON(t *testing.T) {
	srv, err := New(devConfig(), nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false || body["message"] != "unauthorized" {
		t.Fatalf("unexpected body %v", body)
	}
}
