package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gluco_watch/internal/service"
)

func postSignIn(t *testing.T, s *service.Service, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := newTestRouter(s)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSignIn_Success(t *testing.T) {
	auth := &mockAuth{genTokenToken: "tok123"}
	w := postSignIn(t, &service.Service{Authorization: auth}, `{"username":"u","password":"p"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("sign-in status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["token"] != "tok123" {
		t.Fatalf("expected token tok123, got %v", m["token"])
	}
	if auth.lastGenUsername != "u" || auth.lastGenPassword != "p" {
		t.Fatalf("credentials not forwarded: %q %q", auth.lastGenUsername, auth.lastGenPassword)
	}
}

func TestSignIn_Failures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body string
		code int
	}{
		{"wrong password", service.ErrInvalidCredentials, `{"username":"u","password":"bad"}`, http.StatusUnauthorized},
		{"unexpected error hides detail", errors.New("boom"), `{"username":"u","password":"p"}`, http.StatusUnauthorized},
		{"auth disabled", service.ErrAuthDisabled, `{"username":"u","password":"p"}`, http.StatusServiceUnavailable},
		{"invalid body", nil, `{"username":1}`, http.StatusBadRequest},
		{"missing password", nil, `{"username":"u"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postSignIn(t, &service.Service{Authorization: &mockAuth{genTokenErr: tc.err}}, tc.body)
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d; body=%s", w.Code, tc.code, w.Body.String())
			}
		})
	}
}
