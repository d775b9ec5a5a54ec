package inputval

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"user @example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

type signupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone,omitempty"`
}

func TestDecodeJSON_Valid(t *testing.T) {
	body := `{"email":"ana@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var in signupInput
	if err := DecodeJSON(rec, req, &in); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if in.Email != "ana@example.com" {
		t.Errorf("email: got %q", in.Email)
	}
}

func TestDecodeJSON_UnknownField(t *testing.T) {
	body := `{"email":"ana@example.com","password":"secret1","role":"admin"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var in signupInput
	err := DecodeJSON(httptest.NewRecorder(), req, &in)
	if !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected ErrMalformedBody, got %v", err)
	}
}

func TestDecodeJSON_FieldErrors(t *testing.T) {
	body := `{"email":"not-an-email","password":"123"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var in signupInput
	err := DecodeJSON(httptest.NewRecorder(), req, &in)

	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if fe["email"] != "must be a valid email" {
		t.Errorf("email: got %q", fe["email"])
	}
	if fe["password"] != "must be at least 6" {
		t.Errorf("password: got %q", fe["password"])
	}
}

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		wantLen int
	}{
		{"object", `{"name":"Ana","active":false}`, false, 2},
		{"empty object", `{}`, false, 0},
		{"null", `null`, true, 0},
		{"array", `[1,2]`, true, 0},
		{"truncated", `{"name":`, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(tt.body))
			obj, err := DecodeObject(httptest.NewRecorder(), req)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedBody) {
					t.Errorf("expected ErrMalformedBody, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeObject: %v", err)
			}
			if len(obj) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(obj), tt.wantLen)
			}
		})
	}
}
