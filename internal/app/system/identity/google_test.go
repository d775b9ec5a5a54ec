package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"
)

func TestNewGoogleAuth_DisabledWithoutCredentials(t *testing.T) {
	if g := NewGoogleAuth("", "secret", "http://x/cb"); g.Enabled() {
		t.Error("expected disabled without client id")
	}
	if g := NewGoogleAuth("id", "secret", "http://x/cb"); !g.Enabled() {
		t.Error("expected enabled with credentials")
	}
}

func TestGoogleAuth_AuthCodeURLCarriesState(t *testing.T) {
	g := NewGoogleAuth("client-1", "secret", "http://localhost:3000/auth/google/callback")

	u, err := url.Parse(g.AuthCodeURL("state-xyz"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-xyz" {
		t.Errorf("state: got %q", q.Get("state"))
	}
	if q.Get("client_id") != "client-1" {
		t.Errorf("client_id: got %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "http://localhost:3000/auth/google/callback" {
		t.Errorf("redirect_uri: got %q", q.Get("redirect_uri"))
	}
}

func TestGoogleAuth_Exchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "g-123",
			"email":          "Ana@Example.com",
			"verified_email": true,
			"name":           "Ana",
			"picture":        "https://example.com/a.png",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewGoogleAuth("id", "secret", srv.URL+"/cb")
	g.cfg.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	g.userInfoURL = srv.URL + "/userinfo"

	fp, err := g.Exchange(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if fp.Subject != "g-123" || fp.Provider != "google" || !fp.EmailVerified {
		t.Errorf("unexpected profile: %+v", fp)
	}
}
