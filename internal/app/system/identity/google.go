package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleAuth runs the Google OAuth2 authorization-code flow and turns the
// result into a FederatedProfile.
type GoogleAuth struct {
	cfg         *oauth2.Config
	userInfoURL string
}

// NewGoogleAuth returns nil when clientID or clientSecret is empty.
func NewGoogleAuth(clientID, clientSecret, redirectURL string) *GoogleAuth {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &GoogleAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// Enabled reports whether Google sign-in is configured.
func (g *GoogleAuth) Enabled() bool {
	return g != nil
}

// AuthCodeURL returns the consent-screen URL carrying state.
func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades the authorization code for a token and fetches the
// Google user profile.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (FederatedProfile, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return FederatedProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return FederatedProfile{}, err
	}
	resp, err := g.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return FederatedProfile{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FederatedProfile{}, fmt.Errorf("fetch user info: unexpected status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return FederatedProfile{}, fmt.Errorf("decode user info: %w", err)
	}
	return FederatedProfile{
		Provider:      models.ProviderGoogle,
		Subject:       info.ID,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}
