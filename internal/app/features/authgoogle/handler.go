// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/features/register"
	"github.com/nacholimon/opinwork-firebase/internal/app/store/audit"
	"github.com/nacholimon/opinwork-firebase/internal/app/store/oauthstate"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auditlog"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/i18n"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/invitation"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

// StateTTL bounds one round trip to Google's consent screen.
const StateTTL = 10 * time.Minute

// OAuth is the federated sign-in flow. identity.GoogleAuth satisfies it.
type OAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (identity.FederatedProfile, error)
}

// StateStore keeps single-use state tokens. oauthstate.Store satisfies it.
type StateStore interface {
	Save(ctx context.Context, st oauthstate.State) error
	Consume(ctx context.Context, state string, now time.Time) (*oauthstate.State, error)
}

// ProfileReader reads the profile that gates federated sign-in.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// Handler handles Google OAuth sign-in and registration.
type Handler struct {
	OAuth       OAuth // nil when Google is not configured
	StateStore  StateStore
	Identities  identity.Provider
	Profiles    ProfileReader
	Invitations *invitation.Service
	SessionMgr  *auth.SessionManager
	AuditLog    *auditlog.Logger
	I18n        *i18n.Bundle
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger

	// Now is the clock used for state expiry; tests replace it.
	Now func() time.Time
}

// NewHandler creates a new Google OAuth handler. oauth may be nil.
func NewHandler(
	oauth OAuth,
	stateStore StateStore,
	identities identity.Provider,
	profiles ProfileReader,
	invitations *invitation.Service,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	bundle *i18n.Bundle,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		OAuth:       oauth,
		StateStore:  stateStore,
		Identities:  identities,
		Profiles:    profiles,
		Invitations: invitations,
		SessionMgr:  sessionMgr,
		AuditLog:    audit,
		I18n:        bundle,
		ErrLog:      errLog,
		Log:         logger,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.OAuth != nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login/google                                                            |
| Starts the sign-in flow by redirecting to Google's consent screen.           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	h.begin(w, r, oauthstate.State{
		Purpose:   oauthstate.PurposeLogin,
		ReturnURL: urlutil.SafeReturn(query.Get(r, "return"), "", ""),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register/google?invitation=<id>                                         |
| Starts the registration flow. The invitation is checked before leaving so    |
| an unusable one never reaches the consent screen.                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)
	if !h.IsConfigured() {
		h.loginError(w, r, "google_unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	invID := query.Get(r, register.InvitationParam)
	st, _, err := h.Invitations.Validate(ctx, invID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "validate invitation failed", err, t("loadError"))
		return
	}
	if st != invitation.StatusValid {
		register.WriteInvalidInvitation(w, st, t)
		return
	}

	h.begin(w, r, oauthstate.State{
		Purpose:      oauthstate.PurposeRegister,
		InvitationID: invID,
	})
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request, st oauthstate.State) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.loginError(w, r, "google_unavailable")
		return
	}

	state, err := generateState()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to generate OAuth state", err, h.I18n.Printer(r)("serverError"))
		return
	}
	now := h.Now()
	st.State = state
	st.CreatedAt = now
	st.ExpiresAt = now.Add(StateTTL)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.StateStore.Save(ctx, st); err != nil {
		h.ErrLog.LogServerError(w, r, "failed to save OAuth state", err, h.I18n.Printer(r)("serverError"))
		return
	}

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("purpose", st.Purpose),
		zap.String("invitation_id", st.InvitationID))
	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Consumes the state, exchanges the code, links or creates the identity and    |
| then either signs in or completes an invitation registration.                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)

	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		h.loginError(w, r, "google_denied")
		return
	}
	if !h.IsConfigured() {
		h.loginError(w, r, "google_unavailable")
		return
	}

	state := query.Get(r, "state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.loginError(w, r, "invalid_state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	st, err := h.StateStore.Consume(ctx, state, h.Now())
	if errors.Is(err, oauthstate.ErrInvalid) {
		h.Log.Warn("invalid or expired OAuth state")
		h.loginError(w, r, "invalid_state")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "failed to consume OAuth state", err, t("serverError"))
		return
	}

	fp, err := h.OAuth.Exchange(ctx, query.Get(r, "code"))
	if err != nil {
		h.Log.Warn("Google code exchange failed", zap.Error(err))
		h.loginError(w, r, "google_failed")
		return
	}

	ident, created, err := h.Identities.SignInFederated(ctx, fp)
	if errors.Is(err, identity.ErrUnverifiedEmail) {
		h.Log.Warn("Google account email not verified", zap.String("email", fp.Email))
		h.loginError(w, r, "google_failed")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "federated sign-in failed", err, t("serverError"))
		return
	}

	if st.Purpose == oauthstate.PurposeRegister {
		h.completeRegistration(ctx, w, r, st, ident)
		return
	}
	h.completeLogin(ctx, w, r, st, ident, created)
}

func (h *Handler) completeRegistration(ctx context.Context, w http.ResponseWriter, r *http.Request, st *oauthstate.State, ident *models.Identity) {
	t := h.I18n.Printer(r)

	_, err := h.Invitations.RegisterFederated(ctx, st.InvitationID, ident)
	var se *invitation.StatusError
	switch {
	case err == nil:
	case errors.As(err, &se):
		register.WriteInvalidInvitation(w, se.Status, t)
		return
	case errors.Is(err, invitation.ErrAlreadyRegistered):
		// Already a member: the invitation stays unused and this becomes a sign-in.
		h.completeLogin(ctx, w, r, st, ident, false)
		return
	default:
		h.ErrLog.LogServerError(w, r, "federated registration failed", err, t("serverError"))
		return
	}

	if err := h.SessionMgr.SignIn(w, r, ident); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, t("serverError"))
		return
	}
	uierrors.Redirect(w, r, "/dashboard", uierrors.Success(t("registrationComplete")))
}

// completeLogin signs in a federated identity that already has a profile.
// Without one the account never came through an invitation and is refused.
func (h *Handler) completeLogin(ctx context.Context, w http.ResponseWriter, r *http.Request, st *oauthstate.State, ident *models.Identity, created bool) {
	t := h.I18n.Printer(r)

	prof, err := h.Profiles.GetByID(ctx, ident.ID)
	if errors.Is(err, profilestore.ErrNotFound) {
		h.Log.Info("federated sign-in without registration",
			zap.String("identity_id", ident.ID),
			zap.Bool("identity_created", created))
		h.signOutProvider(ctx, ident.ID)
		h.AuditLog.LoginFailed(r.Context(), audit.EventLoginFailedBadCredential, ident.Email, ident.ID, "not registered")
		h.loginError(w, r, "not_registered")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile for sign-in failed", err, t("serverError"))
		return
	}
	if !prof.IsActive() {
		h.signOutProvider(ctx, ident.ID)
		h.AuditLog.LoginFailed(r.Context(), audit.EventLoginFailedDisabled, ident.Email, ident.ID, "account disabled")
		h.loginError(w, r, "account_disabled")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, ident); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, t("serverError"))
		return
	}
	h.AuditLog.LoginSuccess(r.Context(), ident.ID, models.ProviderGoogle)
	uierrors.Redirect(w, r, urlutil.SafeReturn(st.ReturnURL, "", "/"), uierrors.Success(t("welcome")))
}

func (h *Handler) signOutProvider(ctx context.Context, id string) {
	if err := h.Identities.SignOut(ctx, id); err != nil {
		h.Log.Warn("provider sign-out failed", zap.String("identity_id", id), zap.Error(err))
	}
}

// loginError sends the browser back to the sign-in page with a code the
// client maps to a message.
func (h *Handler) loginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+code, http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return "", errors.New("random source unavailable")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
