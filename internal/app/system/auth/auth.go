package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	identityIDKey = "identity_id"
	signedInAtKey = "signed_in_at"
)

// IdentityFetcher re-reads an identity from the identity provider. Any
// fetch error signs the caller out.
type IdentityFetcher interface {
	Get(ctx context.Context, id string) (*models.Identity, error)
}

// SessionManager keeps the signed-in identity id in a signed cookie and
// resolves it against the identity provider on every request.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	log     *zap.Logger
	fetcher IdentityFetcher
}

// NewSessionManager builds the cookie store. In production (secure=true)
// cookies are Secure and SameSite=None; otherwise SameSite=Lax so plain
// http://localhost works.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "opinwork-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetIdentityFetcher installs the identity provider. Without one a session
// carries only the identity id.
func (m *SessionManager) SetIdentityFetcher(f IdentityFetcher) {
	m.fetcher = f
}

// SignIn records id as the current identity, replacing any previous one.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, id *models.Identity) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[interface{}]interface{}{
		identityIDKey: id.ID,
		signedInAtKey: time.Now().UTC().Unix(),
	}
	return sess.Save(r, w)
}

// SignOut clears the session and returns the identity id it held, if any.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, _ := m.store.Get(r, m.name)
	id, _ := sess.Values[identityIDKey].(string)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return id, sess.Save(r, w)
}

// LoadSessionIdentity injects the current identity into the request
// context. A session whose identity no longer exists is cleared; when the
// provider cannot be reached the request is served anonymously and the
// session is kept.
func (m *SessionManager) LoadSessionIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			// Tampered or rotated key; treat as anonymous.
			next.ServeHTTP(w, r)
			return
		}
		id, _ := sess.Values[identityIDKey].(string)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		if m.fetcher == nil {
			next.ServeHTTP(w, WithIdentity(r, &models.Identity{ID: id}))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		current, err := m.fetcher.Get(ctx, id)
		cancel()
		if errors.Is(err, identity.ErrNotFound) {
			m.log.Info("session identity no longer exists", zap.String("identity_id", id))
			sess.Values = map[interface{}]interface{}{}
			sess.Options.MaxAge = -1
			_ = sess.Save(r, w)
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			m.log.Warn("identity fetch failed; serving request anonymously",
				zap.String("identity_id", id),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, WithIdentity(r, current))
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-identity helpers                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentIdentityKey ctxKey = "currentIdentity"

// CurrentIdentity returns the identity & “found?” flag.
func CurrentIdentity(r *http.Request) (*models.Identity, bool) {
	id, ok := r.Context().Value(currentIdentityKey).(*models.Identity)
	return id, ok && id != nil
}

// WithIdentity returns r carrying id as the current identity.
func WithIdentity(r *http.Request, id *models.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentIdentityKey, id))
}
