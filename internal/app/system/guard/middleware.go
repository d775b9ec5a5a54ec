package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/nacholimon/opinwork-firebase/internal/app/system/auth"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/metrics"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/rolelookup"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Resolver supplies the role state for an identity. rolelookup.Watcher
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, identityID string) rolelookup.State
}

// Guard holds what the route middleware needs.
type Guard struct {
	roles   Resolver
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(roles Resolver, m *metrics.Metrics, log *zap.Logger) *Guard {
	return &Guard{roles: roles, metrics: m, log: log}
}

type ctxKey struct{}

// RoleFrom returns the role state resolved by RequireAdmin for this request.
func RoleFrom(ctx context.Context) (rolelookup.State, bool) {
	s, ok := ctx.Value(ctxKey{}).(rolelookup.State)
	return s, ok
}

// RequireSignedIn renders next only when an identity is present.
func (g *Guard) RequireSignedIn(next http.Handler) http.Handler {
	return g.require(AuthenticatedOnly, next)
}

// RequireAdmin renders next only when the identity's role is admin.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return g.require(AdminOnly, next)
}

func (g *Guard) require(c Capability, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, present := auth.CurrentIdentity(r)

		var rs rolelookup.State
		if present && c == AdminOnly {
			ctx, cancel := context.WithTimeout(r.Context(), timeouts.RoleWait())
			rs = g.roles.Resolve(ctx, id.ID)
			cancel()
		}

		d := Decide(present, c, rs)
		g.metrics.GuardDecision(c.String(), d.Outcome.String())

		switch d.Outcome {
		case Render:
			if c == AdminOnly {
				r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, rs))
			}
			next.ServeHTTP(w, r)
		case Loading:
			g.log.Debug("role lookup still pending",
				zap.String("identity_id", id.ID),
				zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		case Redirect:
			if present {
				g.log.Info("route guard denied access",
					zap.String("identity_id", id.ID),
					zap.String("role", rs.Label()),
					zap.String("path", r.URL.Path))
			}
			redirect(w, r, d.Target, present)
		}
	})
}

// redirect sends the caller to target in the form its client understands.
// Anonymous callers sent to the login page carry a return parameter.
func redirect(w http.ResponseWriter, r *http.Request, target string, present bool) {
	if target == LoginPath {
		target += "?return=" + url.QueryEscape(r.URL.RequestURI())
	}

	status := http.StatusUnauthorized
	if present {
		status = http.StatusForbidden
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(status)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	writeJSON(w, status, map[string]string{"redirect": target})
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
