// Package auditlog records security-relevant events to the audit store and
// to the structured log.
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/nacholimon/opinwork-firebase/internal/app/store/audit"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration. Each value is one of
// "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only) or "off".
type Config struct {
	Auth       string
	Admin      string
	Invitation string
}

// Logger provides convenience methods for logging audit events.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case "db"
// destinations are skipped.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

type requestMetaKey struct{}

type requestMeta struct {
	ip        string
	userAgent string
}

// WithRequestMeta is middleware that records the client IP and user agent
// in the request context so service-layer audit calls can attach them.
func WithRequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := requestMeta{ip: ratelimit.ClientIP(r), userAgent: r.UserAgent()}
		ctx := context.WithValue(r.Context(), requestMetaKey{}, meta)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.IdentityID != "" {
		fields = append(fields, zap.String("identity_id", event.IdentityID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.InvitationID != "" {
		fields = append(fields, zap.String("invitation_id", event.InvitationID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	case audit.CategoryInvitation:
		return l.config.Invitation
	default:
		return "all"
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if meta, ok := ctx.Value(requestMetaKey{}).(requestMeta); ok {
		if event.IP == "" {
			event.IP = meta.ip
		}
		if event.UserAgent == "" {
			event.UserAgent = meta.userAgent
		}
	}

	if (setting == "all" || setting == "log") && l.zapLog != nil {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, identityID, provider string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventLoginSuccess,
		IdentityID: identityID,
		Success:    true,
		Details:    map[string]string{"provider": provider},
	})
}

// LoginFailed logs a rejected sign-in. eventType is one of the
// audit.EventLoginFailed* constants.
func (l *Logger) LoginFailed(ctx context.Context, eventType, email, identityID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		IdentityID:    identityID,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, identityID string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventLogout,
		IdentityID: identityID,
		Success:    true,
	})
}

// --- Invitation Events ---

// InvitationCreated logs a generated invitation.
func (l *Logger) InvitationCreated(ctx context.Context, actorID, invitationID string, days int) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryInvitation,
		EventType:    audit.EventInvitationCreated,
		ActorID:      actorID,
		InvitationID: invitationID,
		Success:      true,
		Details:      map[string]string{"days": strconv.Itoa(days)},
	})
}

// RegistrationCompleted logs a registration that consumed an invitation.
func (l *Logger) RegistrationCompleted(ctx context.Context, identityID, invitationID, provider string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryInvitation,
		EventType:    audit.EventRegistrationCompleted,
		IdentityID:   identityID,
		InvitationID: invitationID,
		Success:      true,
		Details:      map[string]string{"provider": provider},
	})
}

// InvitationMarkFailed logs a registration whose invitation could not be
// marked as used after the identity and profile were created.
func (l *Logger) InvitationMarkFailed(ctx context.Context, identityID, invitationID string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryInvitation,
		EventType:     audit.EventInvitationMarkFailed,
		IdentityID:    identityID,
		InvitationID:  invitationID,
		Success:       false,
		FailureReason: reason,
	})
}

// RegistrationRejected logs a registration refused by invitation validation.
func (l *Logger) RegistrationRejected(ctx context.Context, invitationID, status string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryInvitation,
		EventType:     audit.EventRegistrationRejected,
		InvitationID:  invitationID,
		Success:       false,
		FailureReason: status,
	})
}

// --- Admin Events ---

// ProfileUpdated logs a profile field update.
func (l *Logger) ProfileUpdated(ctx context.Context, actorID, identityID string, fields []string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventProfileUpdated,
		ActorID:    actorID,
		IdentityID: identityID,
		Success:    true,
		Details:    map[string]string{"fields": strings.Join(fields, ",")},
	})
}

// RoleChanged logs a role assignment.
func (l *Logger) RoleChanged(ctx context.Context, actorID, identityID, role string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventRoleChanged,
		ActorID:    actorID,
		IdentityID: identityID,
		Success:    true,
		Details:    map[string]string{"role": role},
	})
}

// ActiveChanged logs a profile being enabled or disabled.
func (l *Logger) ActiveChanged(ctx context.Context, actorID, identityID string, active bool) {
	eventType := audit.EventUserDisabled
	if active {
		eventType = audit.EventUserEnabled
	}
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  eventType,
		ActorID:    actorID,
		IdentityID: identityID,
		Success:    true,
	})
}

// AvatarUpdated logs an avatar replacement.
func (l *Logger) AvatarUpdated(ctx context.Context, identityID, url string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventAvatarUpdated,
		ActorID:    identityID,
		IdentityID: identityID,
		Success:    true,
		Details:    map[string]string{"url": url},
	})
}

// FirstAdminClaimed logs the bootstrap promotion of the first admin.
func (l *Logger) FirstAdminClaimed(ctx context.Context, identityID string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventFirstAdminClaimed,
		ActorID:    identityID,
		IdentityID: identityID,
		Success:    true,
	})
}
