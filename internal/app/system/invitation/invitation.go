// Package invitation runs the invitation lifecycle: generating
// time-limited registration links, validating them when the registration
// page loads, and consuming them when a registration completes.
package invitation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	invitationstore "github.com/nacholimon/opinwork-firebase/internal/app/store/invitations"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auditlog"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/metrics"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AllowedWindows are the validity periods, in days, an admin may choose.
var AllowedWindows = []int{1, 3, 7, 14, 30}

// ErrInvalidWindow is returned by Generate for a window outside
// AllowedWindows.
var ErrInvalidWindow = errors.New("invitation window must be one of 1, 3, 7, 14 or 30 days")

// Status is the outcome of validating an invitation id.
type Status string

const (
	StatusValid       Status = "valid"
	StatusMissingID   Status = "missing_id"
	StatusNotFound    Status = "not_found"
	StatusAlreadyUsed Status = "already_used"
	StatusExpired     Status = "expired"
)

// StatusError reports that an invitation could not be consumed because it
// is not valid.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return "invitation is not valid: " + string(e.Status)
}

// InvitationStore persists invitations.
type InvitationStore interface {
	Create(ctx context.Context, inv models.Invitation) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Invitation, error)
	List(ctx context.Context) ([]models.Invitation, error)
	MarkUsed(ctx context.Context, id primitive.ObjectID, usedBy string, at time.Time) error
}

// ProfileStore creates profile records for new registrants.
type ProfileStore interface {
	Create(ctx context.Context, p models.Profile) (models.Profile, error)
}

// IdentityCreator creates password identities.
type IdentityCreator interface {
	CreateIdentity(ctx context.Context, email, password, displayName string) (*models.Identity, error)
}

type Service struct {
	invitations InvitationStore
	profiles    ProfileStore
	identities  IdentityCreator
	baseURL     string
	audit       *auditlog.Logger
	metrics     *metrics.Metrics
	log         *zap.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

func NewService(inv InvitationStore, profiles ProfileStore, identities IdentityCreator, baseURL string, audit *auditlog.Logger, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		invitations: inv,
		profiles:    profiles,
		identities:  identities,
		baseURL:     baseURL,
		audit:       audit,
		metrics:     m,
		log:         log,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// Link builds the registration link for invitation id.
func Link(baseURL string, id primitive.ObjectID) string {
	return strings.TrimRight(baseURL, "/") + "/register?invitation=" + id.Hex()
}

func allowedWindow(days int) bool {
	for _, d := range AllowedWindows {
		if d == days {
			return true
		}
	}
	return false
}

// Generate creates an active invitation valid for days days. The id is
// assigned before the write so the stored record carries its link from
// the start.
func (s *Service) Generate(ctx context.Context, days int, createdBy string) (*models.Invitation, error) {
	if !allowedWindow(days) {
		return nil, ErrInvalidWindow
	}
	now := s.Now()
	id := primitive.NewObjectIDFromTimestamp(now)
	inv := models.Invitation{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, days),
		Link:      Link(s.baseURL, id),
		CreatedBy: createdBy,
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	s.audit.InvitationCreated(ctx, createdBy, id.Hex(), days)
	s.metrics.InvitationGenerated(fmt.Sprint(days))
	return &inv, nil
}

// Validate classifies rawID. Checks run in order: missing id, not found,
// already used, expired. A store failure is returned as an error with an
// empty status.
func (s *Service) Validate(ctx context.Context, rawID string) (Status, *models.Invitation, error) {
	st, inv, err := s.validate(ctx, rawID)
	if err != nil {
		return "", nil, err
	}
	s.metrics.InvitationValidated(string(st))
	return st, inv, nil
}

func (s *Service) validate(ctx context.Context, rawID string) (Status, *models.Invitation, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return StatusMissingID, nil, nil
	}
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return StatusNotFound, nil, nil
	}
	inv, err := s.invitations.GetByID(ctx, id)
	if errors.Is(err, invitationstore.ErrNotFound) {
		return StatusNotFound, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("load invitation: %w", err)
	}
	switch inv.State(s.Now()) {
	case models.InvitationUsed:
		return StatusAlreadyUsed, inv, nil
	case models.InvitationExpired:
		return StatusExpired, inv, nil
	default:
		return StatusValid, inv, nil
	}
}

// Entry is an invitation with its state derived at listing time.
type Entry struct {
	models.Invitation
	State models.InvitationState `json:"state"`
}

// List returns every invitation, newest first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	invs, err := s.invitations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	now := s.Now()
	out := make([]Entry, len(invs))
	for i, inv := range invs {
		out[i] = Entry{Invitation: inv, State: inv.State(now)}
	}
	return out, nil
}
