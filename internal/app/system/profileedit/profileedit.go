// Package profileedit applies edits to profile records through a closed set
// of field names, and replaces avatars in the object store.
package profileedit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/auditlog"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/events"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/htmlsanitize"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/normalize"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/objectstore"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.uber.org/zap"
)

// Field names accepted in a patch body.
const (
	FieldName   = "name"
	FieldPhone  = "phone"
	FieldRole   = "role"
	FieldActive = "active"
)

var (
	// SelfFields may be edited by the profile's owner.
	SelfFields = []string{FieldName, FieldPhone}
	// AdminFields may be edited by an admin on any profile.
	AdminFields = []string{FieldName, FieldPhone, FieldRole, FieldActive}
)

// AvatarPrefix is the object key prefix for avatars; the key is the prefix
// followed by the identity id.
const AvatarPrefix = "profile-photos/"

var (
	ErrEmptyPatch = errors.New("no fields to update")
	// ErrAvatarDiverged means the identity avatar was updated but the
	// profile photo URL was not.
	ErrAvatarDiverged = errors.New("avatar updated on identity but not on profile")
)

// FieldError rejects one key of a patch body.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// ParsePatch converts a JSON object into a Patch, accepting only keys in
// allowed. Unknown keys, disallowed keys, null and mistyped values are
// rejected.
func ParsePatch(body map[string]json.RawMessage, allowed []string) (profilestore.Patch, error) {
	var p profilestore.Patch
	ok := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		ok[f] = true
	}

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !ok[k] {
			return profilestore.Patch{}, &FieldError{Field: k, Reason: "not editable"}
		}
		raw := body[k]
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return profilestore.Patch{}, &FieldError{Field: k, Reason: "must not be null"}
		}
		switch k {
		case FieldName, FieldPhone:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return profilestore.Patch{}, &FieldError{Field: k, Reason: "must be a string"}
			}
			if k == FieldName {
				p.Name = &s
			} else {
				p.Phone = &s
			}
		case FieldRole:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return profilestore.Patch{}, &FieldError{Field: k, Reason: "must be a string"}
			}
			r := models.Role(strings.TrimSpace(s))
			if !r.IsValid() {
				return profilestore.Patch{}, &FieldError{Field: k, Reason: "must be user or admin"}
			}
			p.Role = &r
		case FieldActive:
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return profilestore.Patch{}, &FieldError{Field: k, Reason: "must be true or false"}
			}
			p.Active = &b
		}
	}
	if p.IsEmpty() {
		return profilestore.Patch{}, ErrEmptyPatch
	}
	return p, nil
}

// ProfileStore is the profile persistence used by the editor.
type ProfileStore interface {
	Update(ctx context.Context, id string, p profilestore.Patch, now time.Time) (*models.Profile, error)
	SetPhotoURL(ctx context.Context, id, url string, now time.Time) error
}

// IdentityUpdater changes identity display fields.
type IdentityUpdater interface {
	UpdateIdentityProfile(ctx context.Context, id string, upd identity.ProfileUpdate) (*models.Identity, error)
}

type Service struct {
	profiles   ProfileStore
	identities IdentityUpdater
	objects    objectstore.Store
	bus        events.Bus
	audit      *auditlog.Logger
	log        *zap.Logger

	Now func() time.Time
}

func NewService(profiles ProfileStore, identities IdentityUpdater, objects objectstore.Store, bus events.Bus, audit *auditlog.Logger, log *zap.Logger) *Service {
	return &Service{
		profiles:   profiles,
		identities: identities,
		objects:    objects,
		bus:        bus,
		audit:      audit,
		log:        log,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// UpdateFields writes the fields present in p plus updated_at. Text fields
// are stripped of markup and normalised first. actorID is the editor,
// which differs from identityID for admin edits.
func (s *Service) UpdateFields(ctx context.Context, actorID, identityID string, p profilestore.Patch) (*models.Profile, error) {
	if p.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	if p.Name != nil {
		v := normalize.Name(htmlsanitize.PlainText(*p.Name))
		p.Name = &v
	}
	if p.Phone != nil {
		v := normalize.Phone(htmlsanitize.PlainText(*p.Phone))
		p.Phone = &v
	}

	prof, err := s.profiles.Update(ctx, identityID, p, s.Now())
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.publish(ctx, identityID)
	s.auditPatch(ctx, actorID, identityID, p)
	return prof, nil
}

func (s *Service) auditPatch(ctx context.Context, actorID, identityID string, p profilestore.Patch) {
	var fields []string
	if p.Name != nil {
		fields = append(fields, FieldName)
	}
	if p.Phone != nil {
		fields = append(fields, FieldPhone)
	}
	if len(fields) > 0 {
		s.audit.ProfileUpdated(ctx, actorID, identityID, fields)
	}
	if p.Role != nil {
		s.audit.RoleChanged(ctx, actorID, identityID, string(*p.Role))
	}
	if p.Active != nil {
		s.audit.ActiveChanged(ctx, actorID, identityID, *p.Active)
	}
}

// UpdateAvatar stores the image under the identity's avatar key,
// overwriting any previous one, then records its URL on the identity and
// on the profile. If the profile write fails after the identity write the
// error wraps ErrAvatarDiverged.
func (s *Service) UpdateAvatar(ctx context.Context, identityID string, r io.Reader, contentType string) (string, error) {
	key := AvatarPrefix + identityID
	if err := s.objects.Put(ctx, key, r, contentType); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}
	base, err := s.objects.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("avatar url: %w", err)
	}
	// The key never changes, so a version parameter keeps caches honest.
	url := base + "?v=" + uuid.NewString()

	if _, err := s.identities.UpdateIdentityProfile(ctx, identityID, identity.ProfileUpdate{AvatarURL: &url}); err != nil {
		return "", fmt.Errorf("update identity avatar: %w", err)
	}
	if err := s.profiles.SetPhotoURL(ctx, identityID, url, s.Now()); err != nil {
		s.log.Error("avatar diverged between identity and profile",
			zap.String("identity_id", identityID),
			zap.String("url", url),
			zap.Error(err))
		return url, fmt.Errorf("%w: %v", ErrAvatarDiverged, err)
	}

	s.publish(ctx, identityID)
	s.audit.AvatarUpdated(ctx, identityID, url)
	return url, nil
}

func (s *Service) publish(ctx context.Context, identityID string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.Event{Kind: events.ProfileUpdated, IdentityID: identityID}); err != nil {
		s.log.Warn("publish profile update failed",
			zap.String("identity_id", identityID),
			zap.Error(err))
	}
}
