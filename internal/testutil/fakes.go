package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	invitationstore "github.com/nacholimon/opinwork-firebase/internal/app/store/invitations"
	profilestore "github.com/nacholimon/opinwork-firebase/internal/app/store/profiles"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/identity"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/normalize"
	"github.com/nacholimon/opinwork-firebase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Invitations                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// FakeInvitations is an in-memory invitation store with the same
// conditional MarkUsed semantics as the Mongo store.
type FakeInvitations struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Invitation

	CreateErr error
	GetErr    error
	MarkErr   error
}

func NewFakeInvitations() *FakeInvitations {
	return &FakeInvitations{items: make(map[primitive.ObjectID]models.Invitation)}
}

func (f *FakeInvitations) Create(_ context.Context, inv models.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.items[inv.ID] = inv
	return nil
}

func (f *FakeInvitations) GetByID(_ context.Context, id primitive.ObjectID) (*models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	inv, ok := f.items[id]
	if !ok {
		return nil, invitationstore.ErrNotFound
	}
	return &inv, nil
}

func (f *FakeInvitations) List(_ context.Context) ([]models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	out := make([]models.Invitation, 0, len(f.items))
	for _, inv := range f.items {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeInvitations) MarkUsed(_ context.Context, id primitive.ObjectID, usedBy string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MarkErr != nil {
		return f.MarkErr
	}
	inv, ok := f.items[id]
	if !ok {
		return invitationstore.ErrNotFound
	}
	if inv.Used || inv.ExpiresAt.Before(at) {
		return invitationstore.ErrNotConsumable
	}
	inv.Used = true
	inv.UsedBy = &usedBy
	inv.UsedAt = &at
	f.items[id] = inv
	return nil
}

// Put stores inv directly, bypassing CreateErr.
func (f *FakeInvitations) Put(inv models.Invitation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[inv.ID] = inv
}

// Len reports how many invitations are stored.
func (f *FakeInvitations) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Profiles                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// FakeProfiles is an in-memory profile store.
type FakeProfiles struct {
	mu    sync.Mutex
	items map[string]models.Profile

	CreateErr   error
	GetErr      error
	UpdateErr   error
	SetPhotoErr error
}

func NewFakeProfiles() *FakeProfiles {
	return &FakeProfiles{items: make(map[string]models.Profile)}
}

func (f *FakeProfiles) Create(_ context.Context, p models.Profile) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return models.Profile{}, f.CreateErr
	}
	if _, ok := f.items[p.ID]; ok {
		return models.Profile{}, profilestore.ErrExists
	}
	p.Email = normalize.Email(p.Email)
	p.Name = normalize.Name(p.Name)
	p.Phone = normalize.Phone(p.Phone)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	f.items[p.ID] = p
	return p, nil
}

func (f *FakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	p, ok := f.items[id]
	if !ok {
		return nil, profilestore.ErrNotFound
	}
	return &p, nil
}

func (f *FakeProfiles) RawRole(_ context.Context, id string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return "", false, f.GetErr
	}
	p, ok := f.items[id]
	if !ok {
		return "", false, nil
	}
	return string(p.Role), true, nil
}

func (f *FakeProfiles) List(_ context.Context) ([]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	out := make([]models.Profile, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (f *FakeProfiles) Update(_ context.Context, id string, p profilestore.Patch, now time.Time) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	cur, ok := f.items[id]
	if !ok {
		return nil, profilestore.ErrNotFound
	}
	if p.Name != nil {
		cur.Name = *p.Name
	}
	if p.Phone != nil {
		cur.Phone = *p.Phone
	}
	if p.Role != nil {
		cur.Role = *p.Role
	}
	if p.Active != nil {
		cur.Active = models.Bool(*p.Active)
	}
	cur.UpdatedAt = now
	f.items[id] = cur
	return &cur, nil
}

func (f *FakeProfiles) SetPhotoURL(_ context.Context, id, url string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetPhotoErr != nil {
		return f.SetPhotoErr
	}
	cur, ok := f.items[id]
	if !ok {
		return profilestore.ErrNotFound
	}
	cur.PhotoURL = url
	cur.UpdatedAt = now
	f.items[id] = cur
	return nil
}

func (f *FakeProfiles) AnyAdmin(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return false, f.GetErr
	}
	for _, p := range f.items {
		if p.Role == models.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

// Put stores p verbatim.
func (f *FakeProfiles) Put(p models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[p.ID] = p
}

// Get returns the stored profile without error injection.
func (f *FakeProfiles) Get(id string) (models.Profile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	return p, ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Identities                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// FakeIdentities implements identity.Provider in memory. Passwords are
// kept in the clear.
type FakeIdentities struct {
	mu        sync.Mutex
	byID      map[string]*models.Identity
	passwords map[string]string
	federated map[string]string

	CreateErr error
	UpdateErr error
	GetErr    error
	SignedOut []string
}

func NewFakeIdentities() *FakeIdentities {
	return &FakeIdentities{
		byID:      make(map[string]*models.Identity),
		passwords: make(map[string]string),
		federated: make(map[string]string),
	}
}

var _ identity.Provider = (*FakeIdentities)(nil)

func (f *FakeIdentities) Get(_ context.Context, id string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	ident, ok := f.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *ident
	return &cp, nil
}

func (f *FakeIdentities) byEmail(email string) *models.Identity {
	for _, ident := range f.byID {
		if ident.Email == email {
			return ident
		}
	}
	return nil
}

func (f *FakeIdentities) CreateIdentity(_ context.Context, email, password, displayName string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	email = normalize.Email(email)
	if !strings.Contains(email, "@") {
		return nil, identity.ErrInvalidEmail
	}
	if len(password) < identity.MinPasswordLength {
		return nil, identity.ErrWeakPassword
	}
	if f.byEmail(email) != nil {
		return nil, identity.ErrEmailInUse
	}
	ident := &models.Identity{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Provider:    models.ProviderPassword,
		CreatedAt:   time.Now().UTC(),
	}
	f.byID[ident.ID] = ident
	f.passwords[ident.ID] = password
	cp := *ident
	return &cp, nil
}

func (f *FakeIdentities) SignIn(_ context.Context, email, password string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident := f.byEmail(normalize.Email(email))
	if ident == nil || f.passwords[ident.ID] != password {
		return nil, identity.ErrInvalidCredentials
	}
	cp := *ident
	return &cp, nil
}

func (f *FakeIdentities) SignInFederated(_ context.Context, fp identity.FederatedProfile) (*models.Identity, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !fp.EmailVerified {
		return nil, false, identity.ErrUnverifiedEmail
	}
	subject := fp.Provider + ":" + fp.Subject
	if id, ok := f.federated[subject]; ok {
		cp := *f.byID[id]
		return &cp, false, nil
	}
	if ident := f.byEmail(normalize.Email(fp.Email)); ident != nil {
		f.federated[subject] = ident.ID
		cp := *ident
		return &cp, false, nil
	}
	ident := &models.Identity{
		ID:          uuid.NewString(),
		Email:       normalize.Email(fp.Email),
		DisplayName: fp.Name,
		AvatarURL:   fp.Picture,
		Provider:    fp.Provider,
		CreatedAt:   time.Now().UTC(),
	}
	f.byID[ident.ID] = ident
	f.federated[subject] = ident.ID
	cp := *ident
	return &cp, true, nil
}

func (f *FakeIdentities) SignOut(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignedOut = append(f.SignedOut, id)
	return nil
}

func (f *FakeIdentities) UpdateIdentityProfile(_ context.Context, id string, upd identity.ProfileUpdate) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	ident, ok := f.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	if upd.DisplayName != nil {
		ident.DisplayName = *upd.DisplayName
	}
	if upd.AvatarURL != nil {
		ident.AvatarURL = *upd.AvatarURL
	}
	cp := *ident
	return &cp, nil
}

// Add registers ident with password and returns it.
func (f *FakeIdentities) Add(ident models.Identity, password string) *models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ident.ID == "" {
		ident.ID = uuid.NewString()
	}
	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = time.Now().UTC()
	}
	f.byID[ident.ID] = &ident
	f.passwords[ident.ID] = password
	cp := ident
	return &cp
}

// Len reports how many identities exist.
func (f *FakeIdentities) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Object store                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// FakeObjects is an in-memory object store serving URLs under BaseURL.
type FakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	BaseURL string
	PutErr  error
}

func NewFakeObjects() *FakeObjects {
	return &FakeObjects{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		BaseURL: "https://files.example.com",
	}
}

func (f *FakeObjects) Put(_ context.Context, key string, r io.Reader, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PutErr != nil {
		return f.PutErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	f.types[key] = contentType
	return nil
}

func (f *FakeObjects) URL(_ context.Context, key string) (string, error) {
	return strings.TrimRight(f.BaseURL, "/") + "/" + key, nil
}

// Object returns the stored bytes for key.
func (f *FakeObjects) Object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	return b, ok
}
