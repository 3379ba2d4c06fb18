package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	identity "store-sync/internal/domain/identity"
	"store-sync/internal/domain/localstate"
	"store-sync/internal/domain/profile"
)

type mockProvider struct {
	registerIdent identity.Identity
	registerErr   error
	updateErr     error

	signInIdent identity.Identity
	signInSess  identity.Session
	signInErr   error

	resolveIdent identity.Identity
	resolveSess  identity.Session
	resolveErr   error

	signOutErr     error
	signedOut      []identity.Session
	signedOutUsers []string

	updates       map[string]identity.IdentityChanges
	disabledCalls map[string]bool
	resetEmails   []string
	resetErr      error

	observers []identity.Observer
}

func (m *mockProvider) Register(context.Context, string, string) (identity.Identity, error) {
	return m.registerIdent, m.registerErr
}

func (m *mockProvider) SignIn(context.Context, string, string) (identity.Identity, identity.Session, error) {
	return m.signInIdent, m.signInSess, m.signInErr
}

func (m *mockProvider) SignOut(_ context.Context, sess identity.Session) error {
	if m.signOutErr != nil {
		return m.signOutErr
	}
	m.signedOut = append(m.signedOut, sess)
	return nil
}

func (m *mockProvider) SignOutUser(_ context.Context, userID string) error {
	m.signedOutUsers = append(m.signedOutUsers, userID)
	return nil
}

func (m *mockProvider) Resolve(context.Context, string) (identity.Identity, identity.Session, error) {
	return m.resolveIdent, m.resolveSess, m.resolveErr
}

func (m *mockProvider) UpdateIdentity(_ context.Context, userID string, ch identity.IdentityChanges) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.updates == nil {
		m.updates = map[string]identity.IdentityChanges{}
	}
	m.updates[userID] = ch
	return nil
}

func (m *mockProvider) SetDisabled(_ context.Context, userID string, disabled bool) error {
	if m.disabledCalls == nil {
		m.disabledCalls = map[string]bool{}
	}
	m.disabledCalls[userID] = disabled
	return nil
}

func (m *mockProvider) ResetPassword(_ context.Context, email string) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.resetEmails = append(m.resetEmails, email)
	return nil
}

func (m *mockProvider) Subscribe(fn identity.Observer) func() {
	m.observers = append(m.observers, fn)
	idx := len(m.observers) - 1
	return func() { m.observers[idx] = nil }
}

func (m *mockProvider) emit(ident *identity.Identity) {
	for _, fn := range m.observers {
		if fn != nil {
			fn(ident)
		}
	}
}

type mockProfileStore struct {
	profiles map[string]profile.UserProfile
	getErr   error
	putErr   error
	mergeErr error
	listErr  error
	puts     int
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: map[string]profile.UserProfile{}}
}

func (m *mockProfileStore) Get(_ context.Context, id string) (profile.UserProfile, error) {
	if m.getErr != nil {
		return profile.UserProfile{}, m.getErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return profile.UserProfile{}, profile.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileStore) Put(_ context.Context, p profile.UserProfile) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.profiles[p.ID] = p
	return nil
}

// Merge mimics the jsonb shallow merge by round-tripping the patch
// through the json tags of UserProfile.
func (m *mockProfileStore) Merge(_ context.Context, id string, fields map[string]any) error {
	if m.mergeErr != nil {
		return m.mergeErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return profile.ErrNotFound
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(patch, &p); err != nil {
		return err
	}
	m.profiles[id] = p
	return nil
}

func (m *mockProfileStore) List(context.Context) ([]profile.UserProfile, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]profile.UserProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, nil
}

type mockLocalStore struct {
	states   map[string]localstate.State
	getErr   error
	setErr   error
	clearErr error
	events   []localstate.Event
}

func newMockLocalStore() *mockLocalStore {
	return &mockLocalStore{states: map[string]localstate.State{}}
}

func (m *mockLocalStore) Get(_ context.Context, deviceID string) (localstate.State, error) {
	if m.getErr != nil {
		return localstate.State{}, m.getErr
	}
	return m.states[deviceID], nil
}

func (m *mockLocalStore) Set(_ context.Context, deviceID string, st localstate.State) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.states[deviceID] = st
	return nil
}

func (m *mockLocalStore) SetCart(_ context.Context, deviceID string, cart json.RawMessage) error {
	if m.setErr != nil {
		return m.setErr
	}
	st := m.states[deviceID]
	st.Cart = cart
	m.states[deviceID] = st
	return nil
}

func (m *mockLocalStore) SetWishlist(_ context.Context, deviceID string, wishlist json.RawMessage) error {
	if m.setErr != nil {
		return m.setErr
	}
	st := m.states[deviceID]
	st.Wishlist = wishlist
	m.states[deviceID] = st
	return nil
}

func (m *mockLocalStore) Clear(_ context.Context, deviceID string) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	delete(m.states, deviceID)
	return nil
}

func (m *mockLocalStore) Notify(ev localstate.Event) {
	m.events = append(m.events, ev)
}

func (m *mockLocalStore) Subscribe(func(localstate.Event)) func() {
	return func() {}
}

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService(p identity.Provider, ps profile.Store, ls localstate.Store, cfg Config) *Service {
	svc := NewService(p, ps, ls, cfg, nil, log.New(io.Discard, "", 0))
	svc.now = func() time.Time { return testNow }
	return svc
}

func strPtr(s string) *string { return &s }

func TestRegister_ThenLogin_RoundTrip(t *testing.T) {
	ident := identity.Identity{ID: "u1", Email: "ann@example.com"}
	p := &mockProvider{
		registerIdent: ident,
		signInIdent:   ident,
		signInSess:    identity.Session{UserID: "u1", Email: "ann@example.com", SessionID: "s1", Token: "tok"},
	}
	profiles := newMockProfileStore()
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	created, err := svc.Register(context.Background(), RegisterInput{
		Email: "ann@example.com", Password: "secret123", DisplayName: "Ann",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if created.ID != "u1" || created.DisplayName != "Ann" || created.Role != profile.RoleUser {
		t.Fatalf("unexpected created profile: %+v", created)
	}
	if ch, ok := p.updates["u1"]; !ok || ch.DisplayName == nil || *ch.DisplayName != "Ann" {
		t.Fatalf("display name not pushed to provider: %+v", p.updates)
	}

	got, sess, err := svc.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sess.SessionID != "s1" {
		t.Fatalf("expected session s1, got %+v", sess)
	}
	if got.ID != "u1" || got.DisplayName != "Ann" {
		t.Fatalf("login did not return the stored profile: %+v", got)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(testNow) {
		t.Fatalf("expected lastLogin stamp, got %+v", got.LastLogin)
	}
	if len(profiles.profiles) != 1 {
		t.Fatalf("expected exactly one stored profile, got %d", len(profiles.profiles))
	}
}

func TestRegister_ProviderFailure_NoProfileWrite(t *testing.T) {
	p := &mockProvider{registerErr: identity.NewError(identity.CodeEmailInUse, "taken", nil)}
	profiles := newMockProfileStore()
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	_, err := svc.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "secret123"})
	if !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	if len(profiles.profiles) != 0 || profiles.puts != 0 {
		t.Fatalf("failed registration must leave no profile behind")
	}
}

func TestRegister_DisplayNameFailure_NoProfileWrite(t *testing.T) {
	p := &mockProvider{
		registerIdent: identity.Identity{ID: "u1", Email: "x@example.com"},
		updateErr:     errors.New("backend down"),
	}
	profiles := newMockProfileStore()
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "x@example.com", Password: "secret123", DisplayName: "X",
	})
	if !errors.Is(err, ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
	if profiles.puts != 0 {
		t.Fatalf("failed registration must leave no profile behind")
	}
}

func TestLogin_LazyProfileCreation_Idempotent(t *testing.T) {
	p := &mockProvider{
		signInIdent: identity.Identity{ID: "u2", Email: "bob@example.com", DisplayName: "Bob"},
		signInSess:  identity.Session{UserID: "u2", SessionID: "s1"},
	}
	profiles := newMockProfileStore()
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	first, _, err := svc.Login(context.Background(), LoginInput{Email: "bob@example.com", Password: "pw123456"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first.Role != profile.RoleUser || first.CreatedAt.IsZero() {
		t.Fatalf("lazy-created profile missing defaults: %+v", first)
	}
	if first.LastLogin == nil {
		t.Fatalf("expected lastLogin on first login")
	}

	second, _, err := svc.Login(context.Background(), LoginInput{Email: "bob@example.com", Password: "pw123456"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if profiles.puts != 1 {
		t.Fatalf("expected one create, got %d", profiles.puts)
	}
	if second.ID != first.ID || len(profiles.profiles) != 1 {
		t.Fatalf("repeat login must reuse the existing record")
	}
}

func TestLogin_DisabledAccount_NoSessionSurvives(t *testing.T) {
	p := &mockProvider{
		signInIdent: identity.Identity{ID: "u3", Email: "eve@example.com"},
		signInSess:  identity.Session{UserID: "u3", SessionID: "s1"},
	}
	profiles := newMockProfileStore()
	profiles.profiles["u3"] = profile.UserProfile{ID: "u3", Email: "eve@example.com", Role: profile.RoleUser, Disabled: true, CreatedAt: testNow}
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	_, sess, err := svc.Login(context.Background(), LoginInput{Email: "eve@example.com", Password: "pw123456"})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	if sess != (identity.Session{}) {
		t.Fatalf("disabled login must not hand back a session: %+v", sess)
	}
	if len(p.signedOutUsers) != 1 || p.signedOutUsers[0] != "u3" {
		t.Fatalf("expected forced sign-out of u3, got %v", p.signedOutUsers)
	}
}

func TestLogin_ProfileReadFailure_SessionRevoked(t *testing.T) {
	p := &mockProvider{
		signInIdent: identity.Identity{ID: "u4"},
		signInSess:  identity.Session{UserID: "u4", SessionID: "s1"},
	}
	profiles := newMockProfileStore()
	profiles.getErr = errors.New("store down")
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "x@example.com", Password: "pw123456"})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if len(p.signedOutUsers) != 1 {
		t.Fatalf("session must not survive when the disabled check cannot run")
	}
}

func TestLogin_WrongCredential(t *testing.T) {
	p := &mockProvider{signInErr: identity.NewError(identity.CodeWrongPassword, "mismatch", nil)}
	svc := newTestService(p, newMockProfileStore(), newMockLocalStore(), Config{})

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "x@example.com", Password: "bad"})
	if !errors.Is(err, ErrWrongCredential) {
		t.Fatalf("expected ErrWrongCredential, got %v", err)
	}
}

func TestLogin_UnverifiedEmail_Gated(t *testing.T) {
	p := &mockProvider{
		signInIdent: identity.Identity{ID: "u5", EmailVerified: false},
		signInSess:  identity.Session{UserID: "u5", SessionID: "s1"},
	}
	svc := newTestService(p, newMockProfileStore(), newMockLocalStore(), Config{RequireVerifiedEmail: true})

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "x@example.com", Password: "pw123456"})
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	if len(p.signedOutUsers) != 1 {
		t.Fatalf("unverified login must revoke the fresh session")
	}
}

func TestLogout_MigratesState_ThenRestoreRoundTrips(t *testing.T) {
	cart := json.RawMessage(`[{"sku":"A-1","qty":2}]`)
	wishlist := json.RawMessage(`["B-2"]`)
	p := &mockProvider{}
	profiles := newMockProfileStore()
	profiles.profiles["u1"] = profile.UserProfile{ID: "u1", Role: profile.RoleUser, CreatedAt: testNow}
	local := newMockLocalStore()
	local.states["dev1"] = localstate.State{Cart: cart, Wishlist: wishlist}
	svc := newTestService(p, profiles, local, Config{})

	sess := identity.Session{UserID: "u1", SessionID: "s1"}
	if err := svc.Logout(context.Background(), sess, "dev1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	stored := profiles.profiles["u1"]
	if stored.UserData == nil {
		t.Fatalf("expected migrated userData")
	}
	if string(stored.UserData.Cart) != string(cart) || string(stored.UserData.Wishlist) != string(wishlist) {
		t.Fatalf("migrated payload mismatch: %+v", stored.UserData)
	}
	if _, ok := local.states["dev1"]; ok {
		t.Fatalf("local state must be cleared at logout")
	}
	if len(p.signedOut) != 1 || p.signedOut[0].SessionID != "s1" {
		t.Fatalf("expected provider sign-out, got %v", p.signedOut)
	}

	local.events = nil
	svc.RestoreLocalState(context.Background(), "u1", "dev2")
	restored := local.states["dev2"]
	if string(restored.Cart) != string(cart) || string(restored.Wishlist) != string(wishlist) {
		t.Fatalf("restore did not round-trip the migrated state: %+v", restored)
	}
	if len(local.events) != 2 {
		t.Fatalf("expected cart and wishlist change events, got %v", local.events)
	}
}

func TestLogout_AbsentLocalState_MigratesEmptyLists(t *testing.T) {
	p := &mockProvider{}
	profiles := newMockProfileStore()
	profiles.profiles["u1"] = profile.UserProfile{ID: "u1", Role: profile.RoleUser}
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	if err := svc.Logout(context.Background(), identity.Session{UserID: "u1"}, "dev1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	stored := profiles.profiles["u1"]
	if stored.UserData == nil || string(stored.UserData.Cart) != "[]" || string(stored.UserData.Wishlist) != "[]" {
		t.Fatalf("expected empty-list migration, got %+v", stored.UserData)
	}
}

func TestLogout_MigrationFailure_Swallowed(t *testing.T) {
	p := &mockProvider{}
	profiles := newMockProfileStore()
	profiles.mergeErr = errors.New("store down")
	local := newMockLocalStore()
	local.states["dev1"] = localstate.State{Cart: json.RawMessage(`["x"]`)}
	svc := newTestService(p, profiles, local, Config{})

	if err := svc.Logout(context.Background(), identity.Session{UserID: "u1", SessionID: "s1"}, "dev1"); err != nil {
		t.Fatalf("migration failure must not block sign-out: %v", err)
	}
	if _, ok := local.states["dev1"]; ok {
		t.Fatalf("local state is cleared even when the durable write failed")
	}
	if len(p.signedOut) != 1 {
		t.Fatalf("expected sign-out despite migration failure")
	}
}

func TestLogout_SignOutFailure_Propagates(t *testing.T) {
	p := &mockProvider{signOutErr: errors.New("backend down")}
	svc := newTestService(p, newMockProfileStore(), newMockLocalStore(), Config{})

	err := svc.Logout(context.Background(), identity.Session{UserID: "u1"}, "")
	if !errors.Is(err, ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
}

func TestRestoreLocalState_NoUserData_Noop(t *testing.T) {
	profiles := newMockProfileStore()
	profiles.profiles["u1"] = profile.UserProfile{ID: "u1"}
	local := newMockLocalStore()
	svc := newTestService(&mockProvider{}, profiles, local, Config{})

	svc.RestoreLocalState(context.Background(), "u1", "dev1")
	if len(local.states) != 0 || len(local.events) != 0 {
		t.Fatalf("restore without migrated data must be a no-op")
	}
}

func TestCurrentSession_NoSession_DegradesToNil(t *testing.T) {
	p := &mockProvider{resolveErr: identity.ErrNoSession}
	svc := newTestService(p, newMockProfileStore(), newMockLocalStore(), Config{})

	got, err := svc.CurrentSession(context.Background(), "tok")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
	}
}

func TestCurrentSession_StoreFailure_DegradesToNil(t *testing.T) {
	p := &mockProvider{resolveIdent: identity.Identity{ID: "u1"}}
	profiles := newMockProfileStore()
	profiles.getErr = errors.New("store down")
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	got, err := svc.CurrentSession(context.Background(), "tok")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
	}
}

func TestCurrentSession_Disabled_ForbiddenAndRevoked(t *testing.T) {
	p := &mockProvider{resolveIdent: identity.Identity{ID: "u1"}}
	profiles := newMockProfileStore()
	profiles.profiles["u1"] = profile.UserProfile{ID: "u1", Disabled: true}
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	_, err := svc.CurrentSession(context.Background(), "tok")
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	if len(p.signedOutUsers) != 1 {
		t.Fatalf("expected forced sign-out of the disabled account")
	}
}

func TestObserveSessionChanges_DeliveryAndCancel(t *testing.T) {
	p := &mockProvider{}
	profiles := newMockProfileStore()
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	var got []*profile.UserProfile
	cancel := svc.ObserveSessionChanges(func(p *profile.UserProfile) { got = append(got, p) })

	p.emit(&identity.Identity{ID: "u1", Email: "ann@example.com"})
	if len(got) != 1 || got[0] == nil || got[0].ID != "u1" {
		t.Fatalf("expected profile delivery, got %+v", got)
	}
	if got[0].LastLogin != nil {
		t.Fatalf("observer path must not stamp lastLogin")
	}
	if len(profiles.profiles) != 1 {
		t.Fatalf("expected lazy creation from the auth-change stream")
	}

	p.emit(nil)
	if len(got) != 2 || got[1] != nil {
		t.Fatalf("expected nil delivery on sign-out, got %+v", got)
	}

	cancel()
	cancel()
	p.emit(&identity.Identity{ID: "u1"})
	if len(got) != 2 {
		t.Fatalf("cancelled observer must not receive events")
	}
}

func TestObserveSessionChanges_Disabled_DeliversNil(t *testing.T) {
	p := &mockProvider{}
	profiles := newMockProfileStore()
	profiles.profiles["u1"] = profile.UserProfile{ID: "u1", Disabled: true}
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	var got []*profile.UserProfile
	svc.ObserveSessionChanges(func(p *profile.UserProfile) { got = append(got, p) })
	p.emit(&identity.Identity{ID: "u1"})

	if len(got) != 1 || got[0] != nil {
		t.Fatalf("disabled account must observe as signed out, got %+v", got)
	}
	if len(p.signedOutUsers) != 1 {
		t.Fatalf("expected forced sign-out")
	}
}

func TestUpdateProfile_MergeKeepsUntouchedFields(t *testing.T) {
	p := &mockProvider{}
	profiles := newMockProfileStore()
	profiles.profiles["u1"] = profile.UserProfile{
		ID: "u1", Email: "ann@example.com", DisplayName: "Ann",
		PhoneNumber: "555-0101", Role: profile.RoleUser, CreatedAt: testNow,
	}
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	sess := identity.Session{UserID: "u1"}
	err := svc.UpdateProfile(context.Background(), &sess, "", ProfileChanges{DisplayName: strPtr("Annie")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got := profiles.profiles["u1"]
	if got.DisplayName != "Annie" {
		t.Fatalf("expected merged display name, got %q", got.DisplayName)
	}
	if got.Email != "ann@example.com" || got.PhoneNumber != "555-0101" {
		t.Fatalf("untouched fields must survive the merge: %+v", got)
	}
	if got.UpdatedAt == nil {
		t.Fatalf("expected updatedAt stamp")
	}
	if ch, ok := p.updates["u1"]; !ok || ch.DisplayName == nil {
		t.Fatalf("self-update must push display name to the provider")
	}
}

func TestUpdateProfile_AdminTarget_SkipsProviderIdentity(t *testing.T) {
	p := &mockProvider{}
	profiles := newMockProfileStore()
	profiles.profiles["u2"] = profile.UserProfile{ID: "u2", Role: profile.RoleUser}
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	sess := identity.Session{UserID: "admin1"}
	err := svc.UpdateProfile(context.Background(), &sess, "u2", ProfileChanges{DisplayName: strPtr("New")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(p.updates) != 0 {
		t.Fatalf("cross-user update must not touch the provider identity: %+v", p.updates)
	}
	if profiles.profiles["u2"].DisplayName != "New" {
		t.Fatalf("expected stored profile update")
	}
}

func TestUpdateProfile_Validation(t *testing.T) {
	svc := newTestService(&mockProvider{}, newMockProfileStore(), newMockLocalStore(), Config{})

	sess := identity.Session{UserID: "u1"}
	if err := svc.UpdateProfile(context.Background(), &sess, "", ProfileChanges{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty change set, got %v", err)
	}
	if err := svc.UpdateProfile(context.Background(), nil, "", ProfileChanges{DisplayName: strPtr("X")}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if err := svc.UpdateProfile(context.Background(), &sess, "", ProfileChanges{Address: strPtr("somewhere")}); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestListProfiles_DegradesToEmpty(t *testing.T) {
	profiles := newMockProfileStore()
	profiles.listErr = errors.New("store down")
	svc := newTestService(&mockProvider{}, profiles, newMockLocalStore(), Config{})

	got := svc.ListProfiles(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestSetDisabled_RevokesSessions(t *testing.T) {
	p := &mockProvider{}
	profiles := newMockProfileStore()
	profiles.profiles["u1"] = profile.UserProfile{ID: "u1", Role: profile.RoleUser}
	svc := newTestService(p, profiles, newMockLocalStore(), Config{})

	if err := svc.SetDisabled(context.Background(), "u1", true); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !p.disabledCalls["u1"] {
		t.Fatalf("expected provider disable call")
	}
	if !profiles.profiles["u1"].Disabled {
		t.Fatalf("expected stored profile flagged disabled")
	}
	if len(p.signedOutUsers) != 1 {
		t.Fatalf("disabling must force sign-out")
	}

	if err := svc.SetDisabled(context.Background(), "u1", false); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(p.signedOutUsers) != 1 {
		t.Fatalf("re-enabling must not force sign-out")
	}
}

func TestResetPassword_MapsProviderCodes(t *testing.T) {
	p := &mockProvider{resetErr: identity.NewError(identity.CodeUserNotFound, "no account", nil)}
	svc := newTestService(p, newMockProfileStore(), newMockLocalStore(), Config{})

	if err := svc.ResetPassword(context.Background(), "ghost@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
