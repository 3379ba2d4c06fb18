package identity

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"store-sync/internal/config"
	domain "store-sync/internal/domain/identity"
	"store-sync/internal/pkg/token"
)

type mockCredStore struct {
	byID      map[string]domain.Credential
	createErr error
}

func newMockCredStore() *mockCredStore {
	return &mockCredStore{byID: map[string]domain.Credential{}}
}

func (m *mockCredStore) Create(_ context.Context, c domain.Credential) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[c.UserID] = c
	return nil
}

func (m *mockCredStore) GetByID(_ context.Context, userID string) (domain.Credential, error) {
	c, ok := m.byID[userID]
	if !ok {
		return domain.Credential{}, domain.ErrCredentialNotFound
	}
	return c, nil
}

func (m *mockCredStore) GetByEmail(_ context.Context, email string) (domain.Credential, error) {
	for _, c := range m.byID {
		if c.Email == email {
			return c, nil
		}
	}
	return domain.Credential{}, domain.ErrCredentialNotFound
}

func (m *mockCredStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrCredentialNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *mockCredStore) UpdateFields(_ context.Context, userID string, ch domain.IdentityChanges) error {
	c, ok := m.byID[userID]
	if !ok {
		return domain.ErrCredentialNotFound
	}
	if ch.DisplayName != nil {
		c.DisplayName = *ch.DisplayName
	}
	if ch.PhotoURL != nil {
		c.PhotoURL = *ch.PhotoURL
	}
	m.byID[userID] = c
	return nil
}

func (m *mockCredStore) SetDisabled(_ context.Context, userID string, disabled bool) error {
	c, ok := m.byID[userID]
	if !ok {
		return domain.ErrCredentialNotFound
	}
	c.Disabled = disabled
	m.byID[userID] = c
	return nil
}

type mockRegistry struct {
	active map[string]bool
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{active: map[string]bool{}}
}

func (m *mockRegistry) key(userID, sessionID string) string { return userID + ":" + sessionID }

func (m *mockRegistry) Add(_ context.Context, userID, sessionID string, _ time.Duration) error {
	m.active[m.key(userID, sessionID)] = true
	return nil
}

func (m *mockRegistry) Active(_ context.Context, userID, sessionID string) (bool, error) {
	return m.active[m.key(userID, sessionID)], nil
}

func (m *mockRegistry) Remove(_ context.Context, userID, sessionID string) error {
	delete(m.active, m.key(userID, sessionID))
	return nil
}

func (m *mockRegistry) RemoveAll(_ context.Context, userID string) error {
	for k := range m.active {
		if len(k) > len(userID) && k[:len(userID)+1] == userID+":" {
			delete(m.active, k)
		}
	}
	return nil
}

func newTestProvider(creds *mockCredStore, reg *mockRegistry, cfg config.AuthConfig) *Service {
	tokens := token.NewHMACService("test-secret", time.Hour)
	return NewService(creds, tokens, reg, cfg, log.New(io.Discard, "", 0))
}

func seedCredential(t *testing.T, creds *mockCredStore, userID, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	creds.byID[userID] = domain.Credential{
		UserID:       userID,
		Email:        email,
		PasswordHash: string(hash),
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestProvider(newMockCredStore(), newMockRegistry(), config.AuthConfig{})

	_, err := svc.Register(context.Background(), "not-an-email", "longenough")
	if domain.CodeOf(err) != domain.CodeInvalidEmail {
		t.Fatalf("expected CodeInvalidEmail, got %v", err)
	}

	_, err = svc.Register(context.Background(), "ok@example.com", "short")
	if domain.CodeOf(err) != domain.CodeWeakPassword {
		t.Fatalf("expected CodeWeakPassword, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	creds := newMockCredStore()
	svc := newTestProvider(creds, newMockRegistry(), config.AuthConfig{})

	if _, err := svc.Register(context.Background(), "Dup@Example.com", "secret123"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err := svc.Register(context.Background(), "dup@example.com", "secret123")
	if domain.CodeOf(err) != domain.CodeEmailInUse {
		t.Fatalf("expected CodeEmailInUse, got %v", err)
	}
	if len(creds.byID) != 1 {
		t.Fatalf("expected a single credential, got %d", len(creds.byID))
	}
}

func TestSignIn_ResolveSignOut_RoundTrip(t *testing.T) {
	creds := newMockCredStore()
	reg := newMockRegistry()
	seedCredential(t, creds, "u1", "ann@example.com", "secret123")
	svc := newTestProvider(creds, reg, config.AuthConfig{})

	ident, sess, err := svc.SignIn(context.Background(), "Ann@Example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ident.ID != "u1" || sess.UserID != "u1" || sess.Token == "" || sess.SessionID == "" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	gotIdent, gotSess, err := svc.Resolve(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotIdent.ID != "u1" || gotSess.SessionID != sess.SessionID {
		t.Fatalf("resolve mismatch: %+v", gotSess)
	}

	if err := svc.SignOut(context.Background(), sess); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, _, err := svc.Resolve(context.Background(), sess.Token); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession after sign-out, got %v", err)
	}
}

func TestSignIn_Failures(t *testing.T) {
	creds := newMockCredStore()
	seedCredential(t, creds, "u1", "ann@example.com", "secret123")
	disabled := creds.byID["u1"]
	disabled.UserID = "u2"
	disabled.Email = "off@example.com"
	disabled.Disabled = true
	creds.byID["u2"] = disabled
	svc := newTestProvider(creds, newMockRegistry(), config.AuthConfig{})

	_, _, err := svc.SignIn(context.Background(), "ghost@example.com", "secret123")
	if domain.CodeOf(err) != domain.CodeUserNotFound {
		t.Fatalf("expected CodeUserNotFound, got %v", err)
	}

	_, _, err = svc.SignIn(context.Background(), "ann@example.com", "wrongpass")
	if domain.CodeOf(err) != domain.CodeWrongPassword {
		t.Fatalf("expected CodeWrongPassword, got %v", err)
	}

	_, _, err = svc.SignIn(context.Background(), "off@example.com", "secret123")
	if domain.CodeOf(err) != domain.CodeUserDisabled {
		t.Fatalf("expected CodeUserDisabled, got %v", err)
	}
}

func TestSignIn_RateLimited(t *testing.T) {
	creds := newMockCredStore()
	seedCredential(t, creds, "u1", "ann@example.com", "secret123")
	svc := newTestProvider(creds, newMockRegistry(), config.AuthConfig{
		LoginRatePerMinute: 1,
		LoginBurst:         2,
	})

	for i := 0; i < 2; i++ {
		if _, _, err := svc.SignIn(context.Background(), "ann@example.com", "wrongpass"); domain.CodeOf(err) != domain.CodeWrongPassword {
			t.Fatalf("attempt %d: expected CodeWrongPassword, got %v", i, err)
		}
	}
	_, _, err := svc.SignIn(context.Background(), "ann@example.com", "secret123")
	if domain.CodeOf(err) != domain.CodeTooManyRequests {
		t.Fatalf("expected CodeTooManyRequests, got %v", err)
	}

	// a different address is not throttled
	seedCredential(t, creds, "u2", "bob@example.com", "secret123")
	if _, _, err := svc.SignIn(context.Background(), "bob@example.com", "secret123"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestSignOutUser_RevokesEverySession(t *testing.T) {
	creds := newMockCredStore()
	reg := newMockRegistry()
	seedCredential(t, creds, "u1", "ann@example.com", "secret123")
	svc := newTestProvider(creds, reg, config.AuthConfig{})

	_, first, err := svc.SignIn(context.Background(), "ann@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, second, err := svc.SignIn(context.Background(), "ann@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if err := svc.SignOutUser(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, sess := range []domain.Session{first, second} {
		if _, _, err := svc.Resolve(context.Background(), sess.Token); !errors.Is(err, domain.ErrNoSession) {
			t.Fatalf("expected every session revoked, got %v", err)
		}
	}
}

func TestSubscribe_EmitsOnSignInAndSignOut(t *testing.T) {
	creds := newMockCredStore()
	seedCredential(t, creds, "u1", "ann@example.com", "secret123")
	svc := newTestProvider(creds, newMockRegistry(), config.AuthConfig{})

	var got []*domain.Identity
	cancel := svc.Subscribe(func(ident *domain.Identity) { got = append(got, ident) })

	_, sess, err := svc.SignIn(context.Background(), "ann@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0] == nil || got[0].ID != "u1" {
		t.Fatalf("expected identity on sign-in, got %+v", got)
	}

	if err := svc.SignOut(context.Background(), sess); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[1] != nil {
		t.Fatalf("expected nil on sign-out, got %+v", got)
	}

	cancel()
	cancel()
	if _, _, err := svc.SignIn(context.Background(), "ann@example.com", "secret123"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("cancelled observer must not receive events")
	}
}

func TestUpdateIdentity_Unknown(t *testing.T) {
	svc := newTestProvider(newMockCredStore(), newMockRegistry(), config.AuthConfig{})
	dn := "X"
	err := svc.UpdateIdentity(context.Background(), "ghost", domain.IdentityChanges{DisplayName: &dn})
	if domain.CodeOf(err) != domain.CodeUserNotFound {
		t.Fatalf("expected CodeUserNotFound, got %v", err)
	}
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	svc := newTestProvider(newMockCredStore(), newMockRegistry(), config.AuthConfig{})
	err := svc.ResetPassword(context.Background(), "ghost@example.com")
	if domain.CodeOf(err) != domain.CodeUserNotFound {
		t.Fatalf("expected CodeUserNotFound, got %v", err)
	}
}
