package identity

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"store-sync/internal/config"
	domain "store-sync/internal/domain/identity"
	"store-sync/internal/pkg/token"
)

// Service is the identity provider adapter: credential registration and
// verification, session issue/revocation, and the auth-change stream.
type Service struct {
	creds    domain.CredentialStore
	tokens   token.Service
	sessions domain.SessionRegistry
	limiter  *loginLimiter
	hub      *hub
	logger   *log.Logger
}

func NewService(
	creds domain.CredentialStore,
	tokens token.Service,
	sessions domain.SessionRegistry,
	cfg config.AuthConfig,
	logger *log.Logger,
) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		creds:    creds,
		tokens:   tokens,
		sessions: sessions,
		limiter:  newLoginLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst),
		hub:      newHub(),
		logger:   logger,
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (domain.Identity, error) {
	email = normalizeEmail(email)
	if !isValidEmail(email) {
		return domain.Identity{}, domain.NewError(domain.CodeInvalidEmail, "malformed email address", nil)
	}
	if !isValidPassword(password) {
		return domain.Identity{}, domain.NewError(domain.CodeWeakPassword, "password does not meet minimum requirements", nil)
	}

	exists, err := s.creds.ExistsByEmail(ctx, email)
	if err != nil {
		return domain.Identity{}, domain.NewError(domain.CodeUnknown, "credential lookup failed", err)
	}
	if exists {
		return domain.Identity{}, domain.NewError(domain.CodeEmailInUse, "email already registered", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Identity{}, domain.NewError(domain.CodeUnknown, "password hashing failed", err)
	}

	c := domain.Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.creds.Create(ctx, c); err != nil {
		exists, exErr := s.creds.ExistsByEmail(ctx, email)
		if exErr == nil && exists {
			return domain.Identity{}, domain.NewError(domain.CodeEmailInUse, "email already registered", err)
		}
		return domain.Identity{}, domain.NewError(domain.CodeUnknown, "credential create failed", err)
	}

	return identityOf(c), nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (domain.Identity, domain.Session, error) {
	email = normalizeEmail(email)
	if !isValidEmail(email) {
		return domain.Identity{}, domain.Session{}, domain.NewError(domain.CodeInvalidEmail, "malformed email address", nil)
	}
	if !s.limiter.allow(email) {
		return domain.Identity{}, domain.Session{}, domain.NewError(domain.CodeTooManyRequests, "too many sign-in attempts", nil)
	}

	c, err := s.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return domain.Identity{}, domain.Session{}, domain.NewError(domain.CodeUserNotFound, "no account for email", nil)
		}
		return domain.Identity{}, domain.Session{}, domain.NewError(domain.CodeUnknown, "credential lookup failed", err)
	}
	if c.Disabled {
		return domain.Identity{}, domain.Session{}, domain.NewError(domain.CodeUserDisabled, "account disabled", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return domain.Identity{}, domain.Session{}, domain.NewError(domain.CodeWrongPassword, "wrong email or password", nil)
	}

	sessionID := uuid.NewString()
	tok, err := s.tokens.Issue(c.UserID, c.Email, sessionID)
	if err != nil {
		return domain.Identity{}, domain.Session{}, domain.NewError(domain.CodeUnknown, "session issue failed", err)
	}
	if err := s.sessions.Add(ctx, c.UserID, sessionID, s.tokens.ExpiresIn()); err != nil {
		s.logger.Printf("[Identity] session registry add failed user=%s err=%v", c.UserID, err)
	}

	ident := identityOf(c)
	s.hub.emit(&ident)

	return ident, domain.Session{
		UserID:    c.UserID,
		Email:     c.Email,
		SessionID: sessionID,
		Token:     tok,
	}, nil
}

func (s *Service) SignOut(ctx context.Context, sess domain.Session) error {
	if sess.UserID == "" || sess.SessionID == "" {
		return domain.NewError(domain.CodeUnknown, "incomplete session", nil)
	}
	if err := s.sessions.Remove(ctx, sess.UserID, sess.SessionID); err != nil {
		return domain.NewError(domain.CodeUnknown, "session revoke failed", err)
	}
	s.hub.emit(nil)
	return nil
}

func (s *Service) SignOutUser(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.NewError(domain.CodeUnknown, "empty user id", nil)
	}
	if err := s.sessions.RemoveAll(ctx, userID); err != nil {
		return domain.NewError(domain.CodeUnknown, "session revoke failed", err)
	}
	s.hub.emit(nil)
	return nil
}

func (s *Service) Resolve(ctx context.Context, tokenString string) (domain.Identity, domain.Session, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return domain.Identity{}, domain.Session{}, domain.ErrNoSession
	}

	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return domain.Identity{}, domain.Session{}, domain.ErrNoSession
	}

	active, err := s.sessions.Active(ctx, claims.UserID, claims.SessionID)
	if err != nil || !active {
		return domain.Identity{}, domain.Session{}, domain.ErrNoSession
	}

	c, err := s.creds.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return domain.Identity{}, domain.Session{}, domain.ErrNoSession
		}
		return domain.Identity{}, domain.Session{}, domain.NewError(domain.CodeUnknown, "credential lookup failed", err)
	}

	return identityOf(c), domain.Session{
		UserID:    c.UserID,
		Email:     c.Email,
		SessionID: claims.SessionID,
		Token:     tokenString,
	}, nil
}

func (s *Service) UpdateIdentity(ctx context.Context, userID string, ch domain.IdentityChanges) error {
	if userID == "" {
		return domain.NewError(domain.CodeUserNotFound, "empty user id", nil)
	}
	if err := s.creds.UpdateFields(ctx, userID, ch); err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return domain.NewError(domain.CodeUserNotFound, "no account for id", nil)
		}
		return domain.NewError(domain.CodeUnknown, "credential update failed", err)
	}
	return nil
}

func (s *Service) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	if err := s.creds.SetDisabled(ctx, userID, disabled); err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return domain.NewError(domain.CodeUserNotFound, "no account for id", nil)
		}
		return domain.NewError(domain.CodeUnknown, "credential update failed", err)
	}
	return nil
}

// ResetPassword verifies the account and starts a reset flow. Link
// delivery is the mail pipeline's job; this adapter only mints and logs
// the single-use token.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !isValidEmail(email) {
		return domain.NewError(domain.CodeInvalidEmail, "malformed email address", nil)
	}
	c, err := s.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialNotFound) {
			return domain.NewError(domain.CodeUserNotFound, "no account for email", nil)
		}
		return domain.NewError(domain.CodeUnknown, "credential lookup failed", err)
	}

	resetToken := uuid.NewString()
	s.logger.Printf("[Identity] password reset initiated user=%s token=%s", c.UserID, resetToken)
	return nil
}

func (s *Service) Subscribe(fn domain.Observer) func() {
	return s.hub.subscribe(fn)
}

func identityOf(c domain.Credential) domain.Identity {
	return domain.Identity{
		ID:            c.UserID,
		Email:         c.Email,
		DisplayName:   c.DisplayName,
		PhotoURL:      c.PhotoURL,
		EmailVerified: c.EmailVerified,
		Disabled:      c.Disabled,
	}
}

func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	return strings.ToLower(email)
}

func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isValidPassword(pw string) bool {
	pw = strings.TrimSpace(pw)
	return len(pw) >= 8
}
