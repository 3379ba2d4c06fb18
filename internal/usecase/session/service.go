package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	identity "store-sync/internal/domain/identity"
	"store-sync/internal/domain/localstate"
	"store-sync/internal/domain/profile"
	"store-sync/internal/metrics"
)

var emptyList = json.RawMessage("[]")

type Config struct {
	RequireVerifiedEmail bool
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginInput struct {
	Email    string
	Password string
}

// ProfileChanges is a partial profile update. Nil fields are left
// untouched by the merge-write.
type ProfileChanges struct {
	DisplayName             *string
	PhotoURL                *string
	PhoneNumber             *string
	Address                 *string
	NotificationPreferences map[string]bool
}

func (ch ProfileChanges) empty() bool {
	return ch.DisplayName == nil &&
		ch.PhotoURL == nil &&
		ch.PhoneNumber == nil &&
		ch.Address == nil &&
		ch.NotificationPreferences == nil
}

func (ch ProfileChanges) fields() map[string]any {
	out := map[string]any{}
	if ch.DisplayName != nil {
		out["displayName"] = *ch.DisplayName
	}
	if ch.PhotoURL != nil {
		out["photoUrl"] = *ch.PhotoURL
	}
	if ch.PhoneNumber != nil {
		out["phoneNumber"] = *ch.PhoneNumber
	}
	if ch.Address != nil {
		out["address"] = *ch.Address
	}
	if ch.NotificationPreferences != nil {
		out["notificationPreferences"] = ch.NotificationPreferences
	}
	return out
}

// Service composes the identity provider, the durable profile store and
// the ephemeral local store into the session protocols: registration,
// login, logout with state migration, post-login restore, and the
// auth-change stream.
type Service struct {
	provider identity.Provider
	profiles profile.Store
	local    localstate.Store
	cfg      Config

	collector *metrics.Collector
	logger    *log.Logger
	now       func() time.Time
}

func NewService(
	provider identity.Provider,
	profiles profile.Store,
	local localstate.Store,
	cfg Config,
	collector *metrics.Collector,
	logger *log.Logger,
) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		provider:  provider,
		profiles:  profiles,
		local:     local,
		cfg:       cfg,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates the identity and its durable profile. Every failure
// aborts before the profile write; a failed registration leaves no
// partial record behind.
func (s *Service) Register(ctx context.Context, in RegisterInput) (profile.UserProfile, error) {
	ident, err := s.provider.Register(ctx, in.Email, in.Password)
	if err != nil {
		s.collector.RecordRegistration(false)
		return profile.UserProfile{}, mapProviderError(err)
	}

	if in.DisplayName != "" {
		dn := in.DisplayName
		if err := s.provider.UpdateIdentity(ctx, ident.ID, identity.IdentityChanges{DisplayName: &dn}); err != nil {
			s.collector.RecordRegistration(false)
			return profile.UserProfile{}, mapProviderError(err)
		}
		ident.DisplayName = dn
	}

	p := s.defaultProfile(ident, s.now().UTC())
	if err := s.profiles.Put(ctx, p); err != nil {
		s.collector.RecordRegistration(false)
		return profile.UserProfile{}, fmt.Errorf("%w: persist profile: %v", ErrInternal, err)
	}

	s.collector.RecordRegistration(true)
	return p, nil
}

// Login authenticates and returns the stored profile plus the new
// session. The disabled check runs before any session value is handed
// back: a disabled account is never observably logged in.
func (s *Service) Login(ctx context.Context, in LoginInput) (profile.UserProfile, identity.Session, error) {
	ident, sess, err := s.provider.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		s.collector.RecordLogin(false)
		return profile.UserProfile{}, identity.Session{}, mapProviderError(err)
	}

	if s.cfg.RequireVerifiedEmail && !ident.EmailVerified {
		s.forceSignOut(ctx, ident.ID)
		s.collector.RecordLogin(false)
		return profile.UserProfile{}, identity.Session{}, ErrEmailNotVerified
	}

	p, err := s.ensureProfile(ctx, ident, true)
	if err != nil {
		// without the profile the disabled check cannot run, so the
		// fresh session must not survive
		s.forceSignOut(ctx, ident.ID)
		s.collector.RecordLogin(false)
		return profile.UserProfile{}, identity.Session{}, err
	}
	if p.Disabled {
		s.forceSignOut(ctx, ident.ID)
		s.collector.RecordLogin(false)
		return profile.UserProfile{}, identity.Session{}, ErrAccountDisabled
	}

	s.collector.RecordLogin(true)
	return p, sess, nil
}

// Logout migrates device-local cart and wishlist state into the durable
// profile, clears the local cache, then invalidates the session.
// Migration failures are logged and swallowed: losing unsynced state is
// better than leaving a session open.
func (s *Service) Logout(ctx context.Context, sess identity.Session, deviceID string) error {
	s.migrateLocalState(ctx, sess.UserID, deviceID)

	if err := s.provider.SignOut(ctx, sess); err != nil {
		return mapProviderError(err)
	}
	s.collector.RecordLogout()
	return nil
}

// RestoreLocalState writes the profile's migrated cart and wishlist
// back into the device-local cache. Best effort: absent fields are
// no-ops and failures are logged, never surfaced.
func (s *Service) RestoreLocalState(ctx context.Context, userID, deviceID string) {
	if userID == "" || deviceID == "" {
		return
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		s.logger.Printf("[Session] state restore skipped user=%s err=%v", userID, err)
		s.collector.RecordStateRestore(false)
		return
	}
	if p.UserData == nil {
		return
	}

	ok := true
	if p.UserData.Cart != nil {
		if err := s.local.SetCart(ctx, deviceID, p.UserData.Cart); err != nil {
			s.logger.Printf("[Session] cart restore failed user=%s err=%v", userID, err)
			ok = false
		} else {
			s.local.Notify(localstate.EventCartChanged)
		}
	}
	if p.UserData.Wishlist != nil {
		if err := s.local.SetWishlist(ctx, deviceID, p.UserData.Wishlist); err != nil {
			s.logger.Printf("[Session] wishlist restore failed user=%s err=%v", userID, err)
			ok = false
		} else {
			s.local.Notify(localstate.EventWishlistChanged)
		}
	}
	s.collector.RecordStateRestore(ok)
}

// CurrentSession resolves the profile behind a session token. Polled
// from render paths, so every failure degrades to (nil, nil). The one
// exception is a disabled account, which forces sign-out and surfaces
// Forbidden.
func (s *Service) CurrentSession(ctx context.Context, tokenString string) (*profile.UserProfile, error) {
	ident, _, err := s.provider.Resolve(ctx, tokenString)
	if err != nil {
		if !errors.Is(err, identity.ErrNoSession) {
			s.logger.Printf("[Session] current-session lookup degraded: %v", err)
		}
		return nil, nil
	}

	p, err := s.ensureProfile(ctx, ident, false)
	if err != nil {
		s.logger.Printf("[Session] current-session profile read degraded: %v", err)
		return nil, nil
	}
	if p.Disabled {
		s.forceSignOut(ctx, ident.ID)
		return nil, ErrAccountDisabled
	}
	return &p, nil
}

// ObserveSessionChanges subscribes to the provider's auth-change stream
// and delivers the resolved profile, or nil on sign-out and for
// disabled accounts (after a forced sign-out). The returned cancel
// detaches the observer and is safe to call more than once.
func (s *Service) ObserveSessionChanges(fn func(*profile.UserProfile)) (cancel func()) {
	return s.provider.Subscribe(func(ident *identity.Identity) {
		if ident == nil {
			fn(nil)
			return
		}

		ctx, cancelResolve := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelResolve()

		p, err := s.ensureProfile(ctx, *ident, false)
		if err != nil {
			s.logger.Printf("[Session] auth-change profile resolve failed user=%s err=%v", ident.ID, err)
			fn(nil)
			return
		}
		if p.Disabled {
			s.forceSignOut(ctx, ident.ID)
			fn(nil)
			return
		}
		fn(&p)
	})
}

// UpdateProfile merge-writes a partial change set into the stored
// profile. When the caller targets their own profile, the provider's
// copy of display name and photo is updated as well. The stored record
// must already exist.
func (s *Service) UpdateProfile(ctx context.Context, sess *identity.Session, targetID string, ch ProfileChanges) error {
	if ch.empty() {
		return ErrInvalidInput
	}
	if targetID == "" {
		if sess == nil {
			return ErrUnauthenticated
		}
		targetID = sess.UserID
	}

	if sess != nil && sess.UserID == targetID && (ch.DisplayName != nil || ch.PhotoURL != nil) {
		err := s.provider.UpdateIdentity(ctx, targetID, identity.IdentityChanges{
			DisplayName: ch.DisplayName,
			PhotoURL:    ch.PhotoURL,
		})
		if err != nil {
			return mapProviderError(err)
		}
	}

	if _, err := s.profiles.Get(ctx, targetID); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	fields := ch.fields()
	fields["updatedAt"] = s.now().UTC()
	if err := s.profiles.Merge(ctx, targetID, fields); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

// ListProfiles returns every stored profile. Backs administrative
// views, so a store failure degrades to an empty list.
func (s *Service) ListProfiles(ctx context.Context) []profile.UserProfile {
	out, err := s.profiles.List(ctx)
	if err != nil {
		s.logger.Printf("[Session] profile listing degraded: %v", err)
		return []profile.UserProfile{}
	}
	return out
}

// SetDisabled flips the administrative disabled flag at both the
// provider and the stored profile. Disabling forces sign-out of every
// live session for the target.
func (s *Service) SetDisabled(ctx context.Context, targetID string, disabled bool) error {
	if targetID == "" {
		return ErrInvalidInput
	}

	if err := s.provider.SetDisabled(ctx, targetID, disabled); err != nil {
		return mapProviderError(err)
	}

	err := s.profiles.Merge(ctx, targetID, map[string]any{
		"isDisabled": disabled,
		"updatedAt":  s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if disabled {
		s.forceSignOut(ctx, targetID)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if err := s.provider.ResetPassword(ctx, email); err != nil {
		return mapProviderError(err)
	}
	return nil
}

// ensureProfile implements lazy profile creation: every identity the
// provider has authenticated gets a stored record on first observation.
// bumpLastLogin is the only policy difference between the login path
// and the read-only paths.
func (s *Service) ensureProfile(ctx context.Context, ident identity.Identity, bumpLastLogin bool) (profile.UserProfile, error) {
	p, err := s.profiles.Get(ctx, ident.ID)
	now := s.now().UTC()

	switch {
	case err == nil:
		if p.Disabled || !bumpLastLogin {
			return p, nil
		}
		if mergeErr := s.profiles.Merge(ctx, p.ID, map[string]any{"lastLogin": now}); mergeErr != nil {
			// stamping is cosmetic; login proceeds on the stale value
			s.logger.Printf("[Session] lastLogin stamp failed user=%s err=%v", p.ID, mergeErr)
		} else {
			p.LastLogin = &now
		}
		return p, nil

	case errors.Is(err, profile.ErrNotFound):
		p = s.defaultProfile(ident, now)
		if bumpLastLogin {
			p.LastLogin = &now
		}
		if putErr := s.profiles.Put(ctx, p); putErr != nil {
			return profile.UserProfile{}, fmt.Errorf("%w: lazy profile create: %v", ErrInternal, putErr)
		}
		return p, nil

	default:
		return profile.UserProfile{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

func (s *Service) defaultProfile(ident identity.Identity, now time.Time) profile.UserProfile {
	return profile.UserProfile{
		ID:          ident.ID,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		PhotoURL:    ident.PhotoURL,
		Role:        profile.RoleUser,
		CreatedAt:   now,
	}
}

func (s *Service) forceSignOut(ctx context.Context, userID string) {
	if err := s.provider.SignOutUser(ctx, userID); err != nil {
		s.logger.Printf("[Session] forced sign-out failed user=%s err=%v", userID, err)
		return
	}
	s.collector.RecordForcedSignout()
}

func (s *Service) migrateLocalState(ctx context.Context, userID, deviceID string) {
	if userID == "" || deviceID == "" {
		return
	}

	st, err := s.local.Get(ctx, deviceID)
	if err != nil {
		s.logger.Printf("[Session] state migration read failed user=%s err=%v", userID, err)
		s.collector.RecordStateMigration(false)
		return
	}

	cart := st.Cart
	if cart == nil {
		cart = emptyList
	}
	wishlist := st.Wishlist
	if wishlist == nil {
		wishlist = emptyList
	}

	fields := map[string]any{
		"userData": profile.UserData{
			Cart:        cart,
			Wishlist:    wishlist,
			LastUpdated: s.now().UTC(),
		},
	}
	if err := s.profiles.Merge(ctx, userID, fields); err != nil {
		s.logger.Printf("[Session] state migration write failed user=%s err=%v", userID, err)
		s.collector.RecordStateMigration(false)
	} else {
		s.collector.RecordStateMigration(true)
	}

	// not retained locally across a logout, even when the durable
	// write failed
	if err := s.local.Clear(ctx, deviceID); err != nil {
		s.logger.Printf("[Session] local state clear failed device=%s err=%v", deviceID, err)
	}
	s.local.Notify(localstate.EventCartChanged)
	s.local.Notify(localstate.EventWishlistChanged)
}
