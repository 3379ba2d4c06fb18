package postgres

import (
	"context"
	"errors"

	"store-sync/internal/database"
	"store-sync/internal/domain/identity"
)

// CredentialStore persists the provider-side account records backing
// the identity adapter.
type CredentialStore struct {
	db database.DB
}

func NewCredentialStore(db database.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

const credentialColumns = `id, email, password_hash, display_name, photo_url, disabled, email_verified, created_at`

func (s *CredentialStore) Create(ctx context.Context, c identity.Credential) error {
	if c.UserID == "" || c.Email == "" {
		return errors.New("incomplete credential")
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO credentials (id, email, password_hash, display_name, photo_url, disabled, email_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.UserID, c.Email, c.PasswordHash, c.DisplayName, c.PhotoURL, c.Disabled, c.EmailVerified,
	)
	return err
}

func (s *CredentialStore) GetByID(ctx context.Context, userID string) (identity.Credential, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = $1`,
		userID,
	)
	return scanCredential(row)
}

func (s *CredentialStore) GetByEmail(ctx context.Context, email string) (identity.Credential, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE email = $1`,
		email,
	)
	return scanCredential(row)
}

func (s *CredentialStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	row := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM credentials WHERE email = $1)`,
		email,
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *CredentialStore) UpdateFields(ctx context.Context, userID string, ch identity.IdentityChanges) error {
	if ch.DisplayName == nil && ch.PhotoURL == nil {
		return nil
	}
	affected, err := s.db.Exec(ctx,
		`UPDATE credentials
		 SET display_name = COALESCE($2, display_name),
		     photo_url = COALESCE($3, photo_url)
		 WHERE id = $1`,
		userID, ch.DisplayName, ch.PhotoURL,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return identity.ErrCredentialNotFound
	}
	return nil
}

func (s *CredentialStore) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	affected, err := s.db.Exec(ctx,
		`UPDATE credentials SET disabled = $2 WHERE id = $1`,
		userID, disabled,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return identity.ErrCredentialNotFound
	}
	return nil
}

type credentialRow interface {
	Scan(dest ...any) error
}

func scanCredential(row credentialRow) (identity.Credential, error) {
	var c identity.Credential
	err := row.Scan(
		&c.UserID, &c.Email, &c.PasswordHash, &c.DisplayName,
		&c.PhotoURL, &c.Disabled, &c.EmailVerified, &c.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return identity.Credential{}, identity.ErrCredentialNotFound
		}
		return identity.Credential{}, err
	}
	return c, nil
}
