package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"store-sync/internal/database"
	"store-sync/internal/domain/profile"
)

// AdminSeeder provisions the bootstrap administrator account from
// ADMIN_EMAIL / ADMIN_PASSWORD when one does not exist yet. Without an
// admin nobody could flip account-status flags or read the listing
// views.
type AdminSeeder struct{}

func (AdminSeeder) Name() string { return "admin" }

func (AdminSeeder) Run(ctx context.Context, db database.DB) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	row := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM credentials WHERE email = $1)`, email)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO credentials (id, email, password_hash, email_verified) VALUES ($1, $2, $3, TRUE)`,
		id, email, string(hash),
	)
	if err != nil {
		return err
	}

	doc, err := json.Marshal(profile.UserProfile{
		ID:        id,
		Email:     email,
		Role:      profile.RoleAdmin,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (id, doc, created_at) VALUES ($1, $2, $3)`,
		id, doc, now,
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
