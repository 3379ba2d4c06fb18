package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"store-sync/internal/database"
	"store-sync/internal/domain/profile"
)

// ProfileStore keeps one JSONB document per identity. Merge relies on
// the store's native shallow merge (doc || patch): only the supplied
// top-level fields change, the later write wins on overlap.
type ProfileStore struct {
	db database.DB
}

func NewProfileStore(db database.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Get(ctx context.Context, id string) (profile.UserProfile, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, doc FROM profiles WHERE id = $1`,
		id,
	)
	return scanProfile(row)
}

func (s *ProfileStore) Put(ctx context.Context, p profile.UserProfile) error {
	if p.ID == "" {
		return errors.New("empty profile id")
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO profiles (id, doc, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		p.ID, doc, p.CreatedAt.UTC(),
	)
	return err
}

func (s *ProfileStore) Merge(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return errors.New("empty profile id")
	}
	if len(fields) == 0 {
		return nil
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	affected, err := s.db.Exec(ctx,
		`UPDATE profiles SET doc = doc || $2::jsonb WHERE id = $1`,
		id, patch,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func (s *ProfileStore) List(ctx context.Context) ([]profile.UserProfile, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, doc FROM profiles ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profile.UserProfile, 0)
	for rows.Next() {
		p, err := scanProfileRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type profileRow interface {
	Scan(dest ...any) error
}

func scanProfile(row profileRow) (profile.UserProfile, error) {
	p, err := scanProfileRow(row)
	if err != nil {
		if isNoRows(err) {
			return profile.UserProfile{}, profile.ErrNotFound
		}
		return profile.UserProfile{}, err
	}
	return p, nil
}

func scanProfileRow(row profileRow) (profile.UserProfile, error) {
	var id string
	var doc []byte
	if err := row.Scan(&id, &doc); err != nil {
		return profile.UserProfile{}, err
	}

	var p profile.UserProfile
	if err := json.Unmarshal(doc, &p); err != nil {
		return profile.UserProfile{}, err
	}
	// the row key wins over whatever the document says
	p.ID = id
	return p, nil
}
