package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Repository is a registered skill source.
type Repository struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	LocalPath   string     `json:"local_path"`
	Priority    int        `json:"priority"`
	License     string     `json:"license"`
	SkillCount  int        `json:"skill_count"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	AutoUpdate  bool       `json:"auto_update"`
}

// ErrRepoNotFound is returned for lookups and writes against unknown ids.
var ErrRepoNotFound = errors.New("repository not found")

// Store provides transactional access to repository records. It is the
// single source of truth for sync state; readers may run concurrently,
// writes are serialized by SQLite.
type Store struct {
	db *DB
}

// NewStore creates a store over an open database.
func NewStore(d *DB) *Store {
	return &Store{db: d}
}

const repoColumns = `id, url, local_path, priority, license, skill_count, last_updated, auto_update`

// AddRepo inserts a new repository record.
func (s *Store) AddRepo(ctx context.Context, repo *Repository) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO repositories (`+repoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		repo.ID, repo.URL, repo.LocalPath, repo.Priority, repo.License,
		repo.SkillCount, repo.LastUpdated, repo.AutoUpdate,
	)
	if err != nil {
		return fmt.Errorf("adding repository %s: %w", repo.ID, classify(err))
	}
	return nil
}

// UpdateRepo rewrites the mutable fields of an existing record.
func (s *Store) UpdateRepo(ctx context.Context, repo *Repository) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE repositories SET url=?, local_path=?, priority=?, license=?,
		 skill_count=?, last_updated=?, auto_update=? WHERE id=?`,
		repo.URL, repo.LocalPath, repo.Priority, repo.License,
		repo.SkillCount, repo.LastUpdated, repo.AutoUpdate, repo.ID,
	)
	if err != nil {
		return fmt.Errorf("updating repository %s: %w", repo.ID, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating repository %s: %w", repo.ID, ErrRepoNotFound)
	}
	return nil
}

// RemoveRepo deletes a record; dependent skill summary rows cascade.
func (s *Store) RemoveRepo(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing repository %s: %w", id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("removing repository %s: %w", id, ErrRepoNotFound)
	}
	return nil
}

// GetRepo looks up one repository by id.
func (s *Store) GetRepo(ctx context.Context, id string) (*Repository, error) {
	r := &Repository{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+repoColumns+` FROM repositories WHERE id = ?`, id,
	).Scan(&r.ID, &r.URL, &r.LocalPath, &r.Priority, &r.License,
		&r.SkillCount, &r.LastUpdated, &r.AutoUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repository %s: %w", id, ErrRepoNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting repository %s: %w", id, classify(err))
	}
	return r, nil
}

// ListRepos returns all repositories ordered by priority descending,
// then id for a stable order.
func (s *Store) ListRepos(ctx context.Context) ([]Repository, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+repoColumns+` FROM repositories ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", classify(err))
	}
	defer rows.Close()

	var repos []Repository
	for rows.Next() {
		var r Repository
		if err := rows.Scan(&r.ID, &r.URL, &r.LocalPath, &r.Priority, &r.License,
			&r.SkillCount, &r.LastUpdated, &r.AutoUpdate); err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// legacyRepoFile is the flat-file snapshot written by earlier releases.
type legacyRepoFile struct {
	Repositories []Repository `json:"repositories"`
}

// MigrateLegacy performs the one-time import of a legacy JSON repository
// file. All rows are written within a single transaction and the legacy
// file is renamed with a .backup suffix only after the transaction
// commits; any failure leaves the legacy file untouched.
func (s *Store) MigrateLegacy(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading legacy repository file: %w", err)
	}

	var legacy legacyRepoFile
	if err := json.Unmarshal(data, &legacy); err != nil {
		// Older versions wrote a bare array.
		if arrErr := json.Unmarshal(data, &legacy.Repositories); arrErr != nil {
			return 0, fmt.Errorf("decoding legacy repository file: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting migration transaction: %w", classify(err))
	}
	defer tx.Rollback()

	for _, repo := range legacy.Repositories {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO repositories (`+repoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			repo.ID, repo.URL, repo.LocalPath, repo.Priority, repo.License,
			repo.SkillCount, repo.LastUpdated, repo.AutoUpdate,
		); err != nil {
			return 0, fmt.Errorf("migrating repository %s: %w", repo.ID, classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing migration: %w", classify(err))
	}

	if err := os.Rename(path, path+".backup"); err != nil {
		return len(legacy.Repositories), fmt.Errorf("renaming legacy file after migration: %w", err)
	}
	return len(legacy.Repositories), nil
}
