// Package sqlite provides the persistent registry store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/waroute/waroute/internal/domain"
	"github.com/waroute/waroute/internal/registry"
)

// Store is a SQLite implementation of registry.Store. Every mutation runs
// in a transaction, so concurrent readers observe a consistent rule set.
// Rows are read back in insertion (seq) order.
type Store struct {
	db *sql.DB
}

var _ registry.Store = (*Store)(nil)

// New opens (or creates) the route database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS routes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			phone_number TEXT NOT NULL,
			phone_number_id TEXT NOT NULL DEFAULT '',
			target_url TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			route_by TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			synced INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_routes_route_by ON routes(route_by)`,
		`CREATE INDEX IF NOT EXISTS idx_routes_synced ON routes(synced)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

const routeColumns = `id, phone_number, phone_number_id, target_url, description, route_by, active, synced, created_at, updated_at`

func (s *Store) ListAll(ctx context.Context) ([]domain.RouteConfig, error) {
	query := `SELECT ` + routeColumns + ` FROM routes ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var routes []domain.RouteConfig
	for rows.Next() {
		rc, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, rc)
	}

	return routes, rows.Err()
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.RouteConfig, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = ?`

	rc, err := scanRoute(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

func (s *Store) Add(ctx context.Context, n registry.NewRoute) (*domain.RouteConfig, error) {
	rc, err := registry.BuildRoute(n)
	if err != nil {
		return nil, err
	}

	if err := s.insert(ctx, s.db, rc); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (s *Store) Update(ctx context.Context, id string, u registry.RouteUpdate) (*domain.RouteConfig, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = ?`
	rc, err := scanRoute(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := registry.ApplyUpdate(&rc, u); err != nil {
		return nil, err
	}

	updateQuery := `UPDATE routes SET phone_number = ?, phone_number_id = ?, target_url = ?,
	                description = ?, route_by = ?, active = ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, updateQuery,
		rc.PhoneNumber, rc.PhoneNumberID, rc.TargetURL,
		rc.Description, string(rc.RouteBy), rc.Active, rc.UpdatedAt, id); err != nil {
		return nil, fmt.Errorf("failed to update route: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM routes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return registry.ErrNotFound
	}
	return nil
}

func (s *Store) SyncFromExternal(ctx context.Context, candidates []registry.Candidate) (int, error) {
	mapped := registry.MapCandidates(candidates)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE synced = 1`); err != nil {
		return 0, fmt.Errorf("failed to clear synced routes: %w", err)
	}

	for _, rc := range mapped {
		if err := s.insert(ctx, tx, rc); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(mapped), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, db execer, rc domain.RouteConfig) error {
	query := `INSERT INTO routes (` + routeColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.ExecContext(ctx, query,
		rc.ID, rc.PhoneNumber, rc.PhoneNumberID, rc.TargetURL,
		rc.Description, string(rc.RouteBy), rc.Active, rc.Synced,
		rc.CreatedAt, rc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert route: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (domain.RouteConfig, error) {
	var rc domain.RouteConfig
	var routeBy string

	err := row.Scan(&rc.ID, &rc.PhoneNumber, &rc.PhoneNumberID, &rc.TargetURL,
		&rc.Description, &routeBy, &rc.Active, &rc.Synced,
		&rc.CreatedAt, &rc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rc, err
	}
	if err != nil {
		return rc, fmt.Errorf("failed to scan route: %w", err)
	}

	rc.RouteBy = domain.RouteBy(routeBy)
	return rc, nil
}
