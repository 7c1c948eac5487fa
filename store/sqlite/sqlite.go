/*
Package sqlite provides a SQLite-backed holiday store.

PURPOSE:
  The statutory holiday table is built into the calendar package and is
  deliberately partial. Companies extend it with their own holidays
  (provincial days, office closures); those rows live here and are merged
  over the statutory table by LoadCalendar.

KEY TABLES:
  holidays: Custom holidays, global (company_id = '') or per company.
            Recurring rows match on month/day in every year.

MIGRATIONS:
  Schema is versioned with goose. SQL files are embedded from migrations/
  and applied on New().

CONCURRENCY:
  Uses sync.RWMutex around the handle. An in-memory database is pinned to a
  single connection, since every new connection to ":memory:" would open an
  empty database.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  cal, err := store.LoadCalendar(ctx, "acme")
  adjustments, err := payroll.AdjustPayments(schedule, cal)

SEE ALSO:
  - calendar/holiday.go: Table and statutory entries
  - payroll/payment.go: Payment adjustment using the loaded table
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/invoicepatch/payroll-engine/calendar"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrHolidayNotFound is returned when deleting an unknown holiday.
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrDuplicateHoliday is returned when an explicit ID is already taken by
	// a different holiday.
	ErrDuplicateHoliday = errors.New("duplicate holiday id")
)

// Store persists custom holidays.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHoliday inserts h, or updates the recurring flag of an existing row
// with the same company, date and name. An empty ID is assigned a UUID.
// Returns the stored ID.
func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	query := `
		INSERT INTO holidays (id, company_id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, date, name) DO UPDATE SET
			recurring = excluded.recurring
		RETURNING id
	`

	var id string
	err := s.db.QueryRowContext(ctx, query,
		h.ID,
		h.CompanyID,
		h.Date.String(),
		h.Name,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	).Scan(&id)
	if isUniqueConstraintError(err) {
		return "", fmt.Errorf("%w: %s", ErrDuplicateHoliday, h.ID)
	}
	if err != nil {
		return "", fmt.Errorf("save holiday: %w", err)
	}
	return id, nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrHolidayNotFound, id)
	}
	return nil
}

// ListHolidays returns global holidays plus those of companyID, by date.
func (s *Store) ListHolidays(ctx context.Context, companyID string) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, date, name, recurring
		FROM holidays
		WHERE company_id = ? OR company_id = ''
		ORDER BY date ASC, name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	holidays := []calendar.Holiday{}
	for rows.Next() {
		var h calendar.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &h.CompanyID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date, err = calendar.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.ID, err)
		}
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}

// LoadCalendar returns the statutory table extended with the stored
// holidays visible to companyID.
func (s *Store) LoadCalendar(ctx context.Context, companyID string) (*calendar.Table, error) {
	holidays, err := s.ListHolidays(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return calendar.StatutoryTable().With(holidays...), nil
}

// Reset deletes all stored holidays.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays")
	return err
}

// Helper functions

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
