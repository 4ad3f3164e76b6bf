/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists PERM cases, their date fields with per-field ownership, the
  section session of each case and the deadline alerts raised by the
  scheduler. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  generic.FieldStore: Date fields + ownership of a case

FIELD WRITE CONTRACT:
  WriteFields follows generic/store.go:
  - "" is stored as NULL (an intentional clear)
  - keys absent from the patch are never touched
  - ownership is written only for the fields present in owners
  LoadFields returns NULL values as "".

KEY TABLES:
  cases:            Case header, recruitment methods as a JSON column
  case_fields:      One row per (case, field): value NULL + origin
  section_sessions: Explicit open state and manual override per section
  deadline_alerts:  Scheduler output, unique per (case, kind, due date)

INDEXES:
  - case_fields primary key (case_id, field): field map load (hot path)
  - idx_deadline_alerts_unique: makes alert recording idempotent
  - idx_deadline_alerts_due: alert listing

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/perm.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  dates, own, err := store.LoadFields(ctx, caseID)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - generic/store.go: FieldStore contract
  - generic/store/memory.go: In-memory implementation for testing
  - perm/case.go: The records stored here
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Cases
	CREATE TABLE IF NOT EXISTS cases (
		id TEXT PRIMARY KEY,
		employer_name TEXT NOT NULL,
		beneficiary_identifier TEXT NOT NULL,
		position_title TEXT NOT NULL DEFAULT '',
		case_status TEXT NOT NULL DEFAULT 'pwd',
		progress_status TEXT NOT NULL DEFAULT 'working',
		is_professional BOOLEAN DEFAULT FALSE,
		recruitment_methods_json TEXT NOT NULL DEFAULT '[]',
		applicants_count INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cases_status
		ON cases(case_status);

	-- Date fields (NULL value = cleared)
	CREATE TABLE IF NOT EXISTS case_fields (
		case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		field TEXT NOT NULL,
		value TEXT,
		origin TEXT NOT NULL DEFAULT 'unset',
		updated_at TEXT NOT NULL,
		PRIMARY KEY (case_id, field)
	);

	-- Section sessions (NULL is_open = never touched)
	CREATE TABLE IF NOT EXISTS section_sessions (
		case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		section TEXT NOT NULL,
		is_open BOOLEAN,
		manual_override BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (case_id, section)
	);

	-- Deadline alerts (scheduler output)
	CREATE TABLE IF NOT EXISTS deadline_alerts (
		id TEXT PRIMARY KEY,
		case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		label TEXT NOT NULL,
		due_date TEXT NOT NULL,
		days_remaining INTEGER NOT NULL,
		urgency TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_deadline_alerts_unique
		ON deadline_alerts(case_id, kind, due_date);
	CREATE INDEX IF NOT EXISTS idx_deadline_alerts_due
		ON deadline_alerts(due_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CASE STORE
// =============================================================================

// methodJSON is the column form of perm.RecruitmentMethod.
type methodJSON struct {
	Method      string `json:"method"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// SaveCase inserts or updates the header of c. Dates are not touched; they
// are written through WriteFields.
func (s *Store) SaveCase(ctx context.Context, c *perm.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods := make([]methodJSON, len(c.RecruitmentMethods))
	for i, m := range c.RecruitmentMethods {
		methods[i] = methodJSON{Method: m.Method, Date: m.Date, Description: m.Description}
	}
	methodsJSON, err := json.Marshal(methods)
	if err != nil {
		return fmt.Errorf("failed to encode recruitment methods: %w", err)
	}

	query := `
		INSERT INTO cases
		(id, employer_name, beneficiary_identifier, position_title, case_status, progress_status,
		 is_professional, recruitment_methods_json, applicants_count, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employer_name = excluded.employer_name,
			beneficiary_identifier = excluded.beneficiary_identifier,
			position_title = excluded.position_title,
			case_status = excluded.case_status,
			progress_status = excluded.progress_status,
			is_professional = excluded.is_professional,
			recruitment_methods_json = excluded.recruitment_methods_json,
			applicants_count = excluded.applicants_count,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, query,
		c.ID,
		c.EmployerName,
		c.BeneficiaryIdentifier,
		c.PositionTitle,
		string(c.CaseStatus),
		string(c.ProgressStatus),
		c.IsProfessionalOccupation,
		string(methodsJSON),
		c.ApplicantsCount,
		c.Notes,
		c.CreatedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save case: %w", err)
	}
	return nil
}

const caseColumns = `id, employer_name, beneficiary_identifier, position_title, case_status, progress_status,
	is_professional, recruitment_methods_json, applicants_count, notes, created_at, updated_at`

// GetCase returns the case with its date fields, or generic.ErrRecordNotFound.
func (s *Store) GetCase(ctx context.Context, id string) (*perm.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+caseColumns+" FROM cases WHERE id = ?", id)
	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, generic.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	dates, _, err := s.loadFields(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Dates = dates
	return &c, nil
}

// ListCases returns every case with its date fields, ordered by employer then ID.
func (s *Store) ListCases(ctx context.Context) ([]perm.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+caseColumns+" FROM cases ORDER BY employer_name, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	var cases []perm.Case
	index := make(map[string]int)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		c.Dates = generic.Dates{}
		index[c.ID] = len(cases)
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fieldRows, err := s.db.QueryContext(ctx, "SELECT case_id, field, value FROM case_fields")
	if err != nil {
		return nil, fmt.Errorf("failed to query case fields: %w", err)
	}
	defer fieldRows.Close()

	for fieldRows.Next() {
		var caseID, field string
		var value sql.NullString
		if err := fieldRows.Scan(&caseID, &field, &value); err != nil {
			return nil, err
		}
		if i, ok := index[caseID]; ok {
			cases[i].Dates[generic.Field(field)] = value.String
		}
	}
	return cases, fieldRows.Err()
}

// DeleteCase removes a case; its fields, session and alerts cascade.
func (s *Store) DeleteCase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM cases WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (perm.Case, error) {
	var c perm.Case
	var caseStatus, progressStatus, methodsJSON, createdAt, updatedAt string

	err := row.Scan(
		&c.ID, &c.EmployerName, &c.BeneficiaryIdentifier, &c.PositionTitle,
		&caseStatus, &progressStatus, &c.IsProfessionalOccupation, &methodsJSON,
		&c.ApplicantsCount, &c.Notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return perm.Case{}, err
	}

	c.CaseStatus = perm.CaseStatus(caseStatus)
	c.ProgressStatus = perm.ProgressStatus(progressStatus)

	var methods []methodJSON
	if err := json.Unmarshal([]byte(methodsJSON), &methods); err != nil {
		return perm.Case{}, fmt.Errorf("failed to decode recruitment methods of %s: %w", c.ID, err)
	}
	for _, m := range methods {
		c.RecruitmentMethods = append(c.RecruitmentMethods, perm.RecruitmentMethod{
			Method: m.Method, Date: m.Date, Description: m.Description,
		})
	}

	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return c, nil
}

// =============================================================================
// FIELD STORE (generic.FieldStore interface)
// =============================================================================

// LoadFields returns the stored dates and ownership of a case. Cleared
// fields come back as "".
func (s *Store) LoadFields(ctx context.Context, recordID string) (generic.Dates, generic.Ownership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadFields(ctx, recordID)
}

func (s *Store) loadFields(ctx context.Context, recordID string) (generic.Dates, generic.Ownership, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT field, value, origin FROM case_fields WHERE case_id = ? ORDER BY field",
		recordID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query case fields: %w", err)
	}
	defer rows.Close()

	dates := generic.Dates{}
	own := generic.Ownership{}
	for rows.Next() {
		var field, origin string
		var value sql.NullString
		if err := rows.Scan(&field, &value, &origin); err != nil {
			return nil, nil, err
		}
		dates[generic.Field(field)] = value.String
		if o := generic.ParseOrigin(origin); o != generic.OriginUnset {
			own[generic.Field(field)] = o
		}
	}
	return dates, own, rows.Err()
}

// WriteFields applies a patch atomically. See the package doc for the contract.
func (s *Store) WriteFields(ctx context.Context, recordID string, values generic.Dates, owners generic.Ownership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	valueQuery := `
		INSERT INTO case_fields (case_id, field, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(case_id, field) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	for _, field := range values.Keys() {
		if _, err := sqlTx.ExecContext(ctx, valueQuery, recordID, string(field), nullString(values[field]), now); err != nil {
			return wrapFieldError(err)
		}
	}

	originQuery := `
		INSERT INTO case_fields (case_id, field, value, origin, updated_at)
		VALUES (?, ?, NULL, ?, ?)
		ON CONFLICT(case_id, field) DO UPDATE SET
			origin = excluded.origin,
			updated_at = excluded.updated_at
	`
	for field, origin := range owners {
		if _, err := sqlTx.ExecContext(ctx, originQuery, recordID, string(field), origin.String(), now); err != nil {
			return wrapFieldError(err)
		}
	}

	return sqlTx.Commit()
}

func wrapFieldError(err error) error {
	if isForeignKeyError(err) {
		return generic.ErrRecordNotFound
	}
	return fmt.Errorf("failed to write case field: %w", err)
}

// =============================================================================
// SECTION SESSION STORE
// =============================================================================

// LoadSession returns the stored section session of a case. A case that
// never touched a section gets an empty session.
func (s *Store) LoadSession(ctx context.Context, caseID string) (*perm.SectionSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT section, is_open, manual_override FROM section_sessions WHERE case_id = ?",
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query section session: %w", err)
	}
	defer rows.Close()

	session := perm.NewSectionSession()
	for rows.Next() {
		var section string
		var isOpen sql.NullBool
		var override bool
		if err := rows.Scan(&section, &isOpen, &override); err != nil {
			return nil, err
		}
		sec := perm.Section(section)
		if isOpen.Valid {
			session.Open[sec] = isOpen.Bool
		}
		if override {
			session.Override[sec] = true
		}
	}
	return session, rows.Err()
}

// SaveSession replaces the stored session of a case.
func (s *Store) SaveSession(ctx context.Context, caseID string, session *perm.SectionSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM section_sessions WHERE case_id = ?", caseID); err != nil {
		return err
	}

	for _, sec := range perm.Sections {
		open, touched := session.OpenState(sec)
		override := session.Override[sec]
		if !touched && !override {
			continue
		}
		isOpen := sql.NullBool{Bool: open, Valid: touched}
		_, err := sqlTx.ExecContext(ctx,
			"INSERT INTO section_sessions (case_id, section, is_open, manual_override) VALUES (?, ?, ?, ?)",
			caseID, string(sec), isOpen, override,
		)
		if err != nil {
			if isForeignKeyError(err) {
				return generic.ErrRecordNotFound
			}
			return fmt.Errorf("failed to save section session: %w", err)
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// DEADLINE ALERT STORE
// =============================================================================

// DeadlineAlert is one scheduler finding.
type DeadlineAlert struct {
	ID            string
	CaseID        string
	Kind          perm.DeadlineKind
	Label         string
	DueDate       generic.Date
	DaysRemaining int
	Urgency       perm.Urgency
	CreatedAt     time.Time
}

// SaveAlert records an alert once per (case, kind, due date). created is
// false when the alert already existed.
func (s *Store) SaveAlert(ctx context.Context, a DeadlineAlert) (created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query := `
		INSERT INTO deadline_alerts
		(id, case_id, kind, label, due_date, days_remaining, urgency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(case_id, kind, due_date) DO NOTHING
	`

	res, err := s.db.ExecContext(ctx, query,
		a.ID, a.CaseID, string(a.Kind), a.Label, a.DueDate.String(),
		a.DaysRemaining, string(a.Urgency), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return false, generic.ErrRecordNotFound
		}
		return false, fmt.Errorf("failed to save alert: %w", err)
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListAlerts returns alerts ordered by due date. An empty caseID lists all.
func (s *Store) ListAlerts(ctx context.Context, caseID string) ([]DeadlineAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, case_id, kind, label, due_date, days_remaining, urgency, created_at
		FROM deadline_alerts
		WHERE (? = '' OR case_id = ?)
		ORDER BY due_date ASC, case_id ASC, kind ASC
	`

	rows, err := s.db.QueryContext(ctx, query, caseID, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []DeadlineAlert
	for rows.Next() {
		var a DeadlineAlert
		var kind, urgency, dueDate, createdAt string
		if err := rows.Scan(&a.ID, &a.CaseID, &kind, &a.Label, &dueDate, &a.DaysRemaining, &urgency, &createdAt); err != nil {
			return nil, err
		}
		a.Kind = perm.DeadlineKind(kind)
		a.Urgency = perm.Urgency(urgency)
		a.DueDate, _ = generic.ParseDate(dueDate)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"deadline_alerts", "section_sessions", "case_fields", "cases"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
