package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sunnyysetia/patrolsim/core/incident"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS incidents (
	id TEXT PRIMARY KEY,
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	reported_at INTEGER NOT NULL,
	assigned_unit_id TEXT,
	assigned_at INTEGER,
	closed_at INTEGER
);
CREATE UNIQUE INDEX IF NOT EXISTS open_unit_assignment
	ON incidents(assigned_unit_id)
	WHERE closed_at IS NULL AND assigned_unit_id IS NOT NULL;
`

// SQLiteStore persists incidents in a SQLite database. The partial unique
// index on open assignments makes Assign an atomic conditional write.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, inc incident.Incident) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO incidents (id, lat, lng, description, reported_at, assigned_unit_id, assigned_at, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ID, inc.Lat, inc.Lng, inc.Description, inc.ReportedAt.UnixMilli(),
		nullString(inc.AssignedUnitID), nullTime(inc.AssignedAt), nullTime(inc.ClosedAt))
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (incident.Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lat, lng, description, reported_at, assigned_unit_id, assigned_at, closed_at
		 FROM incidents WHERE id = ?`, id)
	inc, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return incident.Incident{}, incident.ErrNotFound
	}
	return inc, err
}

func (s *SQLiteStore) List(ctx context.Context, f incident.Filter) ([]incident.Incident, error) {
	q := `SELECT id, lat, lng, description, reported_at, assigned_unit_id, assigned_at, closed_at FROM incidents`
	var conds []string
	var args []any
	if f.OpenOnly {
		conds = append(conds, "closed_at IS NULL")
	}
	if f.AssignedUnitID != "" {
		conds = append(conds, "assigned_unit_id = ?")
		args = append(args, f.AssignedUnitID)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY reported_at, id"
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()
	var res []incident.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, inc)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) Assign(ctx context.Context, incidentID, unitID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE incidents SET assigned_unit_id = ?, assigned_at = ?
		 WHERE id = ? AND closed_at IS NULL AND assigned_unit_id IS NULL`,
		unitID, at.UnixMilli(), incidentID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return incident.ErrUnitBusy
		}
		return fmt.Errorf("assign unit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.Get(ctx, incidentID); err != nil {
			return err
		}
		return incident.ErrAlreadyAssigned
	}
	return nil
}

func (s *SQLiteStore) CloseIncident(ctx context.Context, incidentID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE incidents SET closed_at = ? WHERE id = ? AND closed_at IS NULL`, at.UnixMilli(), incidentID)
	if err != nil {
		return fmt.Errorf("close incident: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.Get(ctx, incidentID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) BusyUnits(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT assigned_unit_id FROM incidents WHERE closed_at IS NULL AND assigned_unit_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("busy units: %w", err)
	}
	defer rows.Close()
	busy := make(map[string]struct{})
	for rows.Next() {
		var unit string
		if err := rows.Scan(&unit); err != nil {
			return nil, err
		}
		busy[unit] = struct{}{}
	}
	return busy, rows.Err()
}

func (s *SQLiteStore) OpenAssignments(ctx context.Context) (map[string][]incident.Assignment, error) {
	incs, err := s.List(ctx, incident.Filter{OpenOnly: true})
	if err != nil {
		return nil, err
	}
	open := make(map[string][]incident.Assignment)
	for _, inc := range incs {
		if !inc.Assigned() {
			continue
		}
		open[inc.AssignedUnitID] = append(open[inc.AssignedUnitID], incident.Assignment{
			IncidentID: inc.ID,
			Target:     inc.Location(),
			AssignedAt: inc.AssignedAt,
		})
	}
	return open, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(r rowScanner) (incident.Incident, error) {
	var inc incident.Incident
	var reported int64
	var unit sql.NullString
	var assigned, closed sql.NullInt64
	if err := r.Scan(&inc.ID, &inc.Lat, &inc.Lng, &inc.Description, &reported, &unit, &assigned, &closed); err != nil {
		return incident.Incident{}, err
	}
	inc.ReportedAt = time.UnixMilli(reported).UTC()
	if unit.Valid {
		inc.AssignedUnitID = unit.String
	}
	if assigned.Valid {
		inc.AssignedAt = time.UnixMilli(assigned.Int64).UTC()
	}
	if closed.Valid {
		inc.ClosedAt = time.UnixMilli(closed.Int64).UTC()
	}
	return inc, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}
