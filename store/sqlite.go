package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nstehr/vimy/vimy-defense/defense"
)

// SQLite keeps one row per player and territory.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS territory_state (
			player TEXT NOT NULL,
			name TEXT NOT NULL,
			repair_target_id TEXT NOT NULL,
			integrity_repaired INTEGER NOT NULL,
			last_repair_scan INTEGER NOT NULL,
			last_advisory_check INTEGER NOT NULL,
			haulage_coverage INTEGER NOT NULL,
			saved_tick INTEGER NOT NULL,
			PRIMARY KEY (player, name)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, player string) (map[string]defense.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, repair_target_id, integrity_repaired,
		last_repair_scan, last_advisory_check, haulage_coverage FROM territory_state WHERE player = ?`, player)
	if err != nil {
		return nil, fmt.Errorf("query territory_state: %w", err)
	}
	defer rows.Close()

	out := make(map[string]defense.Record)
	for rows.Next() {
		var (
			name     string
			r        defense.Record
			coverage int
		)
		if err := rows.Scan(&name, &r.RepairTargetID, &r.IntegrityRepaired, &r.LastRepairScan, &r.LastAdvisoryCheck, &coverage); err != nil {
			return nil, fmt.Errorf("scan territory_state: %w", err)
		}
		r.HaulageCoverage = coverage != 0
		out[name] = r
	}
	return out, rows.Err()
}

func (s *SQLite) Save(ctx context.Context, player string, tick int, records map[string]defense.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM territory_state WHERE player = ?`, player); err != nil {
		return fmt.Errorf("clear territory_state: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO territory_state
		(player, name, repair_target_id, integrity_repaired, last_repair_scan, last_advisory_check, haulage_coverage, saved_tick)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, r := range records {
		coverage := 0
		if r.HaulageCoverage {
			coverage = 1
		}
		if _, err := stmt.ExecContext(ctx, player, name, r.RepairTargetID, r.IntegrityRepaired, r.LastRepairScan, r.LastAdvisoryCheck, coverage, tick); err != nil {
			return fmt.Errorf("insert %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
