// Package duckdb exports variant block index contents into a DuckDB
// database for ad hoc SQL queries.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/sounkou-bioinfo/vbi/internal/materialize"
	"github.com/sounkou-bioinfo/vbi/internal/vbi"
)

// Store manages a DuckDB connection holding exported index data.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create export directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS variant_index (
			source VARCHAR,
			ordinal BIGINT,
			chrom VARCHAR,
			pos BIGINT,
			file_offset BIGINT,
			PRIMARY KEY (source, ordinal)
		)`,
		`CREATE TABLE IF NOT EXISTS variant_rows (
			source VARCHAR,
			ordinal BIGINT,
			chrom VARCHAR,
			pos BIGINT,
			id VARCHAR,
			ref VARCHAR,
			alt VARCHAR,
			qual DOUBLE,
			filter VARCHAR,
			allele_count INTEGER,
			PRIMARY KEY (source, ordinal)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ExportIndex writes every indexed record's (chrom, pos, offset) tuple
// under the given source label, replacing any previous export for it.
func (s *Store) ExportIndex(source string, x *vbi.Index) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM variant_index WHERE source = ?`, source); err != nil {
		return fmt.Errorf("clear previous export: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO variant_index (source, ordinal, chrom, pos, file_offset) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rng := range x.ExtractRanges(0) {
		if _, err := stmt.Exec(source, rng.Ordinal, rng.Chrom, rng.Start, x.Offset(rng.Ordinal)); err != nil {
			return fmt.Errorf("insert ordinal %d: %w", rng.Ordinal, err)
		}
	}

	return tx.Commit()
}

// ExportRows writes materialized rows under the given source label.
// Sentinel rows for failed ordinals are skipped.
func (s *Store) ExportRows(source string, rows []materialize.Row) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM variant_rows WHERE source = ?`, source); err != nil {
		return fmt.Errorf("clear previous export: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO variant_rows
		(source, ordinal, chrom, pos, id, ref, alt, qual, filter, allele_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if row.Missing {
			continue
		}
		var qual any
		if !row.QualMissing {
			qual = row.Qual
		}
		if _, err := stmt.Exec(source, row.Ordinal, row.Chrom, row.Pos, row.ID,
			row.Ref, row.Alt, qual, row.Filter, row.AlleleCount); err != nil {
			return fmt.Errorf("insert ordinal %d: %w", row.Ordinal, err)
		}
	}

	return tx.Commit()
}

// CountIndexed returns the number of exported index entries for source.
func (s *Store) CountIndexed(source string) (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM variant_index WHERE source = ?`, source).Scan(&n)
	return n, err
}
