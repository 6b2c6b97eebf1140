package scanlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"trajectory-go/fusion"
)

// Store reads and writes scan datasets and anchor tables kept in SQLite.
type Store struct {
	*sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db}, nil
}

// LoadScans returns the rows of table in insertion order.
func (s *Store) LoadScans(ctx context.Context, table string, cols ScanColumns) ([]fusion.ScanRecord, error) {
	q := fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s ORDER BY rowid",
		quoteIdent(cols.Tick), quoteIdent(cols.AnchorID), quoteIdent(cols.DeviceID), quoteIdent(cols.RSSI), quoteIdent(table))
	rows, err := s.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	intern := map[string]string{}
	var out []fusion.ScanRecord
	n := 0
	for rows.Next() {
		n++
		var rec fusion.ScanRecord
		if err := rows.Scan(&rec.Tick, &rec.AnchorID, &rec.DeviceID, &rec.RSSI); err != nil {
			return nil, fmt.Errorf("%w: scan row %d: %v", ErrMalformedRow, n, err)
		}
		if rec.Tick < 1 {
			return nil, fmt.Errorf("%w: scan row %d tick %d", fusion.ErrInvalidTick, n, rec.Tick)
		}
		if v, ok := intern[rec.AnchorID]; ok {
			rec.AnchorID = v
		} else {
			intern[rec.AnchorID] = rec.AnchorID
		}
		if v, ok := intern[rec.DeviceID]; ok {
			rec.DeviceID = v
		} else {
			intern[rec.DeviceID] = rec.DeviceID
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) LoadAnchors(ctx context.Context, table string, cols AnchorColumns) ([]fusion.Anchor, error) {
	q := fmt.Sprintf("SELECT %s, %s, %s FROM %s ORDER BY rowid",
		quoteIdent(cols.AnchorID), quoteIdent(cols.X), quoteIdent(cols.Y), quoteIdent(table))
	rows, err := s.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query anchors: %w", err)
	}
	defer rows.Close()

	var out []fusion.Anchor
	for rows.Next() {
		var a fusion.Anchor
		var x, y float64
		if err := rows.Scan(&a.ID, &x, &y); err != nil {
			return nil, fmt.Errorf("%w: anchor row %d: %v", ErrMalformedRow, len(out)+1, err)
		}
		a.X, a.Y = int(x), int(y)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteScans creates table if needed and appends recs in one transaction.
func (s *Store) WriteScans(ctx context.Context, table string, cols ScanColumns, recs []fusion.ScanRecord) error {
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s INTEGER NOT NULL, %s TEXT NOT NULL, %s TEXT NOT NULL, %s INTEGER NOT NULL)",
		quoteIdent(table), quoteIdent(cols.Tick), quoteIdent(cols.AnchorID), quoteIdent(cols.DeviceID), quoteIdent(cols.RSSI))
	insert := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s) VALUES (?, ?, ?, ?)",
		quoteIdent(table), quoteIdent(cols.Tick), quoteIdent(cols.AnchorID), quoteIdent(cols.DeviceID), quoteIdent(cols.RSSI))
	return s.inTx(ctx, create, insert, func(stmt *sql.Stmt) error {
		for _, r := range recs {
			if _, err := stmt.ExecContext(ctx, r.Tick, r.AnchorID, r.DeviceID, r.RSSI); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) WriteAnchors(ctx context.Context, table string, cols AnchorColumns, anchors []fusion.Anchor) error {
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY, %s INTEGER NOT NULL, %s INTEGER NOT NULL)",
		quoteIdent(table), quoteIdent(cols.AnchorID), quoteIdent(cols.X), quoteIdent(cols.Y))
	insert := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, %s, %s) VALUES (?, ?, ?)",
		quoteIdent(table), quoteIdent(cols.AnchorID), quoteIdent(cols.X), quoteIdent(cols.Y))
	return s.inTx(ctx, create, insert, func(stmt *sql.Stmt) error {
		for _, a := range anchors {
			if _, err := stmt.ExecContext(ctx, a.ID, a.X, a.Y); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, create, insert string, fill func(*sql.Stmt) error) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, create); err != nil {
		tx.Rollback()
		return fmt.Errorf("create table: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	if err := fill(stmt); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert: %w", err)
	}
	return tx.Commit()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
