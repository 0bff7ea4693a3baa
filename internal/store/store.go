// Package store persists processed orders, their panels and holes in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/explosionLink/stone-control/pkg/cutsheet"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL UNIQUE,
	client     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS panels (
	id           TEXT PRIMARY KEY,
	order_id     TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	page         INTEGER NOT NULL,
	label        TEXT NOT NULL,
	width_mm     REAL NOT NULL,
	height_mm    REAL NOT NULL,
	thickness_mm REAL NOT NULL,
	material     TEXT,
	dxf_path     TEXT NOT NULL,
	preview_path TEXT NOT NULL DEFAULT '',
	is_mirrored  INTEGER NOT NULL DEFAULT 0,
	is_machining INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_panels_order ON panels(order_id, position);

CREATE TABLE IF NOT EXISTS holes (
	id          TEXT PRIMARY KEY,
	panel_id    TEXT NOT NULL REFERENCES panels(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	type        TEXT NOT NULL,
	x_mm        REAL NOT NULL,
	y_mm        REAL NOT NULL,
	width_mm    REAL NOT NULL DEFAULT 0,
	height_mm   REAL NOT NULL DEFAULT 0,
	diameter_mm REAL NOT NULL DEFAULT 0,
	depth_mm    REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_holes_panel ON holes(panel_id, position);
`

// Order is a processed order
type Order struct {
	ID        uuid.UUID
	Code      string
	Client    string
	CreatedAt time.Time
}

// Store wraps the SQLite database
type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps an in-memory database alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveOrder stores panels under order code, replacing whatever an earlier run
// stored for the same code.
func (s *Store) SaveOrder(ctx context.Context, code, client string, panels []cutsheet.Panel) (*Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE code = ?`, code); err != nil {
		return nil, fmt.Errorf("delete previous order: %w", err)
	}

	order := &Order{
		ID:        uuid.New(),
		Code:      code,
		Client:    client,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, code, client, created_at) VALUES (?, ?, ?, ?)`,
		order.ID, order.Code, order.Client, order.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i, p := range panels {
		panelID := uuid.New()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO panels (id, order_id, position, page, label, width_mm, height_mm,
				thickness_mm, material, dxf_path, preview_path, is_mirrored, is_machining)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			panelID, order.ID, i, p.Page, p.Label, p.WidthMM, p.HeightMM,
			p.ThicknessMM, nullString(p.Material), p.DXFPath, p.PreviewPath, p.IsMirrored, p.IsMachining,
		)
		if err != nil {
			return nil, fmt.Errorf("insert panel %q: %w", p.Label, err)
		}

		for j, h := range p.Holes {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO holes (id, panel_id, position, type, x_mm, y_mm,
					width_mm, height_mm, diameter_mm, depth_mm)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.New(), panelID, j, h.Type, h.XMM, h.YMM,
				h.WidthMM, h.HeightMM, h.DiameterMM, h.DepthMM,
			)
			if err != nil {
				return nil, fmt.Errorf("insert hole %d of %q: %w", j, p.Label, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return order, nil
}

// GetOrder retrieves an order by code.
func (s *Store) GetOrder(ctx context.Context, code string) (*Order, error) {
	order := &Order{}
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, client, created_at FROM orders WHERE code = ?`, code,
	).Scan(&order.ID, &order.Code, &order.Client, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if order.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return order, nil
}

// PanelsByOrder returns the panels of an order, with their holes, in the
// order they were saved.
func (s *Store) PanelsByOrder(ctx context.Context, code string) ([]cutsheet.Panel, error) {
	order, err := s.GetOrder(ctx, code)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page, label, width_mm, height_mm, thickness_mm, material,
			dxf_path, preview_path, is_mirrored, is_machining
		FROM panels WHERE order_id = ? ORDER BY position`, order.ID)
	if err != nil {
		return nil, fmt.Errorf("query panels: %w", err)
	}

	var (
		panels []cutsheet.Panel
		ids    []uuid.UUID
	)
	for rows.Next() {
		var (
			p        cutsheet.Panel
			id       uuid.UUID
			material sql.NullString
		)
		if err := rows.Scan(&id, &p.Page, &p.Label, &p.WidthMM, &p.HeightMM, &p.ThicknessMM,
			&material, &p.DXFPath, &p.PreviewPath, &p.IsMirrored, &p.IsMachining); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan panel: %w", err)
		}
		if material.Valid {
			m := material.String
			p.Material = &m
		}
		p.Holes = []cutsheet.Hole{}
		panels = append(panels, p)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate panels: %w", err)
	}
	rows.Close()

	for i, id := range ids {
		holes, err := s.holes(ctx, id)
		if err != nil {
			return nil, err
		}
		panels[i].Holes = holes
	}
	return panels, nil
}

// DeleteOrder removes an order with its panels and holes.
func (s *Store) DeleteOrder(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) holes(ctx context.Context, panelID uuid.UUID) ([]cutsheet.Hole, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, x_mm, y_mm, width_mm, height_mm, diameter_mm, depth_mm
		FROM holes WHERE panel_id = ? ORDER BY position`, panelID)
	if err != nil {
		return nil, fmt.Errorf("query holes: %w", err)
	}
	defer rows.Close()

	holes := []cutsheet.Hole{}
	for rows.Next() {
		var h cutsheet.Hole
		if err := rows.Scan(&h.Type, &h.XMM, &h.YMM, &h.WidthMM, &h.HeightMM, &h.DiameterMM, &h.DepthMM); err != nil {
			return nil, fmt.Errorf("scan hole: %w", err)
		}
		holes = append(holes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holes: %w", err)
	}
	return holes, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
