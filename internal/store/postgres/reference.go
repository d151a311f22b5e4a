package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Kalinka5/osint-vm/internal/store"
)

// ListNamed returns a page of rows from one of the id+name reference tables.
func (d *DB) ListNamed(ctx context.Context, table string, limit, offset int) ([]store.NamedRow, error) {
	table, err := refTable(table)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id LIMIT $1 OFFSET $2`, table)
	rows, err := d.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []store.NamedRow
	for rows.Next() {
		var r store.NamedRow
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

// GetNamed loads one reference row or returns store.ErrNotFound.
func (d *DB) GetNamed(ctx context.Context, table string, id int64) (store.NamedRow, error) {
	table, err := refTable(table)
	if err != nil {
		return store.NamedRow{}, err
	}
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE id = $1`, table)
	var r store.NamedRow
	err = d.pool.QueryRow(ctx, query, id).Scan(&r.ID, &r.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.NamedRow{}, store.ErrNotFound
	}
	if err != nil {
		return store.NamedRow{}, fmt.Errorf("get %s row: %w", table, err)
	}
	return r, nil
}

// CreateNamed inserts a reference row and returns it with its assigned id.
func (d *DB) CreateNamed(ctx context.Context, table string, name string) (store.NamedRow, error) {
	table, err := refTable(table)
	if err != nil {
		return store.NamedRow{}, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, table)
	r := store.NamedRow{Name: name}
	if err := d.pool.QueryRow(ctx, query, name).Scan(&r.ID); err != nil {
		return store.NamedRow{}, fmt.Errorf("insert %s row: %w", table, err)
	}
	return r, nil
}
