package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Kalinka5/osint-vm/internal/store"
)

const addressColumns = `id, street, city_id, state, postal_code, country_id, type`

func scanAddress(row pgx.Row) (store.Address, error) {
	var a store.Address
	err := row.Scan(&a.ID, &a.Street, &a.CityID, &a.State, &a.PostalCode, &a.CountryID, &a.Type)
	return a, err
}

// ListAddresses returns a page of addresses ordered by id.
func (d *DB) ListAddresses(ctx context.Context, limit, offset int) ([]store.Address, error) {
	query := fmt.Sprintf(`SELECT %s FROM addresses ORDER BY id LIMIT $1 OFFSET $2`, addressColumns)
	rows, err := d.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []store.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}
	return addresses, nil
}

// GetAddress loads one address or returns store.ErrNotFound.
func (d *DB) GetAddress(ctx context.Context, id int64) (store.Address, error) {
	query := fmt.Sprintf(`SELECT %s FROM addresses WHERE id = $1`, addressColumns)
	a, err := scanAddress(d.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Address{}, store.ErrNotFound
	}
	if err != nil {
		return store.Address{}, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

// CreateAddress inserts an address row and returns it with its assigned id.
func (d *DB) CreateAddress(ctx context.Context, a store.Address) (store.Address, error) {
	query := `
		INSERT INTO addresses (street, city_id, state, postal_code, country_id, type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := d.pool.QueryRow(ctx, query,
		a.Street,
		a.CityID,
		a.State,
		a.PostalCode,
		a.CountryID,
		a.Type,
	).Scan(&a.ID)
	if err != nil {
		return store.Address{}, fmt.Errorf("insert address: %w", err)
	}
	return a, nil
}
