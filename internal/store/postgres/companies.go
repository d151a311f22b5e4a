package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Kalinka5/osint-vm/internal/store"
)

const companyColumns = `id, about, year_founded, website, number_of_employees_id, linkedin, facebook, twitter, image_id`

func scanCompany(row pgx.Row) (store.Company, error) {
	var c store.Company
	err := row.Scan(
		&c.ID,
		&c.About,
		&c.YearFounded,
		&c.Website,
		&c.NumberOfEmployeesID,
		&c.LinkedIn,
		&c.Facebook,
		&c.Twitter,
		&c.ImageID,
	)
	return c, err
}

// ListCompaniesNeedingImage returns companies with a non-empty website and a
// NULL image reference, i.e. the ingestion work list.
func (d *DB) ListCompaniesNeedingImage(ctx context.Context) ([]store.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE image_id IS NULL AND website <> '' ORDER BY id`, companyColumns)
	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list companies needing image: %w", err)
	}
	defer rows.Close()

	var companies []store.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

// SetCompanyImage records the company's stored image reference. It reports
// store.ErrNotFound when the company row has vanished.
func (d *DB) SetCompanyImage(ctx context.Context, companyID, imageID int64) error {
	tag, err := d.pool.Exec(ctx, `UPDATE companies SET image_id = $1 WHERE id = $2`, imageID, companyID)
	if err != nil {
		return fmt.Errorf("set company image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListCompanies returns a page of companies ordered by id.
func (d *DB) ListCompanies(ctx context.Context, limit, offset int) ([]store.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies ORDER BY id LIMIT $1 OFFSET $2`, companyColumns)
	rows, err := d.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []store.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

// GetCompany loads one company or returns store.ErrNotFound.
func (d *DB) GetCompany(ctx context.Context, id int64) (store.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1`, companyColumns)
	c, err := scanCompany(d.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Company{}, store.ErrNotFound
	}
	if err != nil {
		return store.Company{}, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// CreateCompany inserts a company row and returns it with its assigned id.
func (d *DB) CreateCompany(ctx context.Context, c store.Company) (store.Company, error) {
	query := `
		INSERT INTO companies (about, year_founded, website, number_of_employees_id, linkedin, facebook, twitter, image_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := d.pool.QueryRow(ctx, query,
		c.About,
		c.YearFounded,
		c.Website,
		c.NumberOfEmployeesID,
		c.LinkedIn,
		c.Facebook,
		c.Twitter,
		c.ImageID,
	).Scan(&c.ID)
	if err != nil {
		return store.Company{}, fmt.Errorf("insert company: %w", err)
	}
	return c, nil
}

// UpdateCompany replaces every mutable column of the company row.
func (d *DB) UpdateCompany(ctx context.Context, c store.Company) (store.Company, error) {
	query := `
		UPDATE companies
		SET about = $1, year_founded = $2, website = $3, number_of_employees_id = $4,
		    linkedin = $5, facebook = $6, twitter = $7, image_id = $8
		WHERE id = $9`
	tag, err := d.pool.Exec(ctx, query,
		c.About,
		c.YearFounded,
		c.Website,
		c.NumberOfEmployeesID,
		c.LinkedIn,
		c.Facebook,
		c.Twitter,
		c.ImageID,
		c.ID,
	)
	if err != nil {
		return store.Company{}, fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.Company{}, store.ErrNotFound
	}
	return c, nil
}

// DeleteCompany removes a company row.
func (d *DB) DeleteCompany(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
