package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Kalinka5/osint-vm/internal/store"
)

const imageColumns = `id, company_id, image_url, image_hash`

func scanStoredImage(row pgx.Row) (store.StoredImage, error) {
	var img store.StoredImage
	err := row.Scan(&img.ID, &img.CompanyID, &img.Address, &img.Digest)
	return img, err
}

// FindStoredImageByDigest is the ledger lookup consulted before any upload.
func (d *DB) FindStoredImageByDigest(ctx context.Context, digest string) (store.StoredImage, error) {
	query := fmt.Sprintf(`SELECT %s FROM company_images WHERE image_hash = $1`, imageColumns)
	img, err := scanStoredImage(d.pool.QueryRow(ctx, query, digest))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.StoredImage{}, store.ErrNotFound
	}
	if err != nil {
		return store.StoredImage{}, fmt.Errorf("find stored image by digest: %w", err)
	}
	return img, nil
}

// InsertStoredImage creates a new ledger row. The image_hash column carries a
// UNIQUE constraint; a concurrent insert for the same digest surfaces as
// store.ErrDuplicateDigest so the caller can fall back to the reuse path.
func (d *DB) InsertStoredImage(ctx context.Context, companyID int64, address, digest string) (store.StoredImage, error) {
	query := `
		INSERT INTO company_images (company_id, image_url, image_hash)
		VALUES ($1, $2, $3)
		RETURNING id`
	img := store.StoredImage{
		CompanyID: companyID,
		Address:   address,
		Digest:    digest,
	}
	err := d.pool.QueryRow(ctx, query, companyID, address, digest).Scan(&img.ID)
	if isUniqueViolation(err) {
		return store.StoredImage{}, store.ErrDuplicateDigest
	}
	if err != nil {
		return store.StoredImage{}, fmt.Errorf("insert stored image: %w", err)
	}
	return img, nil
}

// GetStoredImage loads one ledger row or returns store.ErrNotFound.
func (d *DB) GetStoredImage(ctx context.Context, id int64) (store.StoredImage, error) {
	query := fmt.Sprintf(`SELECT %s FROM company_images WHERE id = $1`, imageColumns)
	img, err := scanStoredImage(d.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.StoredImage{}, store.ErrNotFound
	}
	if err != nil {
		return store.StoredImage{}, fmt.Errorf("get stored image: %w", err)
	}
	return img, nil
}

// ListStoredImages returns a page of ledger rows ordered by id.
func (d *DB) ListStoredImages(ctx context.Context, limit, offset int) ([]store.StoredImage, error) {
	query := fmt.Sprintf(`SELECT %s FROM company_images ORDER BY id LIMIT $1 OFFSET $2`, imageColumns)
	rows, err := d.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stored images: %w", err)
	}
	defer rows.Close()

	var images []store.StoredImage
	for rows.Next() {
		img, err := scanStoredImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stored image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stored images: %w", err)
	}
	return images, nil
}
