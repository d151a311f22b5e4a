// Package store declares the relational models and persistence interfaces
// shared by the ingestion pipeline and the HTTP API.
package store

import (
	"context"
	"errors"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateDigest signals that a stored image row already exists for the
// digest being inserted. It is the loser's signal in the lookup/insert race:
// the caller must re-read the ledger and reuse the existing row.
var ErrDuplicateDigest = errors.New("stored image digest already exists")

// Company models the companies table. Only the columns the ingestion
// pipeline and the CRUD surface touch are mapped here.
type Company struct {
	ID                  int64   `db:"id"`
	About               string  `db:"about"`
	YearFounded         string  `db:"year_founded"`
	Website             string  `db:"website"`
	NumberOfEmployeesID *int64  `db:"number_of_employees_id"`
	LinkedIn            *string `db:"linkedin"`
	Facebook            *string `db:"facebook"`
	Twitter             *string `db:"twitter"`

	// ImageID is nil until a favicon has been ingested for the company.
	// At most one stored image is referenced per company.
	ImageID *int64 `db:"image_id"`
}

// StoredImage models the company_images table: one durably persisted favicon
// blob plus its dedup identity. Digest is unique across all rows; once a row
// is created its digest and address never change.
type StoredImage struct {
	ID int64 `db:"id"`
	// CompanyID records which company first triggered the upload. Other
	// companies may reference the same row through companies.image_id.
	CompanyID int64  `db:"company_id"`
	Address   string `db:"image_url"`
	Digest    string `db:"image_hash"`
}

// Address models the addresses table.
type Address struct {
	ID         int64  `db:"id"`
	Street     string `db:"street"`
	CityID     *int64 `db:"city_id"`
	State      string `db:"state"`
	PostalCode string `db:"postal_code"`
	CountryID  *int64 `db:"country_id"`
	Type       string `db:"type"`
}

// NamedRow models the id+name reference tables (cities, countries,
// industries, number_of_employees buckets).
type NamedRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// CompanyStore is the slice of the relational store the pipeline and the
// company endpoints depend on.
type CompanyStore interface {
	// ListCompaniesNeedingImage returns companies with a website set and no
	// image reference yet. Re-running the pipeline over an already ingested
	// dataset therefore selects nothing.
	ListCompaniesNeedingImage(ctx context.Context) ([]Company, error)

	// SetCompanyImage writes the company's image reference. It returns
	// ErrNotFound if the company row no longer exists.
	SetCompanyImage(ctx context.Context, companyID, imageID int64) error

	ListCompanies(ctx context.Context, limit, offset int) ([]Company, error)
	GetCompany(ctx context.Context, id int64) (Company, error)
	CreateCompany(ctx context.Context, c Company) (Company, error)
	UpdateCompany(ctx context.Context, c Company) (Company, error)
	DeleteCompany(ctx context.Context, id int64) error
}

// ImageLedger is the dedup ledger: a persisted digest -> StoredImage mapping.
// Rows are created once per distinct digest and never updated or deleted by
// the pipeline.
type ImageLedger interface {
	// FindStoredImageByDigest returns the ledger row for the digest, or
	// ErrNotFound when no image with that digest has been stored yet.
	FindStoredImageByDigest(ctx context.Context, digest string) (StoredImage, error)

	// InsertStoredImage creates a new ledger row. It returns
	// ErrDuplicateDigest when a concurrent insert already created a row for
	// the same digest.
	InsertStoredImage(ctx context.Context, companyID int64, address, digest string) (StoredImage, error)

	GetStoredImage(ctx context.Context, id int64) (StoredImage, error)
	ListStoredImages(ctx context.Context, limit, offset int) ([]StoredImage, error)
}

// AddressStore persists addresses for the CRUD surface.
type AddressStore interface {
	ListAddresses(ctx context.Context, limit, offset int) ([]Address, error)
	GetAddress(ctx context.Context, id int64) (Address, error)
	CreateAddress(ctx context.Context, a Address) (Address, error)
}

// ReferenceStore serves the id+name lookup tables. The table argument must
// be one of the known reference table names.
type ReferenceStore interface {
	ListNamed(ctx context.Context, table string, limit, offset int) ([]NamedRow, error)
	GetNamed(ctx context.Context, table string, id int64) (NamedRow, error)
	CreateNamed(ctx context.Context, table string, name string) (NamedRow, error)
}
