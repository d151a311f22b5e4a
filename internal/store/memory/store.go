// Package memory provides an in-memory implementation of the store
// interfaces for tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Kalinka5/osint-vm/internal/store"
)

// Store keeps companies, stored images, addresses and reference rows in
// maps guarded by one mutex. The digest uniqueness invariant is enforced the
// same way the Postgres schema does, so the dedup race behaves identically.
type Store struct {
	mu sync.Mutex

	companies    map[int64]store.Company
	images       map[int64]store.StoredImage
	imagesByHash map[string]int64
	addresses    map[int64]store.Address
	named        map[string]map[int64]store.NamedRow

	nextCompanyID int64
	nextImageID   int64
	nextAddressID int64
	nextNamedID   int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		companies:    make(map[int64]store.Company),
		images:       make(map[int64]store.StoredImage),
		imagesByHash: make(map[string]int64),
		addresses:    make(map[int64]store.Address),
		named:        make(map[string]map[int64]store.NamedRow),
	}
}

// Close is a no-op; it mirrors the Postgres store's lifecycle.
func (s *Store) Close() {}

// ListCompaniesNeedingImage returns companies with a website and no image
// reference, ordered by id.
func (s *Store) ListCompaniesNeedingImage(_ context.Context) ([]store.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Company
	for _, c := range s.companies {
		if c.ImageID == nil && c.Website != "" {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetCompanyImage writes the image reference or reports store.ErrNotFound.
func (s *Store) SetCompanyImage(_ context.Context, companyID, imageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[companyID]
	if !ok {
		return store.ErrNotFound
	}
	c.ImageID = &imageID
	s.companies[companyID] = c
	return nil
}

// ListCompanies returns a page of companies ordered by id.
func (s *Store) ListCompanies(_ context.Context, limit, offset int) ([]store.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]store.Company, 0, len(s.companies))
	for _, c := range s.companies {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, limit, offset), nil
}

// GetCompany loads one company or returns store.ErrNotFound.
func (s *Store) GetCompany(_ context.Context, id int64) (store.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return store.Company{}, store.ErrNotFound
	}
	return c, nil
}

// CreateCompany assigns the next id and stores the company.
func (s *Store) CreateCompany(_ context.Context, c store.Company) (store.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCompanyID++
	c.ID = s.nextCompanyID
	s.companies[c.ID] = c
	return c, nil
}

// UpdateCompany replaces the stored company or reports store.ErrNotFound.
func (s *Store) UpdateCompany(_ context.Context, c store.Company) (store.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; !ok {
		return store.Company{}, store.ErrNotFound
	}
	s.companies[c.ID] = c
	return c, nil
}

// DeleteCompany removes the company or reports store.ErrNotFound.
func (s *Store) DeleteCompany(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

// FindStoredImageByDigest is the ledger lookup.
func (s *Store) FindStoredImageByDigest(_ context.Context, digest string) (store.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.imagesByHash[digest]
	if !ok {
		return store.StoredImage{}, store.ErrNotFound
	}
	return s.images[id], nil
}

// InsertStoredImage creates a ledger row, enforcing digest uniqueness.
func (s *Store) InsertStoredImage(_ context.Context, companyID int64, address, digest string) (store.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.imagesByHash[digest]; exists {
		return store.StoredImage{}, store.ErrDuplicateDigest
	}
	s.nextImageID++
	img := store.StoredImage{
		ID:        s.nextImageID,
		CompanyID: companyID,
		Address:   address,
		Digest:    digest,
	}
	s.images[img.ID] = img
	s.imagesByHash[digest] = img.ID
	return img, nil
}

// GetStoredImage loads one ledger row or returns store.ErrNotFound.
func (s *Store) GetStoredImage(_ context.Context, id int64) (store.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return store.StoredImage{}, store.ErrNotFound
	}
	return img, nil
}

// ListStoredImages returns a page of ledger rows ordered by id.
func (s *Store) ListStoredImages(_ context.Context, limit, offset int) ([]store.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]store.StoredImage, 0, len(s.images))
	for _, img := range s.images {
		all = append(all, img)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, limit, offset), nil
}

// ImageCount reports the number of ledger rows (test helper).
func (s *Store) ImageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// ListAddresses returns a page of addresses ordered by id.
func (s *Store) ListAddresses(_ context.Context, limit, offset int) ([]store.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]store.Address, 0, len(s.addresses))
	for _, a := range s.addresses {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, limit, offset), nil
}

// GetAddress loads one address or returns store.ErrNotFound.
func (s *Store) GetAddress(_ context.Context, id int64) (store.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.addresses[id]
	if !ok {
		return store.Address{}, store.ErrNotFound
	}
	return a, nil
}

// CreateAddress assigns the next id and stores the address.
func (s *Store) CreateAddress(_ context.Context, a store.Address) (store.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAddressID++
	a.ID = s.nextAddressID
	s.addresses[a.ID] = a
	return a, nil
}

// ListNamed returns a page of reference rows ordered by id.
func (s *Store) ListNamed(_ context.Context, table string, limit, offset int) ([]store.NamedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.named[table]
	all := make([]store.NamedRow, 0, len(rows))
	for _, r := range rows {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, limit, offset), nil
}

// GetNamed loads one reference row or returns store.ErrNotFound.
func (s *Store) GetNamed(_ context.Context, table string, id int64) (store.NamedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.named[table][id]
	if !ok {
		return store.NamedRow{}, store.ErrNotFound
	}
	return r, nil
}

// CreateNamed assigns the next id and stores the reference row.
func (s *Store) CreateNamed(_ context.Context, table string, name string) (store.NamedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named[table] == nil {
		s.named[table] = make(map[int64]store.NamedRow)
	}
	s.nextNamedID++
	r := store.NamedRow{ID: s.nextNamedID, Name: name}
	s.named[table][r.ID] = r
	return r, nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, all[offset:end])
	return out
}
