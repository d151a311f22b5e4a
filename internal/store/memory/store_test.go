package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kalinka5/osint-vm/internal/store"
)

func TestListCompaniesNeedingImage(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	withSite, err := s.CreateCompany(ctx, store.Company{About: "has site", Website: "https://a.example.com"})
	require.NoError(t, err)
	_, err = s.CreateCompany(ctx, store.Company{About: "no site"})
	require.NoError(t, err)
	done, err := s.CreateCompany(ctx, store.Company{About: "already done", Website: "https://b.example.com"})
	require.NoError(t, err)

	img, err := s.InsertStoredImage(ctx, done.ID, "memory://favicons/x.png", "x")
	require.NoError(t, err)
	require.NoError(t, s.SetCompanyImage(ctx, done.ID, img.ID))

	companies, err := s.ListCompaniesNeedingImage(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	require.Equal(t, withSite.ID, companies[0].ID)
}

func TestSetCompanyImage(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	c, err := s.CreateCompany(ctx, store.Company{About: "co", Website: "https://a.example.com"})
	require.NoError(t, err)

	require.NoError(t, s.SetCompanyImage(ctx, c.ID, 42))
	got, err := s.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ImageID)
	require.Equal(t, int64(42), *got.ImageID)

	require.ErrorIs(t, s.SetCompanyImage(ctx, 9999, 42), store.ErrNotFound)
}

func TestCompanyCRUD(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	created, err := s.CreateCompany(ctx, store.Company{About: "co", Website: "https://a.example.com"})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)

	created.About = "updated"
	updated, err := s.UpdateCompany(ctx, created)
	require.NoError(t, err)
	require.Equal(t, "updated", updated.About)

	_, err = s.UpdateCompany(ctx, store.Company{ID: 999})
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeleteCompany(ctx, created.ID))
	require.ErrorIs(t, s.DeleteCompany(ctx, created.ID), store.ErrNotFound)
	_, err = s.GetCompany(ctx, created.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestImageLedgerDigestUniqueness(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	first, err := s.InsertStoredImage(ctx, 1, "memory://favicons/a.png", "digest-a")
	require.NoError(t, err)

	_, err = s.InsertStoredImage(ctx, 2, "memory://favicons/other.png", "digest-a")
	require.ErrorIs(t, err, store.ErrDuplicateDigest)
	require.Equal(t, 1, s.ImageCount())

	found, err := s.FindStoredImageByDigest(ctx, "digest-a")
	require.NoError(t, err)
	require.Equal(t, first, found)

	_, err = s.FindStoredImageByDigest(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetStoredImage(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first, got)
}

func TestListPagination(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.CreateCompany(ctx, store.Company{About: "co"})
		require.NoError(t, err)
	}

	page1, err := s.ListCompanies(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.Equal(t, int64(1), page1[0].ID)

	page3, err := s.ListCompanies(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	require.Equal(t, int64(5), page3[0].ID)

	empty, err := s.ListCompanies(ctx, 2, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestAddressStore(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	cityID := int64(1)
	created, err := s.CreateAddress(ctx, store.Address{Street: "1 Main St", CityID: &cityID, Type: "HQ"})
	require.NoError(t, err)

	got, err := s.GetAddress(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	all, err := s.ListAddresses(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = s.GetAddress(ctx, 999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReferenceStore(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	city, err := s.CreateNamed(ctx, "cities", "Kyiv")
	require.NoError(t, err)
	country, err := s.CreateNamed(ctx, "countries", "Ukraine")
	require.NoError(t, err)

	cities, err := s.ListNamed(ctx, "cities", 10, 0)
	require.NoError(t, err)
	require.Equal(t, []store.NamedRow{city}, cities)

	got, err := s.GetNamed(ctx, "countries", country.ID)
	require.NoError(t, err)
	require.Equal(t, "Ukraine", got.Name)

	_, err = s.GetNamed(ctx, "cities", country.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
