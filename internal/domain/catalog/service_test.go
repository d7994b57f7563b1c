package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/internal/database/dbtest"
	"studiobook/internal/domain/audit"
)

type recordedAudit struct {
	entries []audit.Entry
}

func (r *recordedAudit) Record(_ context.Context, e audit.Entry) { r.entries = append(r.entries, e) }

func newCatalog(t *testing.T) (*Catalog, *recordedAudit) {
	t.Helper()
	db := dbtest.Open(t, &Service{}, &Package{})
	rec := &recordedAudit{}
	return NewCatalog(NewRepository(db), rec), rec
}

func seed(t *testing.T, c *Catalog) (*Service, *Package) {
	t.Helper()
	ctx := context.Background()
	admin := audit.Admin("a-1", "Admin")

	s, err := c.CreateService(ctx, admin, CreateServiceRequest{Slug: "Wedding", Name: "Wedding Photography", DisplayOrder: 1}, audit.Meta{})
	require.NoError(t, err)

	p, err := c.CreatePackage(ctx, admin, "wedding", CreatePackageRequest{
		Slug: "silver", Name: "Silver", Price: 5_000_000, DPPercentage: 50,
		Inclusions: []string{"1 fotografer", "Dokumentasi 6 jam"},
	}, audit.Meta{})
	require.NoError(t, err)
	return s, p
}

func TestCatalog_CreateAndList(t *testing.T) {
	c, rec := newCatalog(t)
	ctx := context.Background()
	s, p := seed(t, c)

	assert.Equal(t, "wedding", s.Slug)
	assert.Len(t, rec.entries, 2)

	_, err := c.CreatePackage(ctx, audit.System(), "wedding", CreatePackageRequest{
		Slug: "hidden", Name: "Hidden", Price: 1_000_000, DPPercentage: 30,
	}, audit.Meta{})
	require.NoError(t, err)
	hidden := false
	_, err = c.UpdatePackage(ctx, audit.System(), mustPackageID(t, c, "hidden"), UpdatePackageRequest{IsActive: &hidden}, audit.Meta{})
	require.NoError(t, err)

	services, err := c.ListServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 1)
	require.Len(t, services[0].Packages, 1)
	assert.Equal(t, p.ID, services[0].Packages[0].ID)
	assert.Equal(t, []string{"1 fotografer", "Dokumentasi 6 jam"}, []string(services[0].Packages[0].Inclusions))
}

func TestCatalog_GetServiceNotFound(t *testing.T) {
	c, _ := newCatalog(t)
	_, err := c.GetService(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCatalog_DuplicateSlug(t *testing.T) {
	c, _ := newCatalog(t)
	seed(t, c)
	_, err := c.CreateService(context.Background(), audit.System(), CreateServiceRequest{Slug: "wedding", Name: "Again"}, audit.Meta{})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestCatalog_Validation(t *testing.T) {
	c, _ := newCatalog(t)
	seed(t, c)
	_, err := c.CreatePackage(context.Background(), audit.System(), "wedding", CreatePackageRequest{
		Slug: "bad", Name: "Bad", Price: 100, DPPercentage: 0,
	}, audit.Meta{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_ActivePackage(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()
	s, p := seed(t, c)

	gotP, gotS, err := c.ActivePackage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, gotP.ID)
	assert.Equal(t, s.Name, gotS.Name)

	off := false
	_, err = c.UpdatePackage(ctx, audit.System(), p.ID, UpdatePackageRequest{IsActive: &off}, audit.Meta{})
	require.NoError(t, err)
	_, _, err = c.ActivePackage(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPackageNotFound)

	_, _, err = c.ActivePackage(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func mustPackageID(t *testing.T, c *Catalog, slug string) string {
	t.Helper()
	s, err := c.repo.GetServiceBySlug(context.Background(), "wedding", false)
	require.NoError(t, err)
	for _, p := range s.Packages {
		if p.Slug == slug {
			return p.ID
		}
	}
	t.Fatalf("package %s not found", slug)
	return ""
}
