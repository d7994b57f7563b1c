package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/internal/database/dbtest"
	"studiobook/internal/domain/admin"
	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/calendar"
	"studiobook/internal/domain/catalog"
	"studiobook/internal/domain/ratelimit"
	"studiobook/internal/pkg/jwt"
)

func TestLoadCatalog_Default(t *testing.T) {
	c, err := LoadCatalog(nil)
	require.NoError(t, err)
	require.Len(t, c.Services, 5)
	assert.Equal(t, "wedding", c.Services[0].Slug)
	require.Len(t, c.Services[0].Packages, 3)
	assert.Equal(t, int64(5_000_000), c.Services[0].Packages[0].Price)
	assert.Equal(t, 50, c.Services[0].Packages[0].DPPercentage)
	assert.Empty(t, c.Services[3].Packages)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	_, err := LoadCatalog([]byte("services:\n  - slug: x\n    name: X\n    packages:\n      - slug: p\n        price: 100\n        dpPercentage: 0\n"))
	assert.Error(t, err)

	_, err = LoadCatalog([]byte("services: [oops"))
	assert.Error(t, err)
}

func TestSeeder_RunIsIdempotent(t *testing.T) {
	db := dbtest.Open(t, &catalog.Service{}, &catalog.Package{}, &calendar.Slot{}, &admin.Admin{}, &audit.Log{}, &ratelimit.Window{})
	ctx := context.Background()
	admins := admin.NewService(admin.NewRepository(db), jwt.New("s", time.Hour), ratelimit.NewLimiter(db, nil), audit.NewRecorder(db, nil), nil)

	c, err := LoadCatalog(nil)
	require.NoError(t, err)
	opts := Options{
		Catalog:  c,
		Admin:    &admin.CreateRequest{Email: "admin@studio.test", Password: "admin12345", Name: "Admin Studio", Role: admin.RoleSuperAdmin},
		SlotDays: 90,
	}

	s := NewSeeder(db, admins, nil)
	first, err := s.Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Services)
	assert.Equal(t, 8, first.Packages)
	assert.True(t, first.AdminCreated)
	assert.Equal(t, int64(90), first.Slots)

	// a blocked day survives reseeding
	today := time.Now().Format(time.DateOnly)
	require.NoError(t, db.Model(&calendar.Slot{}).Where("date = ?", today).Update("status", calendar.SlotBlocked).Error)

	second, err := s.Run(ctx, opts)
	require.NoError(t, err)
	assert.False(t, second.AdminCreated)

	var services, packages, slots int64
	require.NoError(t, db.Model(&catalog.Service{}).Count(&services).Error)
	require.NoError(t, db.Model(&catalog.Package{}).Count(&packages).Error)
	require.NoError(t, db.Model(&calendar.Slot{}).Count(&slots).Error)
	assert.Equal(t, int64(5), services)
	assert.Equal(t, int64(8), packages)
	assert.Equal(t, int64(90), slots)

	var slot calendar.Slot
	require.NoError(t, db.Where("date = ?", today).First(&slot).Error)
	assert.Equal(t, calendar.SlotBlocked, slot.Status)

	cat := catalog.NewCatalog(catalog.NewRepository(db), audit.NewRecorder(db, nil))
	svc, err := cat.GetService(ctx, "wedding")
	require.NoError(t, err)
	require.Len(t, svc.Packages, 3)
	assert.Contains(t, svc.Packages[0].Inclusions, "Album digital")
}
