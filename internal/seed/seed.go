// Package seed loads the default service catalog, the first admin account and
// the initial calendar rows.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studiobook/internal/database"
	"studiobook/internal/domain/admin"
	"studiobook/internal/domain/calendar"
	"studiobook/internal/domain/catalog"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type PackageSpec struct {
	Slug          string   `yaml:"slug"`
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Price         int64    `yaml:"price"`
	DPPercentage  int      `yaml:"dpPercentage"`
	DurationHours int      `yaml:"durationHours"`
	DisplayOrder  int      `yaml:"displayOrder"`
	Inclusions    []string `yaml:"inclusions"`
}

type ServiceSpec struct {
	Slug         string        `yaml:"slug"`
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	ThumbnailURL string        `yaml:"thumbnailUrl"`
	DisplayOrder int           `yaml:"displayOrder"`
	Packages     []PackageSpec `yaml:"packages"`
}

type Catalog struct {
	Services []ServiceSpec `yaml:"services"`
}

// LoadCatalog parses a catalog document. Empty input yields the embedded default.
func LoadCatalog(data []byte) (*Catalog, error) {
	if len(data) == 0 {
		data = defaultCatalog
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, s := range c.Services {
		if s.Slug == "" || s.Name == "" {
			return nil, errors.New("catalog: service slug and name are required")
		}
		for _, p := range s.Packages {
			if p.Slug == "" || p.Price <= 0 || p.DPPercentage < 1 || p.DPPercentage > 100 {
				return nil, fmt.Errorf("catalog: invalid package %q in service %q", p.Slug, s.Slug)
			}
		}
	}
	return &c, nil
}

type Options struct {
	Catalog  *Catalog
	Admin    *admin.CreateRequest
	SlotDays int
}

type Result struct {
	Services     int
	Packages     int
	AdminCreated bool
	Slots        int64
}

type AdminCreator interface {
	Ensure(ctx context.Context, req admin.CreateRequest) (*admin.Admin, bool, error)
}

type Seeder struct {
	db     *gorm.DB
	admins AdminCreator
	log    *zap.Logger
	now    func() time.Time
}

func NewSeeder(db *gorm.DB, admins AdminCreator, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{db: db, admins: admins, log: log.Named("seed"), now: time.Now}
}

// Run is idempotent: services and packages are matched by slug and updated in place,
// an existing admin is left alone and existing calendar rows keep their status.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}

	if opts.Catalog != nil {
		err := database.NewTxManager(s.db).Do(ctx, func(ctx context.Context) error {
			for _, spec := range opts.Catalog.Services {
				n, err := s.upsertService(ctx, spec)
				if err != nil {
					return err
				}
				res.Services++
				res.Packages += n
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.log.Info("catalog seeded", zap.Int("services", res.Services), zap.Int("packages", res.Packages))
	}

	if opts.Admin != nil {
		a, created, err := s.admins.Ensure(ctx, *opts.Admin)
		if err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
		res.AdminCreated = created
		s.log.Info("admin ready", zap.String("email", a.Email), zap.Bool("created", created))
	}

	if opts.SlotDays > 0 {
		n, err := s.seedSlots(ctx, opts.SlotDays)
		if err != nil {
			return nil, err
		}
		res.Slots = n
		s.log.Info("calendar seeded", zap.Int("days", opts.SlotDays), zap.Int64("inserted", n))
	}
	return res, nil
}

func (s *Seeder) upsertService(ctx context.Context, spec ServiceSpec) (int, error) {
	db := database.Conn(ctx, s.db)

	var svc catalog.Service
	err := db.Where("slug = ?", spec.Slug).First(&svc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		svc = catalog.Service{Slug: spec.Slug}
	case err != nil:
		return 0, err
	}
	svc.Name = spec.Name
	svc.Description = spec.Description
	svc.ThumbnailURL = spec.ThumbnailURL
	svc.DisplayOrder = spec.DisplayOrder
	svc.IsActive = true
	if err := db.Omit(clause.Associations).Save(&svc).Error; err != nil {
		return 0, fmt.Errorf("save service %s: %w", spec.Slug, err)
	}

	for _, ps := range spec.Packages {
		var pkg catalog.Package
		err := db.Where("service_id = ? AND slug = ?", svc.ID, ps.Slug).First(&pkg).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			pkg = catalog.Package{ServiceID: svc.ID, Slug: ps.Slug}
		case err != nil:
			return 0, err
		}
		pkg.Name = ps.Name
		pkg.Description = ps.Description
		pkg.Price = ps.Price
		pkg.DPPercentage = ps.DPPercentage
		pkg.DurationHours = ps.DurationHours
		pkg.DisplayOrder = ps.DisplayOrder
		pkg.Inclusions = append([]string{}, ps.Inclusions...)
		pkg.IsActive = true
		if err := db.Save(&pkg).Error; err != nil {
			return 0, fmt.Errorf("save package %s/%s: %w", spec.Slug, ps.Slug, err)
		}
	}
	return len(spec.Packages), nil
}

// seedSlots inserts AVAILABLE rows for today and the following days-1 days.
func (s *Seeder) seedSlots(ctx context.Context, days int) (int64, error) {
	today := s.now()
	slots := make([]calendar.Slot, 0, days)
	for i := 0; i < days; i++ {
		slots = append(slots, calendar.Slot{
			Date:   today.AddDate(0, 0, i).Format(time.DateOnly),
			Status: calendar.SlotAvailable,
		})
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "date"}}, DoNothing: true}).
		CreateInBatches(&slots, 50)
	if res.Error != nil {
		return 0, fmt.Errorf("seed calendar: %w", res.Error)
	}
	return res.RowsAffected, nil
}
