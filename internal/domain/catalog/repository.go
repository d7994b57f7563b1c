package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"studiobook/internal/database"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func activePackages(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("display_order ASC, price ASC")
}

func (r *Repository) ListActiveServices(ctx context.Context) ([]Service, error) {
	var services []Service
	err := database.Conn(ctx, r.db).
		Preload("Packages", activePackages).
		Where("is_active = ?", true).
		Order("display_order ASC, name ASC").
		Find(&services).Error
	return services, err
}

func (r *Repository) GetServiceBySlug(ctx context.Context, slug string, activeOnly bool) (*Service, error) {
	q := database.Conn(ctx, r.db).Where("slug = ?", slug)
	if activeOnly {
		q = q.Where("is_active = ?", true).Preload("Packages", activePackages)
	} else {
		q = q.Preload("Packages", func(db *gorm.DB) *gorm.DB { return db.Order("display_order ASC") })
	}

	var s Service
	if err := q.First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) GetServiceByID(ctx context.Context, id string) (*Service, error) {
	var s Service
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) GetPackage(ctx context.Context, id string) (*Package, error) {
	var p Package
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreateService(ctx context.Context, s *Service) error {
	if err := database.Conn(ctx, r.db).Omit("Packages").Create(s).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (r *Repository) CreatePackage(ctx context.Context, p *Package) error {
	if err := database.Conn(ctx, r.db).Create(p).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (r *Repository) SavePackage(ctx context.Context, p *Package) error {
	return database.Conn(ctx, r.db).Save(p).Error
}
