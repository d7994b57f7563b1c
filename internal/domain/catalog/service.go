package catalog

import (
	"context"
	"fmt"
	"strings"

	"studiobook/internal/domain/audit"
	"studiobook/internal/pkg/validator"
)

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Catalog serves public reads and admin edits of services and packages.
type Catalog struct {
	repo  *Repository
	audit AuditRecorder
}

func NewCatalog(repo *Repository, recorder AuditRecorder) *Catalog {
	return &Catalog{repo: repo, audit: recorder}
}

func (c *Catalog) ListServices(ctx context.Context) ([]Service, error) {
	return c.repo.ListActiveServices(ctx)
}

func (c *Catalog) GetService(ctx context.Context, slug string) (*Service, error) {
	return c.repo.GetServiceBySlug(ctx, slug, true)
}

// ActivePackage returns a bookable package together with its service.
// Inactive packages and packages of inactive services are reported as not found.
func (c *Catalog) ActivePackage(ctx context.Context, id string) (*Package, *Service, error) {
	p, err := c.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !p.IsActive {
		return nil, nil, ErrPackageNotFound
	}
	s, err := c.repo.GetServiceByID(ctx, p.ServiceID)
	if err != nil {
		return nil, nil, err
	}
	if !s.IsActive {
		return nil, nil, ErrPackageNotFound
	}
	return p, s, nil
}

func (c *Catalog) CreateService(ctx context.Context, actor audit.Actor, req CreateServiceRequest, meta audit.Meta) (*Service, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, errs)
	}

	s := &Service{
		Slug:         normalizeSlug(req.Slug),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
	}
	if err := c.repo.CreateService(ctx, s); err != nil {
		return nil, err
	}
	s.Packages = []Package{}

	c.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		EntityType: audit.EntityService,
		EntityID:   s.ID,
		Action:     audit.ActionCreated,
		New:        map[string]any{"slug": s.Slug, "name": s.Name},
		Meta:       meta,
	})
	return s, nil
}

func (c *Catalog) CreatePackage(ctx context.Context, actor audit.Actor, serviceSlug string, req CreatePackageRequest, meta audit.Meta) (*Package, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, errs)
	}

	s, err := c.repo.GetServiceBySlug(ctx, serviceSlug, false)
	if err != nil {
		return nil, err
	}

	inclusions := req.Inclusions
	if inclusions == nil {
		inclusions = []string{}
	}
	p := &Package{
		ServiceID:     s.ID,
		Slug:          normalizeSlug(req.Slug),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		DPPercentage:  req.DPPercentage,
		Inclusions:    inclusions,
		DurationHours: req.DurationHours,
		DisplayOrder:  req.DisplayOrder,
		IsActive:      true,
	}
	if err := c.repo.CreatePackage(ctx, p); err != nil {
		return nil, err
	}

	c.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		EntityType: audit.EntityPackage,
		EntityID:   p.ID,
		Action:     audit.ActionCreated,
		New:        map[string]any{"service": s.Slug, "slug": p.Slug, "price": p.Price, "dpPercentage": p.DPPercentage},
		Meta:       meta,
	})
	return p, nil
}

func (c *Catalog) UpdatePackage(ctx context.Context, actor audit.Actor, id string, req UpdatePackageRequest, meta audit.Meta) (*Package, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, errs)
	}

	p, err := c.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	before := packageValues(p)

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.DPPercentage != nil {
		p.DPPercentage = *req.DPPercentage
	}
	if req.Inclusions != nil {
		p.Inclusions = *req.Inclusions
	}
	if req.DurationHours != nil {
		p.DurationHours = *req.DurationHours
	}
	if req.DisplayOrder != nil {
		p.DisplayOrder = *req.DisplayOrder
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := c.repo.SavePackage(ctx, p); err != nil {
		return nil, err
	}

	c.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		EntityType: audit.EntityPackage,
		EntityID:   p.ID,
		Action:     audit.ActionUpdated,
		Old:        before,
		New:        packageValues(p),
		Meta:       meta,
	})
	return p, nil
}

func packageValues(p *Package) map[string]any {
	return map[string]any{
		"name":         p.Name,
		"price":        p.Price,
		"dpPercentage": p.DPPercentage,
		"isActive":     p.IsActive,
	}
}

func normalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
