package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmeshcher/loyalty-platform/internal/events"
	"github.com/mmeshcher/loyalty-platform/internal/model"
	"github.com/mmeshcher/loyalty-platform/internal/validation"
)

// CreateUser регистрирует покупателя тенанта.
func (s *Service) CreateUser(ctx context.Context, tenantID string, u model.User) (*model.User, error) {
	u.ID = uuid.NewString()
	u.TenantID = tenantID
	u.CreatedAt = s.now()
	if u.Attributes == nil {
		u.Attributes = model.Attributes{}
	}

	err := s.write(ctx, "user", "create", events.TypeCreated, tenantID, u.ID, u, validation.User(&u),
		func(ctx context.Context) error { return s.repo.CreateUser(ctx, &u) })
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser возвращает покупателя тенанта.
func (s *Service) GetUser(ctx context.Context, tenantID, id string) (*model.User, error) {
	return traced(ctx, s, "service.user.get", tenantID, func(ctx context.Context) (*model.User, error) {
		return s.repo.GetUser(ctx, tenantID, id)
	})
}

// ListUsers возвращает страницу покупателей тенанта.
func (s *Service) ListUsers(ctx context.Context, tenantID string, page model.Page) ([]model.User, error) {
	return traced(ctx, s, "service.user.list", tenantID, func(ctx context.Context) ([]model.User, error) {
		return s.repo.ListUsers(ctx, tenantID, page)
	})
}

// CreateProduct добавляет товар в каталог тенанта. SKU уникален в пределах тенанта.
func (s *Service) CreateProduct(ctx context.Context, tenantID string, p model.Product) (*model.Product, error) {
	p.ID = uuid.NewString()
	p.TenantID = tenantID
	p.CreatedAt = s.now()
	if p.Attributes == nil {
		p.Attributes = model.Attributes{}
	}

	err := s.write(ctx, "product", "create", events.TypeCreated, tenantID, p.ID, p, validation.Product(&p),
		func(ctx context.Context) error { return s.repo.CreateProduct(ctx, &p) })
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProduct возвращает товар тенанта по идентификатору.
func (s *Service) GetProduct(ctx context.Context, tenantID, id string) (*model.Product, error) {
	return traced(ctx, s, "service.product.get", tenantID, func(ctx context.Context) (*model.Product, error) {
		return s.repo.GetProduct(ctx, tenantID, id)
	})
}

// GetProductBySKU возвращает товар по уникальному в пределах тенанта SKU.
func (s *Service) GetProductBySKU(ctx context.Context, tenantID, sku string) (*model.Product, error) {
	return traced(ctx, s, "service.product.get_by_sku", tenantID, func(ctx context.Context) (*model.Product, error) {
		return s.repo.GetProductBySKU(ctx, tenantID, sku)
	})
}

// ListProducts возвращает страницу товаров тенанта.
func (s *Service) ListProducts(ctx context.Context, tenantID string, page model.Page) ([]model.Product, error) {
	return traced(ctx, s, "service.product.list", tenantID, func(ctx context.Context) ([]model.Product, error) {
		return s.repo.ListProducts(ctx, tenantID, page)
	})
}
