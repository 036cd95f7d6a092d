package product

import (
	"context"

	"eshop-api/internal/domain"
	productrepo "eshop-api/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, categoryID string) ([]domain.Product, error) {
	if categoryID != "" {
		return s.repo.ListByCategory(ctx, categoryID)
	}
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	return s.repo.Upsert(ctx, p)
}
