package service

import (
	"context"
	"errors"
	"time"

	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/repository"
)

// CatalogService is the public read surface over the product catalog.
// Writes happen in the admin console through the model manager.
type CatalogService interface {
	ListPublished(ctx context.Context, req repository.PageRequest) (repository.PageResult[domain.Product], error)
	GetPublishedByID(ctx context.Context, id uint) (*domain.Product, error)
	GetPublishedBySKU(ctx context.Context, sku string) (*domain.Product, error)
}

type CatalogServiceImpl struct {
	repo repository.ProductRepository
}

func NewCatalogService(repo repository.ProductRepository) *CatalogServiceImpl {
	return &CatalogServiceImpl{repo: repo}
}

func (s *CatalogServiceImpl) ListPublished(ctx context.Context, req repository.PageRequest) (repository.PageResult[domain.Product], error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "list", outcome, time.Since(start)) }()

	res, err := s.repo.ListPublishedPaged(req)
	if err != nil {
		outcome = "error"
		return repository.PageResult[domain.Product]{}, err
	}
	return res, nil
}

func (s *CatalogServiceImpl) GetPublishedByID(ctx context.Context, id uint) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "get", outcome, time.Since(start)) }()

	product, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}
	if product.Status != domain.ProductStatusPublished {
		outcome = "not_found"
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (s *CatalogServiceImpl) GetPublishedBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordCatalogOperation(ctx, "get_by_sku", outcome, time.Since(start)) }()

	product, err := s.repo.FindBySKU(sku)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			outcome = "not_found"
		} else {
			outcome = "error"
		}
		return nil, err
	}
	if product.Status != domain.ProductStatusPublished {
		outcome = "not_found"
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}
