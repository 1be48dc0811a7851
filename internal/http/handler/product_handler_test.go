package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/repository"
)

type stubCatalogService struct {
	listFn     func(ctx context.Context, req repository.PageRequest) (repository.PageResult[domain.Product], error)
	getByIDFn  func(ctx context.Context, id uint) (*domain.Product, error)
	getBySKUFn func(ctx context.Context, sku string) (*domain.Product, error)
}

func (s *stubCatalogService) ListPublished(ctx context.Context, req repository.PageRequest) (repository.PageResult[domain.Product], error) {
	return s.listFn(ctx, req)
}

func (s *stubCatalogService) GetPublishedByID(ctx context.Context, id uint) (*domain.Product, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubCatalogService) GetPublishedBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return s.getBySKUFn(ctx, sku)
}

func TestCatalogListUsesPaginationDefaults(t *testing.T) {
	svc := &stubCatalogService{listFn: func(ctx context.Context, req repository.PageRequest) (repository.PageResult[domain.Product], error) {
		if req.Page != repository.DefaultPage || req.PageSize != repository.DefaultPageSize {
			t.Fatalf("expected default pagination, got %+v", req)
		}
		return repository.PageResult[domain.Product]{
			Items:      []domain.Product{{ID: 1, SKU: "SKU-1", Name: "Widget", Price: 9.5, Status: domain.ProductStatusPublished}},
			Page:       req.Page,
			PageSize:   req.PageSize,
			Total:      1,
			TotalPages: 1,
		}, nil
	}}
	h := NewProductHandler(svc)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Items      []domain.Product `json:"items"`
		Pagination struct {
			Page  int   `json:"page"`
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].SKU != "SKU-1" {
		t.Fatalf("unexpected items: %+v", body.Items)
	}
	if body.Pagination.Total != 1 {
		t.Fatalf("expected total 1, got %d", body.Pagination.Total)
	}
}

func TestCatalogListRejectsInvalidPageSize(t *testing.T) {
	h := NewProductHandler(&stubCatalogService{})

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?page_size=9999", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCatalogGetByIDHidesUnpublished(t *testing.T) {
	svc := &stubCatalogService{getByIDFn: func(ctx context.Context, id uint) (*domain.Product, error) {
		return nil, repository.ErrProductNotFound
	}}
	h := NewProductHandler(svc)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/3", nil), "id", "3")
	rr := httptest.NewRecorder()

	h.GetByID(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCatalogGetBySKUReturnsProduct(t *testing.T) {
	svc := &stubCatalogService{getBySKUFn: func(ctx context.Context, sku string) (*domain.Product, error) {
		if sku != "SKU-7" {
			t.Fatalf("expected SKU-7, got %q", sku)
		}
		return &domain.Product{ID: 7, SKU: "SKU-7", Name: "Gadget", Status: domain.ProductStatusPublished}, nil
	}}
	h := NewProductHandler(svc)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/sku/SKU-7", nil), "sku", "SKU-7")
	rr := httptest.NewRecorder()

	h.GetBySKU(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Gadget") {
		t.Fatalf("expected product payload, got %s", rr.Body.String())
	}
}
