package admins

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/repository"
)

// ProductFormBinder binds the product create/edit form.
type ProductFormBinder struct{}

func (ProductFormBinder) Fields() []admin.FormField {
	return []admin.FormField{
		{Name: "sku", Label: "SKU", Type: "text", Required: true},
		{Name: "name", Label: "Name", Type: "text", Required: true},
		{Name: "description", Label: "Description", Type: "textarea"},
		{Name: "price", Label: "Price", Type: "number", Required: true},
		{Name: "stock", Label: "Stock", Type: "number"},
		{Name: "status", Label: "Status", Type: "select", Options: []string{
			domain.ProductStatusDraft, domain.ProductStatusPublished, domain.ProductStatusArchived,
		}},
	}
}

func (b ProductFormBinder) Bind(r *http.Request, uniqid string, obj any) *admin.FormState {
	state := admin.NewFormState()
	product, ok := obj.(*domain.Product)
	if !ok {
		state.AddError("", "unexpected entity type")
		return state
	}
	if r.Method != http.MethodPost {
		return state
	}
	_ = r.ParseForm()
	state.Submitted = true

	for _, f := range b.Fields() {
		state.SetValue(f.Name, admin.FormValue(r, uniqid, f.Name))
	}

	sku := strings.TrimSpace(state.Values["sku"])
	if sku == "" {
		state.AddError("sku", "SKU is required")
	}
	name := strings.TrimSpace(state.Values["name"])
	if name == "" {
		state.AddError("name", "name is required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(state.Values["price"]), 64)
	if err != nil || price < 0 {
		state.AddError("price", "price must be a non-negative number")
	}
	stock := 0
	if raw := strings.TrimSpace(state.Values["stock"]); raw != "" {
		stock, err = strconv.Atoi(raw)
		if err != nil || stock < 0 {
			state.AddError("stock", "stock must be a non-negative integer")
		}
	}
	status := state.Values["status"]
	if status == "" {
		status = domain.ProductStatusDraft
	}
	switch status {
	case domain.ProductStatusDraft, domain.ProductStatusPublished, domain.ProductStatusArchived:
	default:
		state.AddError("status", "unknown status")
	}

	if !state.Valid() {
		return state
	}
	product.SKU = sku
	product.Name = name
	product.Description = strings.TrimSpace(state.Values["description"])
	product.Price = price
	product.Stock = stock
	product.Status = status
	return state
}

// Values prefills the edit form from the stored entity.
func (ProductFormBinder) Values(obj any) map[string]string {
	product, ok := obj.(*domain.Product)
	if !ok {
		return nil
	}
	return map[string]string{
		"sku":         product.SKU,
		"name":        product.Name,
		"description": product.Description,
		"price":       strconv.FormatFloat(product.Price, 'f', 2, 64),
		"stock":       strconv.Itoa(product.Stock),
		"status":      product.Status,
	}
}

// NewProductAdmin wires the catalog descriptor: previewable form, CSV/JSON/XML
// export, batch delete and publish.
func NewProductAdmin(db *gorm.DB) (*admin.Descriptor, error) {
	manager := repository.NewGormModelManager(db, "product",
		func() any { return &domain.Product{} },
		func(obj any) string {
			return strconv.FormatUint(uint64(obj.(*domain.Product).ID), 10)
		},
	)

	return admin.NewDescriptor(admin.DescriptorConfig{
		Code:       "product",
		Label:      "Products",
		EntityName: "product",
		Manager:    manager,
		FormBinder: ProductFormBinder{},
		ObjectID: func(obj any) string {
			return strconv.FormatUint(uint64(obj.(*domain.Product).ID), 10)
		},
		ObjectName: func(obj any) string { return obj.(*domain.Product).Name },
		ListFields: []admin.Field{
			{Name: "sku", Label: "SKU", Value: func(obj any) string { return obj.(*domain.Product).SKU }},
			{Name: "name", Label: "Name", Value: func(obj any) string { return obj.(*domain.Product).Name }},
			{Name: "price", Label: "Price", Value: func(obj any) string {
				return strconv.FormatFloat(obj.(*domain.Product).Price, 'f', 2, 64)
			}},
			{Name: "stock", Label: "Stock", Value: func(obj any) string {
				return strconv.Itoa(obj.(*domain.Product).Stock)
			}},
			{Name: "status", Label: "Status", Value: func(obj any) string { return obj.(*domain.Product).Status }},
		},
		ShowFields: []admin.Field{
			{Name: "sku", Label: "SKU", Value: func(obj any) string { return obj.(*domain.Product).SKU }},
			{Name: "name", Label: "Name", Value: func(obj any) string { return obj.(*domain.Product).Name }},
			{Name: "description", Label: "Description", Value: func(obj any) string {
				return obj.(*domain.Product).Description
			}},
			{Name: "price", Label: "Price", Value: func(obj any) string {
				return strconv.FormatFloat(obj.(*domain.Product).Price, 'f', 2, 64)
			}},
			{Name: "stock", Label: "Stock", Value: func(obj any) string {
				return strconv.Itoa(obj.(*domain.Product).Stock)
			}},
			{Name: "status", Label: "Status", Value: func(obj any) string { return obj.(*domain.Product).Status }},
		},
		Filters: []admin.Filter{
			{Name: "name", Label: "Name", Column: "name", Op: admin.OpContains},
			{Name: "sku", Label: "SKU", Column: "sku", Op: admin.OpEq},
			{Name: "status", Label: "Status", Column: "status", Op: admin.OpEq},
		},
		SortableColumns: map[string]string{
			"name":       "name",
			"sku":        "sku",
			"price":      "price",
			"stock":      "stock",
			"status":     "status",
			"created_at": "created_at",
		},
		DefaultSort:      "created_at",
		DefaultSortDesc:  true,
		ExportFormats:    []string{"csv", "json", "xml"},
		SupportsPreview:  true,
		RevisionsEnabled: true,
		BatchActions: []admin.BatchAction{
			batchDeleteAction(manager),
			productPublishAction(manager),
		},
	})
}

// batchDeleteAction is the built-in mass delete: one DeleteMatching through
// the manager, responsibility for the flash stays with the dispatcher. The
// doomed rows are collected first so each one gets a revision and change
// event once the delete has succeeded.
func batchDeleteAction(manager admin.ModelManager) admin.BatchAction {
	return admin.BatchAction{
		Name:  "delete",
		Label: "Delete selected",
		Execute: func(ctx context.Context, req *admin.BatchRequest) (*admin.Response, error) {
			if req.Query == nil {
				return nil, nil
			}
			var doomed []any
			if err := manager.Stream(ctx, req.Query, 200, func(obj any) error {
				doomed = append(doomed, obj)
				return nil
			}); err != nil {
				return nil, err
			}
			if _, err := manager.DeleteMatching(ctx, req.Query); err != nil {
				return nil, err
			}
			for _, obj := range doomed {
				req.RecordRow(obj, "delete")
			}
			return nil, nil
		},
	}
}

// productPublishAction flips every selected product to published. Walks the
// selection through Stream so the all-elements query stays bounded in memory.
func productPublishAction(manager admin.ModelManager) admin.BatchAction {
	return admin.BatchAction{
		Name:             "publish",
		Label:            "Publish selected",
		SkipConfirmation: true,
		Execute: func(ctx context.Context, req *admin.BatchRequest) (*admin.Response, error) {
			if req.Query == nil {
				return nil, nil
			}
			err := manager.Stream(ctx, req.Query, 200, func(obj any) error {
				product, ok := obj.(*domain.Product)
				if !ok {
					return fmt.Errorf("unexpected entity %T", obj)
				}
				if product.Status == domain.ProductStatusPublished {
					return nil
				}
				product.Status = domain.ProductStatusPublished
				if err := manager.Update(ctx, product); err != nil {
					return err
				}
				req.RecordRow(product, "publish")
				return nil
			})
			if err != nil {
				return nil, err
			}
			return nil, nil
		},
	}
}
