package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/observability"

	"gorm.io/gorm"
)

type seedRole struct {
	name         string
	description  string
	capabilities admin.Capabilities
}

var defaultRoles = []seedRole{
	{
		name:         "master",
		description:  "Full access to every admin, including grant management",
		capabilities: admin.NewCapabilities(admin.CapMaster),
	},
	{
		name:         "editor",
		description:  "Read and write access to every admin",
		capabilities: admin.NewCapabilities(admin.CapList, admin.CapCreate, admin.CapEdit, admin.CapDelete, admin.CapView, admin.CapExport),
	},
	{
		name:         "viewer",
		description:  "Read-only access to every admin",
		capabilities: admin.NewCapabilities(admin.CapList, admin.CapView),
	},
}

type SeedReport struct {
	CreatedRoles  int  `json:"created_roles"`
	CreatedGrants int  `json:"created_grants"`
	BoundMasters  int  `json:"bound_masters"`
	Noop          bool `json:"noop"`
}

func Seed(db *gorm.DB, bootstrapMasterEmail string) error {
	_, err := SeedSync(db, bootstrapMasterEmail)
	return err
}

// SeedSync makes the default role set exist without clobbering operator
// edits: roles and grants are created only when missing. When the bootstrap
// master email names an existing operator, that operator is bound to the
// master role so a fresh deployment is never locked out.
func SeedSync(db *gorm.DB, bootstrapMasterEmail string) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "seed", time.Since(start))
	}()

	report := &SeedReport{}

	var masterRole domain.Role
	for _, sr := range defaultRoles {
		role := domain.Role{Name: sr.name, Description: sr.description}
		res := db.Where("name = ?", sr.name).FirstOrCreate(&role)
		if res.Error != nil {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			report.CreatedRoles++
		}
		grant := domain.RoleGrant{
			RoleID:       role.ID,
			AdminCode:    domain.GrantAllAdmins,
			Capabilities: int64(sr.capabilities),
		}
		res = db.Where("role_id = ? AND admin_code = ?", role.ID, domain.GrantAllAdmins).FirstOrCreate(&grant)
		if res.Error != nil {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			report.CreatedGrants++
		}
		if sr.name == "master" {
			masterRole = role
		}
	}

	email := strings.TrimSpace(strings.ToLower(bootstrapMasterEmail))
	if email != "" {
		var op domain.Operator
		if err := db.Where("email = ?", email).First(&op).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
				return nil, err
			}
			// Not signed in yet; the auth service binds the role on first
			// login instead.
		} else {
			var count int64
			if err := db.Table("operator_roles").Where("operator_id = ? AND role_id = ?", op.ID, masterRole.ID).Count(&count).Error; err != nil {
				observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
				return nil, err
			}
			if count == 0 {
				if err := db.Model(&op).Association("Roles").Append(&masterRole); err != nil {
					observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
					return nil, fmt.Errorf("assign bootstrap master role: %w", err)
				}
				report.BoundMasters++
			}
		}
	}

	report.Noop = report.CreatedRoles == 0 && report.CreatedGrants == 0 && report.BoundMasters == 0
	observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
	return report, nil
}

// SeedDemoProducts inserts a small catalog for local development. Existing
// SKUs are left untouched.
func SeedDemoProducts(db *gorm.DB) (int, error) {
	demo := []domain.Product{
		{SKU: "SKU-1001", Name: "Widget", Description: "Standard widget", Price: 9.99, Stock: 250, Status: domain.ProductStatusPublished},
		{SKU: "SKU-1002", Name: "Gadget", Description: "Deluxe gadget", Price: 24.50, Stock: 80, Status: domain.ProductStatusPublished},
		{SKU: "SKU-1003", Name: "Gizmo", Description: "Prototype gizmo", Price: 149.00, Stock: 5, Status: domain.ProductStatusDraft},
	}
	created := 0
	for _, p := range demo {
		res := db.Where("sku = ?", p.SKU).FirstOrCreate(&p)
		if res.Error != nil {
			return created, res.Error
		}
		if res.RowsAffected > 0 {
			created++
		}
	}
	return created, nil
}
