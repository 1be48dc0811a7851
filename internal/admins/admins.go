// Package admins declares the concrete admin descriptors Steward ships
// with: the product catalog and the operator accounts. Everything generic
// lives in internal/admin; this package is pure configuration.
package admins

import (
	"gorm.io/gorm"

	"github.com/stewardhq/steward/internal/admin"
)

// BuildRegistry constructs every shipped descriptor, overlays the optional
// manifest and freezes the registry. manifestPath may be empty.
func BuildRegistry(db *gorm.DB, manifestPath string) (*admin.Registry, error) {
	productAdmin, err := NewProductAdmin(db)
	if err != nil {
		return nil, err
	}
	operatorAdmin, err := NewOperatorAdmin(db)
	if err != nil {
		return nil, err
	}
	descriptors := []*admin.Descriptor{productAdmin, operatorAdmin}

	if manifestPath != "" {
		manifest, err := admin.LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		if err := manifest.Apply(descriptors); err != nil {
			return nil, err
		}
	}
	return admin.NewRegistry(descriptors...)
}
