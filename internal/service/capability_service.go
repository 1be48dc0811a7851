package service

import (
	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/domain"
)

// OperatorGrants is the resolved authorization snapshot for one operator:
// the union of role grants keyed by admin code, plus the role ids needed
// for object-level ACL lookups.
type OperatorGrants struct {
	Grants  map[string]int64 `json:"grants"`
	RoleIDs []uint           `json:"role_ids"`
}

// CapabilityService folds role grant rows into per-admin capability masks.
type CapabilityService struct{}

func NewCapabilityService() *CapabilityService { return &CapabilityService{} }

func (s *CapabilityService) GrantsFromRoles(roles []domain.Role) *OperatorGrants {
	out := &OperatorGrants{Grants: map[string]int64{}}
	for _, role := range roles {
		out.RoleIDs = append(out.RoleIDs, role.ID)
		for _, g := range role.Grants {
			out.Grants[g.AdminCode] |= g.Capabilities
		}
	}
	return out
}

// Granted reports whether the snapshot carries the capability for the admin
// code, honoring the "*" wildcard grant and MASTER implication.
func (s *CapabilityService) Granted(grants *OperatorGrants, adminCode string, c admin.Capability) bool {
	if grants == nil {
		return false
	}
	mask := admin.Capabilities(grants.Grants[domain.GrantAllAdmins] | grants.Grants[adminCode])
	return mask.Has(c)
}
