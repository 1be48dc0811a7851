package service

import (
	"context"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/repository"
)

// CapabilityAuthorizer decides capability checks for the admin surface.
// Role grants answer admin-level checks; when a caller passes an object id
// the object's ACL rows are consulted as well, so a grant on either side
// suffices. Callers pass an object id only for admins with ACL enabled.
type CapabilityAuthorizer struct {
	resolver *CachedCapabilityResolver
	caps     *CapabilityService
	aclRepo  repository.ACLGrantRepository
}

func NewCapabilityAuthorizer(resolver *CachedCapabilityResolver, caps *CapabilityService, aclRepo repository.ACLGrantRepository) *CapabilityAuthorizer {
	return &CapabilityAuthorizer{resolver: resolver, caps: caps, aclRepo: aclRepo}
}

func (a *CapabilityAuthorizer) Granted(ctx context.Context, actor admin.Actor, adminCode string, c admin.Capability, objectID string) (granted bool, err error) {
	defer func() {
		decision := "denied"
		if err != nil {
			decision = "error"
		} else if granted {
			decision = "granted"
		}
		observability.RecordCapabilityCheck(ctx, adminCode, c.String(), decision)
	}()

	if actor.OperatorID == 0 {
		return false, nil
	}
	grants, err := a.resolver.ResolveGrants(ctx, actor.OperatorID, actor.SessionID)
	if err != nil {
		return false, err
	}
	if a.caps.Granted(grants, adminCode, c) {
		return true, nil
	}
	if objectID == "" || a.aclRepo == nil {
		return false, nil
	}

	rows, err := a.aclRepo.ListForSubjects(ctx, adminCode, objectID, actor.OperatorID, grants.RoleIDs)
	if err != nil {
		return false, err
	}
	var mask admin.Capabilities
	for _, row := range rows {
		mask = mask.Union(admin.Capabilities(row.Capabilities))
	}
	return mask.Has(c), nil
}
