package service

import (
	"context"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/repository"
)

// SubjectGrant is one row of the ACL form: a subject and the capability set
// it holds on the object.
type SubjectGrant struct {
	SubjectID    uint
	Capabilities admin.Capabilities
}

// ACLService maintains per-object grant rows. Each apply replaces one
// sub-form's rows wholesale; grants with an empty capability set are simply
// not recreated. Object grants are read fresh on every authorization check,
// so no cache invalidation is involved here.
type ACLService struct {
	repo repository.ACLGrantRepository
}

func NewACLService(repo repository.ACLGrantRepository) *ACLService {
	return &ACLService{repo: repo}
}

func (s *ACLService) Grants(ctx context.Context, d *admin.Descriptor, objectID string) (operators, roles []domain.ACLGrant, err error) {
	rows, err := s.repo.ListByObject(ctx, d.Code(), objectID)
	if err != nil {
		return nil, nil, err
	}
	for _, row := range rows {
		switch row.SubjectType {
		case domain.ACLSubjectOperator:
			operators = append(operators, row)
		case domain.ACLSubjectRole:
			roles = append(roles, row)
		}
	}
	return operators, roles, nil
}

func (s *ACLService) ApplyOperatorGrants(ctx context.Context, d *admin.Descriptor, objectID string, grants []SubjectGrant) error {
	return s.apply(ctx, d, objectID, domain.ACLSubjectOperator, grants)
}

func (s *ACLService) ApplyRoleGrants(ctx context.Context, d *admin.Descriptor, objectID string, grants []SubjectGrant) error {
	return s.apply(ctx, d, objectID, domain.ACLSubjectRole, grants)
}

func (s *ACLService) apply(ctx context.Context, d *admin.Descriptor, objectID, subjectType string, grants []SubjectGrant) error {
	if err := s.repo.DeleteByObjectSubjects(ctx, d.Code(), objectID, subjectType); err != nil {
		return err
	}
	for _, g := range grants {
		if g.Capabilities.IsZero() {
			continue
		}
		row := &domain.ACLGrant{
			AdminCode:    d.Code(),
			ObjectID:     objectID,
			SubjectType:  subjectType,
			SubjectID:    g.SubjectID,
			Capabilities: int64(g.Capabilities),
		}
		if err := s.repo.Upsert(ctx, row); err != nil {
			return err
		}
	}
	observability.RecordACLUpdate(ctx, d.Code(), subjectType)
	return nil
}
