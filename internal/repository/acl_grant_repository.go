package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/observability"
)

type ACLGrantRepository interface {
	ListByObject(ctx context.Context, adminCode, objectID string) ([]domain.ACLGrant, error)
	ListForSubjects(ctx context.Context, adminCode, objectID string, operatorID uint, roleIDs []uint) ([]domain.ACLGrant, error)
	Upsert(ctx context.Context, grant *domain.ACLGrant) error
	DeleteByObjectSubjects(ctx context.Context, adminCode, objectID, subjectType string) error
}

type GormACLGrantRepository struct{ db *gorm.DB }

func NewACLGrantRepository(db *gorm.DB) ACLGrantRepository {
	return &GormACLGrantRepository{db: db}
}

func (r *GormACLGrantRepository) ListByObject(ctx context.Context, adminCode, objectID string) ([]domain.ACLGrant, error) {
	var grants []domain.ACLGrant
	err := r.db.WithContext(ctx).
		Where("admin_code = ? AND object_id = ?", adminCode, objectID).
		Order("subject_type asc, subject_id asc").
		Find(&grants).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "acl_grant", "list_by_object", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "acl_grant", "list_by_object", "success")
	return grants, nil
}

// ListForSubjects fetches the grants that can satisfy an object-scoped check
// for one actor: their own operator grant plus any grant of their roles.
func (r *GormACLGrantRepository) ListForSubjects(ctx context.Context, adminCode, objectID string, operatorID uint, roleIDs []uint) ([]domain.ACLGrant, error) {
	q := r.db.WithContext(ctx).
		Where("admin_code = ? AND object_id = ?", adminCode, objectID)
	if len(roleIDs) > 0 {
		q = q.Where(
			r.db.Where("subject_type = ? AND subject_id = ?", domain.ACLSubjectOperator, operatorID).
				Or("subject_type = ? AND subject_id IN ?", domain.ACLSubjectRole, roleIDs),
		)
	} else {
		q = q.Where("subject_type = ? AND subject_id = ?", domain.ACLSubjectOperator, operatorID)
	}
	var grants []domain.ACLGrant
	if err := q.Find(&grants).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "acl_grant", "list_for_subjects", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "acl_grant", "list_for_subjects", "success")
	return grants, nil
}

func (r *GormACLGrantRepository) Upsert(ctx context.Context, grant *domain.ACLGrant) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "admin_code"}, {Name: "object_id"}, {Name: "subject_type"}, {Name: "subject_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"capabilities", "updated_at"}),
	}).Create(grant).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "acl_grant", "upsert", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "acl_grant", "upsert", "success")
	return nil
}

// DeleteByObjectSubjects clears one sub-form's grants before re-applying the
// submitted set.
func (r *GormACLGrantRepository) DeleteByObjectSubjects(ctx context.Context, adminCode, objectID, subjectType string) error {
	err := r.db.WithContext(ctx).
		Where("admin_code = ? AND object_id = ? AND subject_type = ?", adminCode, objectID, subjectType).
		Delete(&domain.ACLGrant{}).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "acl_grant", "delete_by_object", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "acl_grant", "delete_by_object", "success")
	return nil
}
