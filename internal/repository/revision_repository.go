package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/observability"
)

var ErrRevisionNotFound = errors.New("revision not found")

type RevisionRepository interface {
	Append(ctx context.Context, rev *domain.Revision) error
	ListByObject(ctx context.Context, adminCode, objectID string) ([]domain.Revision, error)
	FindBySeq(ctx context.Context, adminCode, objectID string, seq int64) (*domain.Revision, error)
	PruneOlderThan(ctx context.Context, adminCode string, cutoff time.Time) (int64, error)
	CountByAdmin(ctx context.Context, adminCode string) (int64, error)
}

type GormRevisionRepository struct{ db *gorm.DB }

func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &GormRevisionRepository{db: db}
}

// Append assigns the next per-object sequence number and stores the
// revision. The max+1 read runs inside the insert transaction so concurrent
// writers cannot claim the same seq; the unique index backs that up.
func (r *GormRevisionRepository) Append(ctx context.Context, rev *domain.Revision) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		row := tx.Model(&domain.Revision{}).
			Where("admin_code = ? AND object_id = ?", rev.AdminCode, rev.ObjectID).
			Select("COALESCE(MAX(seq), 0)")
		if err := row.Scan(&maxSeq).Error; err != nil {
			return err
		}
		rev.Seq = maxSeq + 1
		return tx.Create(rev).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "revision", "append", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "revision", "append", "success")
	return nil
}

func (r *GormRevisionRepository) ListByObject(ctx context.Context, adminCode, objectID string) ([]domain.Revision, error) {
	var revs []domain.Revision
	err := r.db.WithContext(ctx).
		Where("admin_code = ? AND object_id = ?", adminCode, objectID).
		Order("seq desc").
		Find(&revs).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "revision", "list_by_object", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "revision", "list_by_object", "success")
	return revs, nil
}

func (r *GormRevisionRepository) FindBySeq(ctx context.Context, adminCode, objectID string, seq int64) (*domain.Revision, error) {
	var rev domain.Revision
	err := r.db.WithContext(ctx).
		Where("admin_code = ? AND object_id = ? AND seq = ?", adminCode, objectID, seq).
		First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "revision", "find_by_seq", "not_found")
			return nil, ErrRevisionNotFound
		}
		observability.RecordRepositoryOperation(ctx, "revision", "find_by_seq", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "revision", "find_by_seq", "success")
	return &rev, nil
}

func (r *GormRevisionRepository) PruneOlderThan(ctx context.Context, adminCode string, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("admin_code = ? AND created_at < ?", adminCode, cutoff).
		Delete(&domain.Revision{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "revision", "prune", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "revision", "prune", "success")
	return res.RowsAffected, nil
}

func (r *GormRevisionRepository) CountByAdmin(ctx context.Context, adminCode string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Revision{}).
		Where("admin_code = ?", adminCode).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
