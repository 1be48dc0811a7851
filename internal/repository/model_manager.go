package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/observability"
)

// ErrStaleVersion marks an optimistic-lock miss on update.
var ErrStaleVersion = errors.New("stale lock version")

// Versioned is the optimistic-lock contract. Entities exposing a version
// counter get stale-write detection on update; everything else is saved
// last-write-wins.
type Versioned interface {
	Version() int64
	SetVersion(v int64)
}

// GormModelManager implements admin.ModelManager for one entity type. The
// prototype constructor yields a fresh *T; idOf extracts the opaque string
// identifier the admin layer works with.
type GormModelManager struct {
	db        *gorm.DB
	entity    string
	prototype func() any
	idOf      func(obj any) string
	idColumn  string
}

func NewGormModelManager(db *gorm.DB, entity string, prototype func() any, idOf func(obj any) string) *GormModelManager {
	return &GormModelManager{
		db:        db,
		entity:    entity,
		prototype: prototype,
		idOf:      idOf,
		idColumn:  "id",
	}
}

func (m *GormModelManager) NewInstance() any { return m.prototype() }

func (m *GormModelManager) Find(ctx context.Context, id string) (any, error) {
	obj := m.prototype()
	err := m.db.WithContext(ctx).Where(m.idColumn+" = ?", id).First(obj).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, m.entity, "find", "not_found")
			return nil, fmt.Errorf("%s %s: %w", m.entity, id, admin.ErrObjectNotFound)
		}
		observability.RecordRepositoryOperation(ctx, m.entity, "find", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, m.entity, "find", "success")
	return obj, nil
}

func (m *GormModelManager) Create(ctx context.Context, obj any) error {
	if err := m.db.WithContext(ctx).Create(obj).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, m.entity, "create", "error")
		return &admin.PersistenceError{Op: "create " + m.entity, Err: err}
	}
	observability.RecordRepositoryOperation(ctx, m.entity, "create", "success")
	return nil
}

// Update saves the full entity. For Versioned entities the write is guarded
// by the stored lock version: a concurrent edit since the form was loaded
// surfaces as a LockError, never as a silent overwrite.
func (m *GormModelManager) Update(ctx context.Context, obj any) error {
	versioned, ok := obj.(Versioned)
	if !ok {
		if err := m.db.WithContext(ctx).Save(obj).Error; err != nil {
			observability.RecordRepositoryOperation(ctx, m.entity, "update", "error")
			return &admin.PersistenceError{Op: "update " + m.entity, Err: err}
		}
		observability.RecordRepositoryOperation(ctx, m.entity, "update", "success")
		return nil
	}

	loaded := versioned.Version()
	versioned.SetVersion(loaded + 1)
	res := m.db.WithContext(ctx).
		Model(obj).
		Where("lock_version = ?", loaded).
		Select("*").
		Omit("id", "created_at").
		Updates(obj)
	if res.Error != nil {
		versioned.SetVersion(loaded)
		observability.RecordRepositoryOperation(ctx, m.entity, "update", "error")
		return &admin.PersistenceError{Op: "update " + m.entity, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		versioned.SetVersion(loaded)
		id := m.idOf(obj)
		var count int64
		if err := m.db.WithContext(ctx).Model(m.prototype()).Where(m.idColumn+" = ?", id).Count(&count).Error; err != nil {
			observability.RecordRepositoryOperation(ctx, m.entity, "update", "error")
			return &admin.PersistenceError{Op: "update " + m.entity, Err: err}
		}
		if count == 0 {
			observability.RecordRepositoryOperation(ctx, m.entity, "update", "not_found")
			return fmt.Errorf("%s %s: %w", m.entity, id, admin.ErrObjectNotFound)
		}
		observability.RecordRepositoryOperation(ctx, m.entity, "update", "conflict")
		return &admin.LockError{ObjectID: id, Err: ErrStaleVersion}
	}
	observability.RecordRepositoryOperation(ctx, m.entity, "update", "success")
	return nil
}

func (m *GormModelManager) Delete(ctx context.Context, obj any) error {
	res := m.db.WithContext(ctx).Delete(obj)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, m.entity, "delete", "error")
		return &admin.PersistenceError{Op: "delete " + m.entity, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, m.entity, "delete", "not_found")
		return fmt.Errorf("%s %s: %w", m.entity, m.idOf(obj), admin.ErrObjectNotFound)
	}
	observability.RecordRepositoryOperation(ctx, m.entity, "delete", "success")
	return nil
}

// DeleteMatching removes every row the query selects. A nil query is a
// defect in the caller: batch handlers decide explicitly between an
// id-restricted, an unfiltered and a nil query.
func (m *GormModelManager) DeleteMatching(ctx context.Context, q *admin.Query) (int64, error) {
	if q == nil {
		return 0, &admin.PersistenceError{Op: "delete_matching " + m.entity, Err: errors.New("nil query")}
	}
	dbq := m.applyConditions(m.db.WithContext(ctx), q)
	if len(q.IDs) == 0 && len(q.Conditions) == 0 {
		dbq = dbq.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := dbq.Delete(m.prototype())
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, m.entity, "delete_matching", "error")
		return 0, &admin.PersistenceError{Op: "delete_matching " + m.entity, Err: res.Error}
	}
	observability.RecordRepositoryOperation(ctx, m.entity, "delete_matching", "success")
	return res.RowsAffected, nil
}

func (m *GormModelManager) List(ctx context.Context, q *admin.Query) ([]any, int64, error) {
	base := m.applyConditions(m.db.WithContext(ctx).Model(m.prototype()), q)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, m.entity, "list", "error")
		return nil, 0, err
	}

	base = base.Order(m.orderClause(q))
	if q.Paginated() {
		offset := (q.Page - 1) * q.PageSize
		if offset < 0 {
			offset = 0
		}
		base = base.Offset(offset).Limit(q.PageSize)
	}

	slicePtr := m.newSlice()
	if err := base.Find(slicePtr.Interface()).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, m.entity, "list", "error")
		return nil, 0, err
	}
	observability.RecordRepositoryOperation(ctx, m.entity, "list", "success")
	return m.flatten(slicePtr), total, nil
}

// Stream walks every row the query selects in id order, batchSize rows per
// round trip, driving fn lazily so exports never hold a full result set.
func (m *GormModelManager) Stream(ctx context.Context, q *admin.Query, batchSize int, fn func(obj any) error) error {
	if batchSize <= 0 {
		batchSize = 200
	}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		dbq := m.applyConditions(m.db.WithContext(ctx).Model(m.prototype()), q).
			Order(m.idColumn + " asc").
			Offset(offset).
			Limit(batchSize)
		slicePtr := m.newSlice()
		if err := dbq.Find(slicePtr.Interface()).Error; err != nil {
			observability.RecordRepositoryOperation(ctx, m.entity, "stream", "error")
			return err
		}
		items := m.flatten(slicePtr)
		for _, item := range items {
			if err := fn(item); err != nil {
				return err
			}
		}
		if len(items) < batchSize {
			observability.RecordRepositoryOperation(ctx, m.entity, "stream", "success")
			return nil
		}
		offset += batchSize
	}
}

func (m *GormModelManager) applyConditions(dbq *gorm.DB, q *admin.Query) *gorm.DB {
	if q == nil {
		return dbq
	}
	if len(q.IDs) > 0 {
		dbq = dbq.Where(m.idColumn+" IN ?", q.IDs)
	}
	for _, c := range q.Conditions {
		switch c.Op {
		case admin.OpContains:
			dbq = dbq.Where(c.Column+" LIKE ?", "%"+fmt.Sprint(c.Value)+"%")
		case admin.OpGte:
			dbq = dbq.Where(c.Column+" >= ?", c.Value)
		case admin.OpLte:
			dbq = dbq.Where(c.Column+" <= ?", c.Value)
		default:
			dbq = dbq.Where(c.Column+" = ?", c.Value)
		}
	}
	return dbq
}

func (m *GormModelManager) orderClause(q *admin.Query) string {
	if q == nil || q.SortColumn == "" {
		return m.idColumn + " desc"
	}
	dir := " asc"
	if q.SortDesc {
		dir = " desc"
	}
	return q.SortColumn + dir
}

// newSlice builds a *[]T for gorm to scan into; flatten turns it back into
// []any of *T. This is the one reflective seam that lets a single manager
// serve every registered entity type.
func (m *GormModelManager) newSlice() reflect.Value {
	elem := reflect.TypeOf(m.prototype()).Elem()
	return reflect.New(reflect.SliceOf(elem))
}

func (m *GormModelManager) flatten(slicePtr reflect.Value) []any {
	s := slicePtr.Elem()
	out := make([]any, s.Len())
	for i := 0; i < s.Len(); i++ {
		out[i] = s.Index(i).Addr().Interface()
	}
	return out
}
