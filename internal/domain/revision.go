package domain

import "time"

// Revision is an immutable snapshot of a managed entity taken after every
// write through a model manager. Seq is monotonic per (admin_code, object_id).
type Revision struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AdminCode  string    `gorm:"size:64;not null;uniqueIndex:idx_revisions_object_seq;index:idx_revisions_object" json:"admin_code"`
	ObjectID   string    `gorm:"size:64;not null;uniqueIndex:idx_revisions_object_seq;index:idx_revisions_object" json:"object_id"`
	Seq        int64     `gorm:"not null;uniqueIndex:idx_revisions_object_seq" json:"seq"`
	Action     string    `gorm:"size:16;not null" json:"action"`
	Snapshot   string    `gorm:"type:text;not null" json:"snapshot"`
	ActorID    uint      `gorm:"not null;default:0" json:"actor_id"`
	ActorEmail string    `gorm:"size:255" json:"actor_email"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

const (
	RevisionActionCreate = "create"
	RevisionActionUpdate = "update"
	RevisionActionDelete = "delete"
)
