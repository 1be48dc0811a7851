package domain

import "time"

// ACLGrant assigns a capability mask to a single operator or role for one
// object of one admin. Object grants supplement role grants; they never
// revoke them.
type ACLGrant struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AdminCode    string    `gorm:"size:64;not null;uniqueIndex:idx_acl_grants_subject" json:"admin_code"`
	ObjectID     string    `gorm:"size:64;not null;uniqueIndex:idx_acl_grants_subject" json:"object_id"`
	SubjectType  string    `gorm:"size:16;not null;uniqueIndex:idx_acl_grants_subject" json:"subject_type"`
	SubjectID    uint      `gorm:"not null;uniqueIndex:idx_acl_grants_subject" json:"subject_id"`
	Capabilities int64     `gorm:"not null;default:0" json:"capabilities"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	ACLSubjectOperator = "operator"
	ACLSubjectRole     = "role"
)
