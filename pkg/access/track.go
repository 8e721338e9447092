package access

import (
	"github.com/agubarev/perimeter/pkg/util/timestamp"
)

// Track carries the audit and soft-delete fields shared by every
// stored entity; embedding it satisfies the storage capability
// interfaces (storage.Trackable, storage.SoftDeletable)
type Track struct {
	CreatedAt  timestamp.Timestamp `db:"created_at" json:"created_at"`
	CreatedBy  string              `db:"created_by" json:"created_by"`
	ModifiedAt timestamp.Timestamp `db:"modified_at" json:"modified_at"`
	ModifiedBy string              `db:"modified_by" json:"modified_by"`
	IsDeleted  bool                `db:"is_deleted" json:"is_deleted"`
	DeletedAt  timestamp.Timestamp `db:"deleted_at" json:"deleted_at"`
	DeletedBy  string              `db:"deleted_by" json:"deleted_by"`
}

func (t *Track) StampCreated(actor string, ts timestamp.Timestamp) {
	t.CreatedAt = ts
	t.CreatedBy = actor
}

func (t *Track) StampModified(actor string, ts timestamp.Timestamp) {
	t.ModifiedAt = ts
	t.ModifiedBy = actor
}

func (t *Track) Deleted() bool {
	return t.IsDeleted
}

func (t *Track) MarkDeleted(actor string, ts timestamp.Timestamp) {
	t.IsDeleted = true
	t.DeletedAt = ts
	t.DeletedBy = actor
}
