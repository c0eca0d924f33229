package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrStatusConflict means the row was not in the expected state when the
	// conditional update ran; another request already moved it.
	ErrStatusConflict = errors.New("status changed concurrently or transition not allowed")
	ErrNotFound       = errors.New("record not found")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// session picks the caller's transaction when there is one.
func session(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = db
	}
	return tx.WithContext(ctx)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	page, pageSize = normalizePage(page, pageSize)
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// ============================================================================
// Conditional status updates
// ============================================================================
//
// Every lifecycle change in this package is a single UPDATE whose WHERE
// clause carries the expected current status:
//
//	UPDATE campaign SET status = 'declined', refund_issued = true
//	WHERE id = ? AND status IN ('pending','running') AND refund_issued = false
//
// The database decides the winner. Two reviewers declining the same campaign
// both run the statement; one sees RowsAffected=1 and goes on to refund, the
// other sees 0 and gets ErrStatusConflict. Callers run this inside the same
// transaction as the ledger write, so a refund exists only if the status
// change committed with it.
//
// refundGuard adds "refund_issued = false" for entities that carry the flag.

// conditionalUpdate applies updates to the row with id only while its status
// is one of from (and, with refundGuard, while no refund has been issued).
// It reports ErrStatusConflict when nothing matched.
func conditionalUpdate(ctx context.Context, tx *gorm.DB, m interface{}, id int64, from []string, refundGuard bool, updates map[string]interface{}) error {
	q := tx.WithContext(ctx).Model(m).Where("id = ? AND status IN ?", id, from)
	if refundGuard {
		q = q.Where("refund_issued = ?", false)
	}
	result := q.Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// StatusCount is one row of a GROUP BY status query.
type StatusCount struct {
	Status string
	Count  int64
}

func toCountMap(rows []StatusCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out
}

func first(q *gorm.DB, dest interface{}, notFound error) error {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
