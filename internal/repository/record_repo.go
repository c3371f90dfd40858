package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gavril-s/meme-search-bot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicate is returned by Insert when a record for the same
// (source_id, message_id) already exists. Re-delivery of a matched event is
// expected; callers treat this as a no-op, not a failure.
var ErrDuplicate = errors.New("meme record already exists")

// MemeRecordRepository handles meme record persistence.
// Records are append-only: there is no update or delete path.
type MemeRecordRepository struct {
	db *gorm.DB
}

// NewMemeRecordRepository creates a repository bound to db.
func NewMemeRecordRepository(db *gorm.DB) *MemeRecordRepository {
	return &MemeRecordRepository{db: db}
}

// Insert durably commits a new record. The store's unique index on
// (source_id, message_id) is the final arbiter under concurrent inserts: of
// two racing calls exactly one succeeds and the other gets ErrDuplicate.
func (r *MemeRecordRepository) Insert(ctx context.Context, rec *domain.MemeRecord) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}, {Name: "message_id"}},
		DoNothing: true,
	}).Create(rec)
	if result.Error != nil {
		return fmt.Errorf("failed to insert meme record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// GetByID retrieves a record by its surrogate key.
func (r *MemeRecordRepository) GetByID(ctx context.Context, id string) (*domain.MemeRecord, error) {
	var rec domain.MemeRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByOrigin retrieves a record by the identity of its original image post.
func (r *MemeRecordRepository) GetByOrigin(ctx context.Context, sourceID int64, messageID int) (*domain.MemeRecord, error) {
	var rec domain.MemeRecord
	if err := r.db.WithContext(ctx).
		First(&rec, "source_id = ? AND message_id = ?", sourceID, messageID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Count returns the total number of records.
func (r *MemeRecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.MemeRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ForEachBatch streams the full corpus in batches, in primary key order.
// Batches paginate on the primary key, so no other ordering is safe here:
// a created_at sort would make the key cursor skip rows. Callers must not
// depend on batch order.
func (r *MemeRecordRepository) ForEachBatch(ctx context.Context, batchSize int, fn func(records []domain.MemeRecord) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}

	var batch []domain.MemeRecord
	result := r.db.WithContext(ctx).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	if result.Error != nil {
		return fmt.Errorf("failed to scan meme records: %w", result.Error)
	}
	return nil
}
