package domain

import "time"

// MemeRecord is a durable (image, description) pair.
// (source_id, message_id) identifies the original image post and is unique:
// at most one record per post. Records are append-only; there is no update or
// delete path in normal operation.
type MemeRecord struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	SourceID      int64     `gorm:"not null;index:idx_meme_records_origin,unique" json:"source_id"`
	MessageID     int       `gorm:"not null;index:idx_meme_records_origin,unique" json:"message_id"`
	FileReference string    `gorm:"type:text;not null" json:"file_reference"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	StorageKey    string    `gorm:"type:text" json:"storage_key,omitempty"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for MemeRecord.
func (MemeRecord) TableName() string {
	return "meme_records"
}

// MemeSearchResult is a record paired with its ranking score.
type MemeSearchResult struct {
	MemeRecord
	Score float64 `json:"score"`
}
