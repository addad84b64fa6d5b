package models

import "time"

// PurgeLog represents a record of permanently deleted listings
type PurgeLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID string    `gorm:"type:varchar(36);not null;index" json:"listing_id"`
	OwnerID   string    `gorm:"type:varchar(36)" json:"owner_id"`
	Title     string    `gorm:"type:text" json:"title"`
	Address   string    `gorm:"type:text" json:"address"`
	PurgedAt  time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"purged_at"`
	Reason    string    `gorm:"type:varchar(50);not null" json:"reason"`
}

// TableName specifies the table name
func (PurgeLog) TableName() string {
	return "purge_logs"
}

// Purge reason constants
const (
	PurgeReasonDuplicateApproved = "duplicate_approved"
	PurgeReasonDuplicateRejected = "duplicate_rejected"
	PurgeReasonRetentionExpired  = "retention_expired"
	PurgeReasonManual            = "manual"
)
