package models

import "time"

type Listing struct {
	// Identity
	ID      string `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID string `gorm:"type:varchar(36);not null;index" json:"owner_id"`

	// Content fields (copied onto the canonical record on merge)
	Title           string     `gorm:"type:text" json:"title"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	Price           *float64   `gorm:"type:decimal(12,2)" json:"price,omitempty"`
	Address         string     `gorm:"type:text" json:"address,omitempty"`
	PropertyType    string     `gorm:"type:varchar(50)" json:"property_type,omitempty"`
	SquareFootage   *int       `gorm:"type:int" json:"square_footage,omitempty"`
	Bedrooms        *int       `gorm:"type:int" json:"bedrooms,omitempty"`
	Bathrooms       *float64   `gorm:"type:decimal(4,1)" json:"bathrooms,omitempty"`
	ImageURLs       []string   `gorm:"serializer:json" json:"image_urls,omitempty"`
	SourceURL       string     `gorm:"type:varchar(500)" json:"source_url,omitempty"`
	EmailSubject    string     `gorm:"type:text" json:"email_subject,omitempty"`
	EmailReceivedAt *time.Time `gorm:"type:datetime" json:"email_received_at,omitempty"`

	// Lifecycle state. Archived and Deleted are orthogonal to Status:
	// a sold listing can be archived, an active one soft-deleted.
	Status      ListingStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Archived    bool          `gorm:"not null;default:false;index" json:"archived"`
	Deleted     bool          `gorm:"not null;default:false;index" json:"deleted"`
	DeletedAt   *time.Time    `gorm:"type:datetime" json:"deleted_at,omitempty"`
	DuplicateOf *string       `gorm:"type:varchar(36);index" json:"duplicate_of,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime;index:idx_listings_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// ListingStatus は物件の業務ステータス
type ListingStatus string

const (
	ListingStatusActive  ListingStatus = "active"
	ListingStatusPending ListingStatus = "pending"
	ListingStatusSold    ListingStatus = "sold"
)

// TableName はテーブル名を明示的に指定
func (Listing) TableName() string {
	return "listings"
}

// InMatchingPool reports whether the listing participates in duplicate matching.
// Archived and soft-deleted listings are excluded regardless of status.
func (l *Listing) InMatchingPool() bool {
	return !l.Archived && !l.Deleted
}

// MarkDeleted soft-deletes the listing.
func (l *Listing) MarkDeleted() {
	l.Deleted = true
	now := time.Now()
	l.DeletedAt = &now
}

// MarkRestored clears the soft-delete flag.
func (l *Listing) MarkRestored() {
	l.Deleted = false
	l.DeletedAt = nil
}

// CopyContentFrom copies the mutable content fields from src. Identity,
// lifecycle state and timestamps are left untouched so the canonical id
// survives a merge.
func (l *Listing) CopyContentFrom(src *Listing) {
	l.Title = src.Title
	l.Description = src.Description
	l.Price = src.Price
	l.Address = src.Address
	l.PropertyType = src.PropertyType
	l.SquareFootage = src.SquareFootage
	l.Bedrooms = src.Bedrooms
	l.Bathrooms = src.Bathrooms
	l.ImageURLs = src.ImageURLs
	l.SourceURL = src.SourceURL
	l.EmailSubject = src.EmailSubject
	l.EmailReceivedAt = src.EmailReceivedAt
}
