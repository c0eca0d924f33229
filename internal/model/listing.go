package model

import (
	"time"
)

const (
	ListingStatusPending  = "pending"
	ListingStatusApproved = "approved"
	ListingStatusRejected = "rejected"
)

var ListingTransitions = map[string][]string{
	ListingStatusPending: {ListingStatusApproved, ListingStatusRejected},
}

var ListingCategories = []string{"product", "service", "promotion"}

// Listing has no wallet interaction; it only goes through moderation.
type Listing struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              int64     `gorm:"index;not null" json:"user_id"`
	Title               string    `gorm:"type:varchar(255);not null" json:"title"`
	Description         string    `gorm:"type:text" json:"description,omitempty"`
	Category            string    `gorm:"type:varchar(32);not null" json:"category"`
	Price               int64     `gorm:"not null;default:0" json:"price"`
	MediaURLs           []string  `gorm:"type:text;serializer:json" json:"media_urls"`
	WhatsAppLink        string    `gorm:"type:varchar(512)" json:"whatsapp_link,omitempty"`
	BusinessProfileLink string    `gorm:"type:varchar(512)" json:"business_profile_link,omitempty"`
	PlatformTargets     []string  `gorm:"type:text;serializer:json" json:"platform_targets"`
	Clicks              int64     `gorm:"not null;default:0" json:"clicks"`
	Reach               int64     `gorm:"not null;default:0" json:"reach"`
	Status              string    `gorm:"type:varchar(20);index;not null" json:"status"`
	ListingType         string    `gorm:"type:varchar(16);not null;default:manual" json:"listing_type"`
	CreatedAt           time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Listing) TableName() string {
	return "listing"
}
