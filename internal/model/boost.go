package model

import (
	"time"
)

const (
	BoostStatusPending    = "pending"
	BoostStatusProcessing = "processing"
	BoostStatusCompleted  = "completed"
	BoostStatusFailed     = "failed"
)

// BoostTransitions lists the moves an admin may make. Moving to failed is the
// rejection path and is additionally allowed from failed itself while the
// refund is still outstanding (see BoostRepository.Reject).
var BoostTransitions = map[string][]string{
	BoostStatusPending:    {BoostStatusProcessing, BoostStatusCompleted, BoostStatusFailed},
	BoostStatusProcessing: {BoostStatusCompleted, BoostStatusFailed},
}

var BoostPlatforms = []string{"facebook", "instagram", "tiktok", "x", "pinterest"}

var BoostTypes = []string{"followers", "likes", "views", "shares", "comments"}

type Boost struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64     `gorm:"index;not null" json:"user_id"`
	Platform     string    `gorm:"type:varchar(32);not null" json:"platform"`
	Type         string    `gorm:"type:varchar(32);not null" json:"type"`
	Link         string    `gorm:"type:varchar(512);not null" json:"link"`
	ServiceID    string    `gorm:"type:varchar(64);not null" json:"service_id"`
	Quantity     int64     `gorm:"not null" json:"quantity"`
	Amount       int64     `gorm:"not null" json:"amount"`
	IsManual     bool      `gorm:"not null" json:"is_manual"`
	Status       string    `gorm:"type:varchar(20);index;not null" json:"status"`
	APIOrderID   string    `gorm:"type:varchar(64)" json:"api_order_id,omitempty"`
	RefundIssued bool      `gorm:"not null;default:false" json:"refund_issued"`
	Reference    string    `gorm:"type:varchar(64);index" json:"reference"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Boost) TableName() string {
	return "boost"
}
