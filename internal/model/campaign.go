package model

import (
	"time"
)

const (
	CampaignStatusPending   = "pending"
	CampaignStatusRunning   = "running"
	CampaignStatusCompleted = "completed"
	CampaignStatusDeclined  = "declined"
)

var CampaignTransitions = map[string][]string{
	CampaignStatusPending: {CampaignStatusRunning, CampaignStatusDeclined},
	CampaignStatusRunning: {CampaignStatusCompleted},
}

var CampaignPlatforms = []string{"facebook", "instagram", "tiktok", "youtube", "x", "pinterest", "whatsapp"}

var CampaignGoals = []string{"engagement", "awareness", "traffic", "leads", "sales", "app_promotion"}

// Campaign is funded from the owner's wallet balance at creation time.
type Campaign struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"index;not null" json:"user_id"`
	Platform       string    `gorm:"type:varchar(32);not null" json:"platform"`
	Goal           string    `gorm:"type:varchar(32);not null" json:"goal"`
	PostURL        string    `gorm:"type:varchar(512)" json:"post_url,omitempty"`
	DestinationURL string    `gorm:"type:varchar(512)" json:"destination_url,omitempty"`
	ContactURL     string    `gorm:"type:varchar(512)" json:"contact_url,omitempty"`
	ProductURL     string    `gorm:"type:varchar(512)" json:"product_url,omitempty"`
	AppURL         string    `gorm:"type:varchar(512)" json:"app_url,omitempty"`
	MediaURL       string    `gorm:"type:varchar(512)" json:"media_url,omitempty"`
	Caption        string    `gorm:"type:text" json:"caption,omitempty"`
	Audience       string    `gorm:"type:varchar(255)" json:"audience,omitempty"`
	BudgetUSD      int64     `gorm:"not null" json:"budget_usd"`
	Status         string    `gorm:"type:varchar(20);index;not null" json:"status"`
	AdminNote      string    `gorm:"type:varchar(512)" json:"admin_note,omitempty"`
	RefundIssued   bool      `gorm:"not null;default:false" json:"refund_issued"`
	Reference      string    `gorm:"type:varchar(64);index" json:"reference"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaign"
}
