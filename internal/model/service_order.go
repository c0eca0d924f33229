package model

import (
	"time"
)

const (
	ServiceStatusPending   = "pending"
	ServiceStatusApproved  = "approved"
	ServiceStatusRejected  = "rejected"
	ServiceStatusRunning   = "running"
	ServiceStatusCompleted = "completed"
)

var ServiceTransitions = map[string][]string{
	ServiceStatusPending:  {ServiceStatusApproved, ServiceStatusRejected},
	ServiceStatusApproved: {ServiceStatusRunning, ServiceStatusRejected},
	ServiceStatusRunning:  {ServiceStatusCompleted},
}

var ServicePlatforms = []string{"tiktok", "instagram", "facebook", "youtube", "x", "whatsapp"}

// Service is a promoted business service. Amount is the cost charged at
// creation; a rejection refunds exactly this value.
type Service struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64     `gorm:"index;not null" json:"user_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	PriceRange   string    `gorm:"type:varchar(64)" json:"price_range,omitempty"`
	Category     string    `gorm:"type:varchar(64)" json:"category,omitempty"`
	WhatsApp     string    `gorm:"type:varchar(255)" json:"whatsapp,omitempty"`
	Location     string    `gorm:"type:varchar(255)" json:"location,omitempty"`
	Link         string    `gorm:"type:varchar(512)" json:"link,omitempty"`
	Platforms    []string  `gorm:"type:text;serializer:json" json:"platforms"`
	Amount       int64     `gorm:"not null;default:0" json:"amount"`
	Status       string    `gorm:"type:varchar(20);index:idx_service_status_created;not null" json:"status"`
	AdminNote    string    `gorm:"type:varchar(512)" json:"admin_note,omitempty"`
	RefundIssued bool      `gorm:"not null;default:false" json:"refund_issued"`
	Reference    string    `gorm:"type:varchar(64);index" json:"reference"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_service_status_created" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Service) TableName() string {
	return "service_order"
}
