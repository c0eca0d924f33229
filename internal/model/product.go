package model

import (
	"time"
)

var ProductStatuses = []string{"pending", "approved", "rejected", "running", "completed"}

type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"user_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Price       int64     `gorm:"not null" json:"price"`
	Category    string    `gorm:"type:varchar(64)" json:"category,omitempty"`
	WhatsApp    string    `gorm:"type:varchar(255)" json:"whatsapp,omitempty"`
	Platforms   []string  `gorm:"type:text;serializer:json" json:"platforms"`
	Images      []string  `gorm:"type:text;serializer:json" json:"images"`
	Status      string    `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
