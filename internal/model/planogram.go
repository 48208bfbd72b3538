package model

import "time"

// Planogram is a versioned shelf layout. Only one is active at a time.
type Planogram struct {
	ID      string `gorm:"type:varchar(64);primaryKey" json:"id" validate:"required"`
	Name    string `gorm:"type:varchar(255)" json:"name"`
	Version int    `gorm:"not null;default:1" json:"version"`
	Active  bool   `gorm:"not null;default:false;index" json:"active"`
}

// Distribution places one product at one position of a planogram.
type Distribution struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	PlanogramID string    `gorm:"type:varchar(64);index;not null" json:"planogramId" validate:"required"`
	ProductID   string    `gorm:"type:varchar(64);not null" json:"productId" validate:"required"`
	Row         int       `gorm:"not null" json:"row"`
	Column      int       `gorm:"not null" json:"column"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}
