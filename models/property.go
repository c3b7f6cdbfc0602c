package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Property struct {
	Id          string  `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null"`
	Description string  `json:"description"`
	Address     string  `json:"address" gorm:"not null"`
	City        string  `json:"city" gorm:"not null;index"`
	Zip         string  `json:"zip" gorm:"not null"`
	MonthlyRent float64 `json:"monthly_rent" gorm:"type:numeric(12,2)"`
	Rooms       int     `json:"rooms"`
	Surface     float64 `json:"surface"` // square meters
	OwnerId     string  `json:"owner_id" gorm:"not null;index"`
	Owner       User    `json:"-" gorm:"foreignKey:OwnerId;references:Id"`
	Published   bool    `json:"published"`
}

func (property *Property) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	property.Id = uuid.NewString()
	return
}
