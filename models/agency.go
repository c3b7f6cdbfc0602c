package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agency represents a property-management agency. Mandate signatures on the
// agency side are performed by its acting user (UserId).
type Agency struct {
	Id      string `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null;unique"`
	Address string `json:"address" gorm:"not null"`
	City    string `json:"city" gorm:"not null"`
	Country string `json:"country" gorm:"not null"`
	Zip     string `json:"zip" gorm:"not null"`
	Email   string `json:"email" gorm:"unique;not null"`
	Phone   string `json:"phone"`
	License string `json:"license" gorm:"null"` // professional license number
	UserId  string `json:"-" gorm:"not null;index"`
	User    User   `json:"user" gorm:"foreignKey:UserId;references:Id"`
}

func (agency *Agency) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	agency.Id = uuid.NewString()
	return
}
