package models

import "time"

type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;type:char(24)"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
