package model

import (
	"time"
)

// User represents an end user of the loyalty application.
// PointsTotal is a denormalized cache of lifetime earned credits; the
// authoritative balance per merchant is always the sum of unexpired Credit
// rows.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"type:varchar(100)"`
	Password    string    `json:"-" gorm:"not null"`
	Role        string    `json:"role" gorm:"type:varchar(20);default:user"`
	PointsTotal int64     `json:"points_total" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
