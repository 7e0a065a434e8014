package model

import (
	"time"
)

// Voucher is a single-use redemption artifact issued when a user's balance
// crosses a merchant's threshold. MerchantCode is copied at issuance time so
// the voucher survives later merchant-code changes. The settlement pipeline
// never mutates a voucher after creation; redemption flips IsUsed elsewhere.
type Voucher struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	MerchantID   uint      `json:"merchant_id" gorm:"index;not null"`
	Amount       float64   `json:"amount" gorm:"not null"`
	QRCode       string    `json:"qr_code" gorm:"uniqueIndex;not null"`
	MerchantCode string    `json:"merchant_code" gorm:"type:varchar(4);not null"`
	IsUsed       bool      `json:"is_used" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
}
