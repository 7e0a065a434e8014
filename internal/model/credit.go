package model

import (
	"time"
)

// Credit is one append-only ledger entry of earned value for a
// (user, merchant) pair. Rows are immutable once created; the only deletion
// is the bulk reset at voucher issuance. Expired rows stop counting toward
// the balance but may remain in storage.
type Credit struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index:idx_credits_user_merchant;not null"`
	MerchantID uint      `json:"merchant_id" gorm:"index:idx_credits_user_merchant;not null"`
	Amount     int64     `json:"amount" gorm:"not null"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt  time.Time `json:"created_at"`
}
