package model

import (
	"time"
)

// ScanLog records every accepted receipt scan. Rows are append-only and
// never deleted: they are both the audit trail and the basis of the
// rate-limit window query.
type ScanLog struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"index:idx_scan_logs_user_merchant;not null"`
	MerchantID    uint      `json:"merchant_id" gorm:"index:idx_scan_logs_user_merchant;not null"`
	TicketAmount  float64   `json:"ticket_amount" gorm:"not null"`
	CreditsEarned int64     `json:"credits_earned" gorm:"not null"`
	IP            string    `json:"ip" gorm:"type:varchar(64)"`
	Timestamp     time.Time `json:"timestamp" gorm:"index;not null"`
}
