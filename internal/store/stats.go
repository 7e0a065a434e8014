package store

import (
	"context"
	"time"

	"github.com/chervince/mon-projet/internal/model"
)

// RecentScan is one audit-trail row joined with display names for the admin
// dashboard.
type RecentScan struct {
	ID            uint      `json:"id"`
	UserName      string    `json:"user_name"`
	MerchantName  string    `json:"merchant_name"`
	TicketAmount  float64   `json:"ticket_amount"`
	CreditsEarned int64     `json:"credits_earned"`
	Timestamp     time.Time `json:"timestamp"`
	IP            string    `json:"ip"`
}

// Stats aggregates the admin dashboard numbers
type Stats struct {
	TotalUsers              int64        `json:"total_users"`
	TotalMerchants          int64        `json:"total_merchants"`
	TotalCreditsDistributed int64        `json:"total_credits_distributed"`
	TotalVouchersGenerated  int64        `json:"total_vouchers_generated"`
	TotalScans              int64        `json:"total_scans"`
	RecentScans             []RecentScan `json:"recent_scans"`
}

// GlobalStats computes the admin dashboard aggregates and the 10 most recent
// scans.
func (s *Store) GlobalStats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{}

	if err := db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Merchant{}).Count(&stats.TotalMerchants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Credit{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalCreditsDistributed).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Voucher{}).Count(&stats.TotalVouchersGenerated).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.ScanLog{}).Count(&stats.TotalScans).Error; err != nil {
		return nil, err
	}

	err := db.Model(&model.ScanLog{}).
		Select("scan_logs.id, COALESCE(NULLIF(users.name, ''), users.email) AS user_name, merchants.name AS merchant_name, scan_logs.ticket_amount, scan_logs.credits_earned, scan_logs.timestamp, scan_logs.ip").
		Joins("JOIN users ON users.id = scan_logs.user_id").
		Joins("JOIN merchants ON merchants.id = scan_logs.merchant_id").
		Order("scan_logs.timestamp DESC").
		Limit(10).
		Scan(&stats.RecentScans).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
