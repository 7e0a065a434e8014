package store

import (
	"context"
	"time"

	"github.com/chervince/mon-projet/internal/model"
	"gorm.io/gorm"
)

// Store wraps the database handle behind the queries the application needs.
// The handle is opened once at process start and passed in; nothing in this
// package keeps package-level state.
type Store struct {
	db *gorm.DB
}

// New creates a Store around an open database handle
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UserByID fetches a user by primary key
func (s *Store) UserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByEmail fetches a user by email
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// Merchants returns the full catalog in stable id order. The matcher relies
// on that ordering for its first-maximum tie handling.
func (s *Store) Merchants(ctx context.Context) ([]model.Merchant, error) {
	var merchants []model.Merchant
	if err := s.db.WithContext(ctx).Order("id").Find(&merchants).Error; err != nil {
		return nil, err
	}
	return merchants, nil
}

// MerchantByID fetches a merchant by primary key
func (s *Store) MerchantByID(ctx context.Context, id uint) (*model.Merchant, error) {
	var merchant model.Merchant
	if err := s.db.WithContext(ctx).First(&merchant, id).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

// MerchantByCode fetches a merchant by its redemption code
func (s *Store) MerchantByCode(ctx context.Context, code string) (*model.Merchant, error) {
	var merchant model.Merchant
	if err := s.db.WithContext(ctx).Where("merchant_code = ?", code).First(&merchant).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

// CreateMerchant inserts a new merchant
func (s *Store) CreateMerchant(ctx context.Context, merchant *model.Merchant) error {
	return s.db.WithContext(ctx).Create(merchant).Error
}

// ListMerchants returns all merchants, newest first, for the admin surface
func (s *Store) ListMerchants(ctx context.Context) ([]model.Merchant, error) {
	var merchants []model.Merchant
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&merchants).Error; err != nil {
		return nil, err
	}
	return merchants, nil
}

// CountRecentScans counts scan-log rows for the pair since the given instant.
// This is the rate-limit window query; it deliberately reads the same table
// the audit trail is written to.
func (s *Store) CountRecentScans(ctx context.Context, userID, merchantID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ScanLog{}).
		Where("user_id = ? AND merchant_id = ? AND timestamp >= ?", userID, merchantID, since).
		Count(&count).Error
	return count, err
}

// RecordSettlement appends the scan log and credit rows and bumps the user's
// denormalized points total in one transaction. The credit write and the
// counter update are the atomic unit; the scan log rides along.
func (s *Store) RecordSettlement(ctx context.Context, scanLog *model.ScanLog, credit *model.Credit) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(scanLog).Error; err != nil {
			return err
		}
		if err := tx.Create(credit).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", credit.UserID).
			Update("points_total", gorm.Expr("points_total + ?", credit.Amount)).Error
	})
}

// Balance sums the unexpired credit amounts for the pair. Expired rows stay
// in storage but never count.
func (s *Store) Balance(ctx context.Context, userID, merchantID uint, now time.Time) (int64, error) {
	var balance int64
	err := s.db.WithContext(ctx).Model(&model.Credit{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND merchant_id = ? AND expires_at > ?", userID, merchantID, now).
		Scan(&balance).Error
	return balance, err
}

// IssueVoucher creates the voucher and deletes every credit row for the pair
// in one transaction, resetting the balance to zero.
func (s *Store) IssueVoucher(ctx context.Context, voucher *model.Voucher) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(voucher).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND merchant_id = ?", voucher.UserID, voucher.MerchantID).
			Delete(&model.Credit{}).Error
	})
}

// MerchantCredits is one row of a user's unexpired balance grouped by merchant
type MerchantCredits struct {
	MerchantID   uint   `json:"merchant_id"`
	MerchantName string `json:"merchant_name"`
	MerchantLogo string `json:"merchant_logo,omitempty"`
	TotalCredits int64  `json:"total_credits"`
}

// CreditsByMerchant groups a user's unexpired credits per merchant
func (s *Store) CreditsByMerchant(ctx context.Context, userID uint, now time.Time) ([]MerchantCredits, error) {
	var rows []MerchantCredits
	err := s.db.WithContext(ctx).Model(&model.Credit{}).
		Select("credits.merchant_id AS merchant_id, merchants.name AS merchant_name, merchants.logo AS merchant_logo, SUM(credits.amount) AS total_credits").
		Joins("JOIN merchants ON merchants.id = credits.merchant_id").
		Where("credits.user_id = ? AND credits.expires_at > ?", userID, now).
		Group("credits.merchant_id, merchants.name, merchants.logo").
		Scan(&rows).Error
	return rows, err
}

// VoucherWithMerchant is a voucher row enriched with the merchant name
type VoucherWithMerchant struct {
	ID           uint      `json:"id"`
	MerchantName string    `json:"merchant_name"`
	MerchantCode string    `json:"merchant_code"`
	Amount       float64   `json:"amount"`
	QRCode       string    `json:"qr_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActiveVouchers returns a user's unused vouchers, newest first
func (s *Store) ActiveVouchers(ctx context.Context, userID uint) ([]VoucherWithMerchant, error) {
	var rows []VoucherWithMerchant
	err := s.db.WithContext(ctx).Model(&model.Voucher{}).
		Select("vouchers.id, merchants.name AS merchant_name, vouchers.merchant_code, vouchers.amount, vouchers.qr_code, vouchers.created_at").
		Joins("JOIN merchants ON merchants.id = vouchers.merchant_id").
		Where("vouchers.user_id = ? AND vouchers.is_used = ?", userID, false).
		Order("vouchers.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// Partner is a catalog entry enriched with the caller's unexpired balance
type Partner struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	Logo             string  `json:"logo,omitempty"`
	Address          string  `json:"address,omitempty"`
	CreditPercentage float64 `json:"credit_percentage"`
	Threshold        float64 `json:"threshold"`
	UserCredits      int64   `json:"user_credits"`
}

// Partners lists every merchant with the user's unexpired balance, sorted by
// balance descending.
func (s *Store) Partners(ctx context.Context, userID uint, now time.Time) ([]Partner, error) {
	var rows []Partner
	err := s.db.WithContext(ctx).Table("merchants").
		Select("merchants.id, merchants.name, merchants.logo, merchants.address, merchants.credit_percentage, merchants.threshold, COALESCE(SUM(credits.amount), 0) AS user_credits").
		Joins("LEFT JOIN credits ON credits.merchant_id = merchants.id AND credits.user_id = ? AND credits.expires_at > ?", userID, now).
		Group("merchants.id, merchants.name, merchants.logo, merchants.address, merchants.credit_percentage, merchants.threshold").
		Order("user_credits DESC").
		Scan(&rows).Error
	return rows, err
}
