package model

import (
	"time"
)

// Merchant represents a partner merchant and its loyalty economics.
// MerchantCode is the human-readable redemption key printed on vouchers;
// QRCode identifies the merchant on the scan-QR landing page.
type Merchant struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"type:varchar(100);not null"`
	Logo             string    `json:"logo,omitempty" gorm:"type:text"`
	Address          string    `json:"address,omitempty" gorm:"type:text"`
	CreditPercentage float64   `json:"credit_percentage" gorm:"not null"`
	Threshold        float64   `json:"threshold" gorm:"not null"`
	ValidityMonths   int       `json:"validity_months" gorm:"not null"`
	MerchantCode     string    `json:"merchant_code" gorm:"type:varchar(4);uniqueIndex;not null"`
	QRCode           string    `json:"qr_code" gorm:"uniqueIndex;not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
