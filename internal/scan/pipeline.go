package scan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chervince/mon-projet/internal/model"
	"github.com/chervince/mon-projet/internal/ocr"
	"github.com/chervince/mon-projet/internal/store"
	"github.com/chervince/mon-projet/pkg/config"
	"github.com/chervince/mon-projet/pkg/logger"
	"github.com/chervince/mon-projet/prometheus"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Input is one settlement request: an authenticated user, the raw receipt
// image, and the best-effort client address for the audit trail.
type Input struct {
	UserID   uint
	Image    []byte
	ClientIP string
}

// VoucherResult describes a voucher issued during this settlement
type VoucherResult struct {
	ID           uint    `json:"id"`
	Amount       float64 `json:"amount"`
	MerchantCode string  `json:"merchant_code"`
}

// Result is the structured outcome of a settled scan
type Result struct {
	MerchantName     string         `json:"merchant_name"`
	CreditPercentage float64        `json:"credit_percentage"`
	TicketAmount     float64        `json:"ticket_amount"`
	CreditsEarned    int64          `json:"credits_earned"`
	TotalCredits     int64          `json:"total_credits"`
	Voucher          *VoucherResult `json:"voucher,omitempty"`
	ScanID           uint           `json:"scan_id"`
}

// Pipeline runs the ticket-to-credit settlement: OCR, amount extraction,
// merchant identification, rate limiting, ledger append and conditional
// voucher issuance. Every request runs to a terminal state; nothing is
// retried.
type Pipeline struct {
	store *store.Store
	ocr   ocr.Client
	cfg   config.ScanConfig
	locks *keyLocks

	// now is the clock used for windows and expiry; swapped in tests.
	now func() time.Time
}

// New creates a Pipeline around the injected store and OCR client
func New(st *store.Store, ocrClient ocr.Client, cfg config.ScanConfig) *Pipeline {
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = 5 * time.Minute
	}
	if cfg.RateMaxScans <= 0 {
		cfg.RateMaxScans = 2
	}
	if cfg.MinMatchScore <= 0 {
		cfg.MinMatchScore = DefaultMinMatchScore
	}
	return &Pipeline{
		store: st,
		ocr:   ocrClient,
		cfg:   cfg,
		locks: newKeyLocks(),
		now:   time.Now,
	}
}

// Process settles one scanned receipt
func (p *Pipeline) Process(ctx context.Context, in Input) (*Result, error) {
	result, err := p.process(ctx, in)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			prometheus.RecordScanOutcome(string(se.Kind))
		} else {
			prometheus.RecordScanOutcome("internal_error")
		}
		return nil, err
	}
	if result.Voucher != nil {
		prometheus.RecordScanOutcome("voucher_issued")
	} else {
		prometheus.RecordScanOutcome("settled")
	}
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, in Input) (*Result, error) {
	log := logger.FromContext(ctx)

	user, err := p.store.UserByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "User not found")
		}
		return nil, wrapError(KindStorageFailure, "Erreur lors du traitement du ticket. Veuillez réessayer.", err)
	}

	ocrStart := time.Now()
	text, err := p.ocr.DetectText(ctx, in.Image)
	prometheus.OCRDuration.Observe(time.Since(ocrStart).Seconds())
	if err != nil {
		if errors.Is(err, ocr.ErrNoTextDetected) {
			return nil, newError(KindNoTextDetected,
				"Aucun texte détecté sur l'image. Assurez-vous que le ticket est bien lisible.")
		}
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}
	log.Debug("OCR text detected", zap.Int("length", len(text)))

	amount, err := ParseAmount(text)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	merchants, err := p.store.Merchants(ctx)
	if err != nil {
		return nil, wrapError(KindStorageFailure, "Erreur lors du traitement du ticket. Veuillez réessayer.", err)
	}

	merchant, score, err := MatchMerchant(text, merchants, p.cfg.MinMatchScore)
	if err != nil {
		return nil, err
	}
	log.Info("Merchant identified",
		zap.String("merchant", merchant.Name),
		zap.Int("score", score),
		zap.Float64("ticket_amount", amount))

	// Everything stateful for this (user, merchant) pair runs under its key
	// lock: the rate-limit count, the ledger append and the voucher decision.
	unlock := p.locks.lock(user.ID, merchant.ID)
	defer unlock()

	now := p.now()

	recent, err := p.store.CountRecentScans(ctx, user.ID, merchant.ID, now.Add(-p.cfg.RateWindow))
	if err != nil {
		return nil, wrapError(KindStorageFailure, "Erreur lors du traitement du ticket. Veuillez réessayer.", err)
	}
	if recent >= int64(p.cfg.RateMaxScans) {
		return nil, newError(KindTooManyRequests,
			"Trop de scans récents. Veuillez attendre quelques minutes avant de scanner un nouveau ticket.")
	}

	creditsEarned := int64(math.Round(amount * merchant.CreditPercentage / 100))
	if creditsEarned <= 0 {
		return nil, newError(KindCreditsTooLow,
			"Le montant du ticket est trop faible pour gagner des crédits.")
	}

	clientIP := in.ClientIP
	if clientIP == "" {
		clientIP = "unknown"
	}

	scanLog := &model.ScanLog{
		UserID:        user.ID,
		MerchantID:    merchant.ID,
		TicketAmount:  amount,
		CreditsEarned: creditsEarned,
		IP:            clientIP,
		Timestamp:     now,
	}
	credit := &model.Credit{
		UserID:     user.ID,
		MerchantID: merchant.ID,
		Amount:     creditsEarned,
		ExpiresAt:  now.AddDate(0, merchant.ValidityMonths, 0),
	}

	defer prometheus.TrackDBOperation("settlement")(time.Now())
	if err := p.store.RecordSettlement(ctx, scanLog, credit); err != nil {
		return nil, wrapError(KindStorageFailure, "Erreur lors du traitement du ticket. Veuillez réessayer.", err)
	}
	prometheus.CreditsDistributedCounter.Add(float64(creditsEarned))

	balance, err := p.store.Balance(ctx, user.ID, merchant.ID, now)
	if err != nil {
		return nil, wrapError(KindStorageFailure, "Erreur lors du traitement du ticket. Veuillez réessayer.", err)
	}

	result := &Result{
		MerchantName:     merchant.Name,
		CreditPercentage: merchant.CreditPercentage,
		TicketAmount:     amount,
		CreditsEarned:    creditsEarned,
		TotalCredits:     balance,
		ScanID:           scanLog.ID,
	}

	if float64(balance) >= merchant.Threshold {
		voucher := &model.Voucher{
			UserID:       user.ID,
			MerchantID:   merchant.ID,
			Amount:       merchant.Threshold,
			QRCode:       fmt.Sprintf("fidelisation://voucher/%s", uuid.New().String()),
			MerchantCode: merchant.MerchantCode,
		}
		if err := p.store.IssueVoucher(ctx, voucher); err != nil {
			return nil, wrapError(KindStorageFailure, "Erreur lors du traitement du ticket. Veuillez réessayer.", err)
		}
		prometheus.VoucherIssuedCounter.Inc()
		log.Info("Voucher issued",
			zap.Uint("user_id", user.ID),
			zap.Uint("merchant_id", merchant.ID),
			zap.Float64("amount", voucher.Amount))

		result.Voucher = &VoucherResult{
			ID:           voucher.ID,
			Amount:       voucher.Amount,
			MerchantCode: voucher.MerchantCode,
		}
		// The ledger was just zeroed; report that, not the pre-reset balance.
		result.TotalCredits = 0
	}

	return result, nil
}
