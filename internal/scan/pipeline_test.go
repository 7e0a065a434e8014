package scan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chervince/mon-projet/internal/model"
	"github.com/chervince/mon-projet/internal/ocr"
	"github.com/chervince/mon-projet/internal/store"
	"github.com/chervince/mon-projet/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubOCR struct {
	mu   sync.Mutex
	text string
	err  error
}

func (s *stubOCR) DetectText(ctx context.Context, image []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubOCR) setText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every test against the same in-memory DB.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Merchant{},
		&model.Credit{},
		&model.Voucher{},
		&model.ScanLog{},
	))
	return db
}

type pipelineEnv struct {
	db       *gorm.DB
	store    *store.Store
	ocr      *stubOCR
	pipeline *Pipeline
	user     *model.User
	merchant *model.Merchant
	now      time.Time
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()

	db := newTestDB(t)
	st := store.New(db)

	user := &model.User{Email: "user@test.nc", Name: "Testeur", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	merchant := &model.Merchant{
		Name:             "Lulu's Café",
		CreditPercentage: 10,
		Threshold:        2000,
		ValidityMonths:   6,
		MerchantCode:     "LULU",
		QRCode:           "fidelisation://merchant/test-lulu",
	}
	require.NoError(t, db.Create(merchant).Error)

	env := &pipelineEnv{
		db:       db,
		store:    st,
		ocr:      &stubOCR{},
		user:     user,
		merchant: merchant,
		now:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	env.pipeline = New(st, env.ocr, config.ScanConfig{})
	env.pipeline.now = func() time.Time { return env.now }
	return env
}

func (env *pipelineEnv) scan(text string) (*Result, error) {
	env.ocr.setText(text)
	return env.pipeline.Process(context.Background(), Input{
		UserID:   env.user.ID,
		Image:    []byte("fake-image"),
		ClientIP: "192.0.2.1",
	})
}

func errorKind(t *testing.T, err error) ErrorKind {
	t.Helper()
	var se *Error
	require.True(t, errors.As(err, &se), "expected *scan.Error, got %v", err)
	return se.Kind
}

func TestPipelineCreditComputation(t *testing.T) {
	env := newPipelineEnv(t)

	result, err := env.scan("LULU'S CAFE\nTOTAL: 1 999 F")
	require.NoError(t, err)

	assert.Equal(t, "Lulu's Café", result.MerchantName)
	assert.Equal(t, 1999.0, result.TicketAmount)
	// round(1999 * 10 / 100) = round(199.9) = 200
	assert.Equal(t, int64(200), result.CreditsEarned)
	assert.Equal(t, int64(200), result.TotalCredits)
	assert.Nil(t, result.Voucher)
	assert.NotZero(t, result.ScanID)

	var credit model.Credit
	require.NoError(t, env.db.First(&credit).Error)
	assert.Equal(t, int64(200), credit.Amount)
	assert.True(t, credit.ExpiresAt.Equal(env.now.AddDate(0, 6, 0)),
		"expected expiry %v, got %v", env.now.AddDate(0, 6, 0), credit.ExpiresAt)

	var scanLog model.ScanLog
	require.NoError(t, env.db.First(&scanLog).Error)
	assert.Equal(t, 1999.0, scanLog.TicketAmount)
	assert.Equal(t, "192.0.2.1", scanLog.IP)

	var user model.User
	require.NoError(t, env.db.First(&user, env.user.ID).Error)
	assert.Equal(t, int64(200), user.PointsTotal)
}

func TestPipelineEndToEndVoucherIssuance(t *testing.T) {
	env := newPipelineEnv(t)

	// First scan: 12000 XPF at 10% -> 1200 credits, below the 2000 threshold.
	result, err := env.scan("LULU'S CAFE TOTAL: 12 000 XPF")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), result.CreditsEarned)
	assert.Equal(t, int64(1200), result.TotalCredits)
	assert.Nil(t, result.Voucher)

	// Second scan outside the rate window: 9000 XPF -> 900 credits,
	// balance 2100 crosses the threshold.
	env.now = env.now.Add(6 * time.Minute)
	result, err = env.scan("LULU'S CAFE TOTAL: 9 000 XPF")
	require.NoError(t, err)
	assert.Equal(t, int64(900), result.CreditsEarned)

	require.NotNil(t, result.Voucher)
	assert.Equal(t, 2000.0, result.Voucher.Amount)
	assert.Equal(t, "LULU", result.Voucher.MerchantCode)
	// The ledger was zeroed, the overshoot is forfeited.
	assert.Equal(t, int64(0), result.TotalCredits)

	var creditCount int64
	require.NoError(t, env.db.Model(&model.Credit{}).Count(&creditCount).Error)
	assert.Equal(t, int64(0), creditCount)

	var voucher model.Voucher
	require.NoError(t, env.db.First(&voucher).Error)
	assert.Equal(t, 2000.0, voucher.Amount)
	assert.Equal(t, "LULU", voucher.MerchantCode)
	assert.False(t, voucher.IsUsed)
	assert.True(t, strings.HasPrefix(voucher.QRCode, "fidelisation://voucher/"))

	// The audit trail is never deleted.
	var scanCount int64
	require.NoError(t, env.db.Model(&model.ScanLog{}).Count(&scanCount).Error)
	assert.Equal(t, int64(2), scanCount)

	// The denormalized lifetime counter keeps both grants.
	var user model.User
	require.NoError(t, env.db.First(&user, env.user.ID).Error)
	assert.Equal(t, int64(2100), user.PointsTotal)
}

func TestPipelineRateLimit(t *testing.T) {
	env := newPipelineEnv(t)
	const text = "LULU'S CAFE TOTAL: 1 000 F"

	_, err := env.scan(text)
	require.NoError(t, err)

	env.now = env.now.Add(1 * time.Minute)
	_, err = env.scan(text)
	require.NoError(t, err)

	// Two scans already sit inside the 5-minute window.
	env.now = env.now.Add(1 * time.Minute)
	_, err = env.scan(text)
	require.Error(t, err)
	assert.Equal(t, KindTooManyRequests, errorKind(t, err))

	// The rejected attempt must not leave a log entry behind.
	var scanCount int64
	require.NoError(t, env.db.Model(&model.ScanLog{}).Count(&scanCount).Error)
	assert.Equal(t, int64(2), scanCount)

	// Once the earlier scans age out of the window, scanning works again.
	env.now = env.now.Add(5 * time.Minute)
	_, err = env.scan(text)
	require.NoError(t, err)
}

func TestPipelineExpiredCreditsExcluded(t *testing.T) {
	env := newPipelineEnv(t)

	// An expired grant big enough to cross the threshold on its own.
	require.NoError(t, env.db.Create(&model.Credit{
		UserID:     env.user.ID,
		MerchantID: env.merchant.ID,
		Amount:     1900,
		ExpiresAt:  env.now.Add(-time.Hour),
	}).Error)

	result, err := env.scan("LULU'S CAFE TOTAL: 1 000 F")
	require.NoError(t, err)

	assert.Equal(t, int64(100), result.CreditsEarned)
	// Only the fresh grant counts; no voucher.
	assert.Equal(t, int64(100), result.TotalCredits)
	assert.Nil(t, result.Voucher)

	// The expired row stays in storage.
	var creditCount int64
	require.NoError(t, env.db.Model(&model.Credit{}).Count(&creditCount).Error)
	assert.Equal(t, int64(2), creditCount)
}

func TestPipelineCreditsTooLow(t *testing.T) {
	env := newPipelineEnv(t)

	// round(4 * 10 / 100) = 0
	_, err := env.scan("LULU'S CAFE TOTAL: 4 F")
	require.Error(t, err)
	assert.Equal(t, KindCreditsTooLow, errorKind(t, err))

	// Nothing may be written for a rejected scan.
	var scanCount, creditCount int64
	require.NoError(t, env.db.Model(&model.ScanLog{}).Count(&scanCount).Error)
	require.NoError(t, env.db.Model(&model.Credit{}).Count(&creditCount).Error)
	assert.Zero(t, scanCount)
	assert.Zero(t, creditCount)
}

func TestPipelineNoTextDetected(t *testing.T) {
	env := newPipelineEnv(t)
	env.ocr.err = ocr.ErrNoTextDetected

	_, err := env.pipeline.Process(context.Background(), Input{
		UserID: env.user.ID,
		Image:  []byte("fake-image"),
	})
	require.Error(t, err)
	assert.Equal(t, KindNoTextDetected, errorKind(t, err))
}

func TestPipelineMerchantNotIdentified(t *testing.T) {
	env := newPipelineEnv(t)

	_, err := env.scan("SNACK CHEZ PIERROT TOTAL: 1 000 F")
	require.Error(t, err)
	assert.Equal(t, KindMerchantNotIdentified, errorKind(t, err))
}

func TestPipelineUnknownUser(t *testing.T) {
	env := newPipelineEnv(t)
	env.ocr.setText("LULU'S CAFE TOTAL: 1 000 F")

	_, err := env.pipeline.Process(context.Background(), Input{
		UserID: 999,
		Image:  []byte("fake-image"),
	})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, errorKind(t, err))
}

func TestPipelineConcurrentScansSingleVoucher(t *testing.T) {
	env := newPipelineEnv(t)

	// Pre-existing balance just below the threshold.
	require.NoError(t, env.db.Create(&model.Credit{
		UserID:     env.user.ID,
		MerchantID: env.merchant.ID,
		Amount:     1900,
		ExpiresAt:  env.now.AddDate(0, 6, 0),
	}).Error)

	env.ocr.setText("LULU'S CAFE TOTAL: 1 000 F")

	var wg sync.WaitGroup
	results := make([]*Result, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.pipeline.Process(context.Background(), Input{
				UserID: env.user.ID,
				Image:  []byte("fake-image"),
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Exactly one of the two crossings may issue a voucher.
	issued := 0
	for _, r := range results {
		if r.Voucher != nil {
			issued++
		}
	}
	assert.Equal(t, 1, issued)

	var voucherCount int64
	require.NoError(t, env.db.Model(&model.Voucher{}).Count(&voucherCount).Error)
	assert.Equal(t, int64(1), voucherCount)

	// Whichever scan lost the race settled against the zeroed ledger.
	balance, err := env.store.Balance(context.Background(), env.user.ID, env.merchant.ID, env.now)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}
