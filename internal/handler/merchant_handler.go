package handler

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/chervince/mon-projet/internal/model"
	"github.com/chervince/mon-projet/internal/store"
	"github.com/chervince/mon-projet/pkg/logger"
	"github.com/chervince/mon-projet/prometheus"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var merchantCodePattern = regexp.MustCompile(`^[A-Z0-9]{4}$`)

// MerchantHandler exposes merchant catalog operations: the admin CRUD
// surface and the public merchant card used by the QR landing page.
type MerchantHandler struct {
	store *store.Store
}

// NewMerchantHandler creates a merchant handler around the injected store
func NewMerchantHandler(st *store.Store) *MerchantHandler {
	return &MerchantHandler{store: st}
}

// Create handles POST /admin/merchants
func (h *MerchantHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordMerchantOperation("create")

	// Parse request
	var req struct {
		Name             string  `json:"name"`
		Logo             string  `json:"logo"`
		Address          string  `json:"address"`
		CreditPercentage float64 `json:"credit_percentage"`
		Threshold        float64 `json:"threshold"`
		ValidityMonths   int     `json:"validity_months"`
		MerchantCode     string  `json:"merchant_code"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse merchant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		log.Error("Invalid merchant data", zap.String("name", req.Name))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.CreditPercentage < 1 || req.CreditPercentage > 20 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "credit_percentage must be between 1 and 20"})
	}
	if req.Threshold < 500 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "threshold must be at least 500"})
	}
	if req.ValidityMonths < 3 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validity_months must be at least 3"})
	}

	code := strings.ToUpper(strings.TrimSpace(req.MerchantCode))
	if !merchantCodePattern.MatchString(code) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "merchant_code must be 4 alphanumeric characters"})
	}

	merchant := model.Merchant{
		Name:             req.Name,
		Logo:             req.Logo,
		Address:          req.Address,
		CreditPercentage: req.CreditPercentage,
		Threshold:        req.Threshold,
		ValidityMonths:   req.ValidityMonths,
		MerchantCode:     code,
		QRCode:           fmt.Sprintf("fidelisation://merchant/%s", uuid.New().String()),
	}

	if err := h.store.CreateMerchant(c.Request().Context(), &merchant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn("Duplicate merchant code", zap.String("merchant_code", code))
			return c.JSON(http.StatusConflict, echo.Map{"error": "merchant_code already in use"})
		}
		log.Error("Failed to create merchant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "merchant creation failed"})
	}

	log.Info("Merchant created",
		zap.String("name", merchant.Name),
		zap.Uint("id", merchant.ID),
		zap.String("merchant_code", merchant.MerchantCode))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Merchant created successfully",
		"merchant": merchant,
	})
}

// List handles GET /admin/merchants
func (h *MerchantHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordMerchantOperation("list")

	merchants, err := h.store.ListMerchants(c.Request().Context())
	if err != nil {
		log.Error("Failed to retrieve merchants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve merchants"})
	}

	return c.JSON(http.StatusOK, echo.Map{"merchants": merchants})
}

// Get handles GET /merchants/:id, the public merchant card shown after a
// QR code scan. Only display fields are exposed.
func (h *MerchantHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordMerchantOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid merchant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid merchant ID"})
	}

	merchant, err := h.store.MerchantByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Marchand non trouvé"})
		}
		log.Error("Failed to retrieve merchant", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve merchant"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"merchant": echo.Map{
			"id":      merchant.ID,
			"name":    merchant.Name,
			"logo":    merchant.Logo,
			"address": merchant.Address,
		},
	})
}
