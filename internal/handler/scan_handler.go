package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/chervince/mon-projet/internal/scan"
	"github.com/chervince/mon-projet/pkg/jwtutil"
	"github.com/chervince/mon-projet/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Processor settles one scanned receipt. Satisfied by *scan.Pipeline;
// handler tests substitute a stub.
type Processor interface {
	Process(ctx context.Context, in scan.Input) (*scan.Result, error)
}

// ScanHandler exposes the settlement pipeline over HTTP
type ScanHandler struct {
	pipeline Processor
}

// NewScanHandler creates a scan handler around the injected pipeline
func NewScanHandler(pipeline Processor) *ScanHandler {
	return &ScanHandler{pipeline: pipeline}
}

// Process handles POST /scan/process: reads the multipart "ticket" image,
// runs the settlement pipeline and maps its outcome to a response.
func (h *ScanHandler) Process(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := c.Get("user").(*jwtutil.UserClaims)
	if !ok {
		log.Error("Failed to get user claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	file, err := c.FormFile("ticket")
	if err != nil {
		log.Error("No ticket image in request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Aucune image reçue"})
	}

	src, err := file.Open()
	if err != nil {
		log.Error("Failed to open uploaded image", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Aucune image reçue"})
	}
	defer src.Close()

	image, err := io.ReadAll(src)
	if err != nil {
		log.Error("Failed to read uploaded image", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Aucune image reçue"})
	}

	ctx := logger.WithContext(c.Request().Context(), log)
	result, err := h.pipeline.Process(ctx, scan.Input{
		UserID:   claims.UserID,
		Image:    image,
		ClientIP: c.RealIP(),
	})
	if err != nil {
		var se *scan.Error
		if errors.As(err, &se) {
			log.Info("Scan rejected",
				zap.String("kind", string(se.Kind)),
				zap.Uint("user_id", claims.UserID))
			return c.JSON(se.HTTPStatus(), echo.Map{"error": se.Message})
		}
		log.Error("Error processing ticket", zap.Error(err))
		return c.JSON(http.StatusInternalServerError,
			echo.Map{"error": "Erreur lors du traitement du ticket. Veuillez réessayer."})
	}

	log.Info("Scan settled",
		zap.Uint("user_id", claims.UserID),
		zap.String("merchant", result.MerchantName),
		zap.Float64("ticket_amount", result.TicketAmount),
		zap.Int64("credits_earned", result.CreditsEarned),
		zap.Bool("voucher_issued", result.Voucher != nil))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"merchant": echo.Map{
			"name":              result.MerchantName,
			"credit_percentage": result.CreditPercentage,
		},
		"ticket_amount":     result.TicketAmount,
		"credits_earned":    result.CreditsEarned,
		"total_credits":     result.TotalCredits,
		"voucher_generated": result.Voucher,
		"scan_id":           result.ScanID,
	})
}
