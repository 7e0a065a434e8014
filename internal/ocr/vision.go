package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chervince/mon-projet/pkg/config"
	"go.uber.org/zap"
)

// VisionClient talks to the Google Cloud Vision images:annotate REST endpoint
// and returns the full-text annotation of a receipt image.
type VisionClient struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type annotateRequest struct {
	Requests []annotateImageRequest `json:"requests"`
}

type annotateImageRequest struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// NewVisionClient creates a Vision OCR client from configuration
func NewVisionClient(cfg *config.OCRConfig, logger *zap.Logger) *VisionClient {
	return &VisionClient{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Logger:     logger,
	}
}

// DetectText sends the image to the provider and returns the first (highest
// confidence) full-text annotation.
func (c *VisionClient) DetectText(ctx context.Context, image []byte) (string, error) {
	payload := annotateRequest{
		Requests: []annotateImageRequest{
			{
				Image:    annotateImage{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []annotateFeature{{Type: "TEXT_DETECTION"}},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode annotate request: %w", err)
	}

	url := c.Endpoint
	if c.APIKey != "" {
		url = fmt.Sprintf("%s?key=%s", c.Endpoint, c.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read OCR response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.Logger.Error("OCR provider returned an error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return "", fmt.Errorf("OCR provider returned status %d", resp.StatusCode)
	}

	var annotated annotateResponse
	if err := json.Unmarshal(respBody, &annotated); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}

	if len(annotated.Responses) == 0 {
		return "", ErrNoTextDetected
	}

	first := annotated.Responses[0]
	if first.Error != nil {
		return "", fmt.Errorf("OCR provider error: %s", first.Error.Message)
	}
	if len(first.TextAnnotations) == 0 {
		return "", ErrNoTextDetected
	}

	return first.TextAnnotations[0].Description, nil
}
