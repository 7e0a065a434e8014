package ocr

import (
	"context"
	"errors"
)

// ErrNoTextDetected is returned when the provider finds no text annotations
// on the image.
var ErrNoTextDetected = errors.New("no text detected on image")

// Client extracts text from a receipt image. Implementations wrap an external
// OCR provider; the pipeline only ever sees the single highest-confidence
// full-text annotation.
type Client interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}
