package scan

import (
	"regexp"
	"strconv"
	"strings"
)

// Receipt layouts vary wildly, so extraction is attempted in priority order:
// a number anchored to a total/montant label and followed by a currency
// marker, then any number followed by a currency marker, then any number
// followed by "xpf". The number grammar accepts a space thousands separator
// and an optional two-digit decimal part with comma or period.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:total|montant|à\s+payer|net\s+à\s+payer)[\s:]*(\d{1,3}(?:\s?\d{3})*(?:[,.]\d{2})?)\s*(?:f|francs?|xpf)`),
	regexp.MustCompile(`(?i)(\d{1,3}(?:\s?\d{3})*(?:[,.]\d{2})?)\s*(?:f|francs?|xpf)(?:\s|$)`),
	regexp.MustCompile(`(?i)(\d{1,3}(?:\s?\d{3})*(?:[,.]\d{2})?)\s*xpf`),
}

// ParseAmount extracts the ticket amount from recognized receipt text.
// It is pure: same text in, same amount or same failure kind out.
func ParseAmount(text string) (float64, error) {
	var raw string
	for _, pattern := range amountPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			raw = m[1]
			break
		}
	}

	if raw == "" {
		return 0, newError(KindAmountNotFound,
			"Montant non trouvé. Vérifiez que le ticket montre clairement le montant total.")
	}

	// Strip the thousands separator and normalize the decimal marker.
	normalized := strings.ReplaceAll(raw, " ", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")

	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil || amount <= 0 {
		return 0, newError(KindInvalidAmount, "Montant invalide détecté")
	}

	return amount, nil
}
