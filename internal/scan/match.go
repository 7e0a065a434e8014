package scan

import (
	"strings"
	"unicode/utf8"

	"github.com/chervince/mon-projet/internal/model"
)

// DefaultMinMatchScore is the confidence floor below which an identification
// is rejected.
const DefaultMinMatchScore = 3

// ScoreMerchant computes the keyword-overlap score of one merchant against
// the lowercased receipt text. Each whitespace-separated keyword of the
// merchant name longer than 2 runes that occurs in the text contributes its
// rune length; longer keywords weigh more because short ones produce false
// positives.
func ScoreMerchant(textLower string, merchant *model.Merchant) int {
	score := 0
	for _, keyword := range strings.Fields(strings.ToLower(merchant.Name)) {
		length := utf8.RuneCountInString(keyword)
		if length > 2 && strings.Contains(textLower, keyword) {
			score += length
		}
	}
	return score
}

// MatchMerchant picks the catalog merchant whose name keywords best overlap
// the recognized text. The first merchant reaching the maximum score wins
// ties, so the catalog must be iterated in stable order. minScore <= 0 falls
// back to DefaultMinMatchScore.
func MatchMerchant(text string, merchants []model.Merchant, minScore int) (*model.Merchant, int, error) {
	if minScore <= 0 {
		minScore = DefaultMinMatchScore
	}

	textLower := strings.ToLower(text)

	var best *model.Merchant
	bestScore := 0
	for i := range merchants {
		score := ScoreMerchant(textLower, &merchants[i])
		if score > bestScore {
			bestScore = score
			best = &merchants[i]
		}
	}

	if best == nil || bestScore < minScore {
		return nil, 0, newError(KindMerchantNotIdentified,
			"Marchand non reconnu. Ce ticket ne semble pas provenir d'un de nos partenaires.")
	}

	return best, bestScore, nil
}
