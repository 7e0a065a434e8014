package scan

import (
	"errors"
	"strings"
	"testing"

	"github.com/chervince/mon-projet/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []model.Merchant {
	return []model.Merchant{
		{ID: 1, Name: "Lulu's Café", CreditPercentage: 10, Threshold: 2000, ValidityMonths: 6, MerchantCode: "LULU"},
		{ID: 2, Name: "Super Marché NC", CreditPercentage: 5, Threshold: 5000, ValidityMonths: 3, MerchantCode: "SMNC"},
		{ID: 3, Name: "Boulangerie du Port", CreditPercentage: 8, Threshold: 1500, ValidityMonths: 4, MerchantCode: "BDLP"},
	}
}

func TestMatchMerchant(t *testing.T) {
	merchants := testCatalog()

	merchant, score, err := MatchMerchant("LULU'S CAFÉ\nTOTAL: 1 500 XPF", merchants, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(1), merchant.ID)
	// "lulu's" (6) + "café" (4)
	assert.Equal(t, 10, score)
}

func TestMatchMerchantPicksBestScore(t *testing.T) {
	merchants := testCatalog()

	// "marché" (6) + "super" (5) beats "boulangerie" absent.
	merchant, _, err := MatchMerchant("SUPER MARCHÉ NC ticket de caisse", merchants, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(2), merchant.ID)
}

func TestMatchMerchantIgnoresShortKeywords(t *testing.T) {
	merchants := []model.Merchant{
		{ID: 1, Name: "NC Go"},
	}

	// Both keywords are 2 runes: nothing can ever score.
	_, _, err := MatchMerchant("NC GO TOTAL 1 000 F", merchants, 0)
	require.Error(t, err)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindMerchantNotIdentified, se.Kind)
}

func TestMatchMerchantConfidenceFloor(t *testing.T) {
	merchants := testCatalog()

	// No merchant keyword occurs in the text.
	_, _, err := MatchMerchant("SNACK CHEZ PIERROT TOTAL 900 F", merchants, 0)
	require.Error(t, err)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindMerchantNotIdentified, se.Kind)
}

func TestMatchMerchantEmptyCatalog(t *testing.T) {
	_, _, err := MatchMerchant("LULU'S CAFÉ TOTAL 900 F", nil, 0)
	require.Error(t, err)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindMerchantNotIdentified, se.Kind)
}

func TestMatchMerchantTieFirstWins(t *testing.T) {
	merchants := []model.Merchant{
		{ID: 1, Name: "Café Central"},
		{ID: 2, Name: "Café Royal"},
	}

	// Only "café" matches for both; the first catalog entry wins the tie.
	merchant, score, err := MatchMerchant("CAFÉ ticket TOTAL 900 F", merchants, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(1), merchant.ID)
	assert.Equal(t, 4, score)
}

func TestScoreMonotonicity(t *testing.T) {
	merchant := &model.Merchant{ID: 1, Name: "Super Marché NC"}

	base := "ticket de caisse super"
	baseScore := ScoreMerchant(strings.ToLower(base), merchant)

	// Adding more matching keywords never decreases the score.
	extended := base + " marché"
	extendedScore := ScoreMerchant(strings.ToLower(extended), merchant)

	assert.GreaterOrEqual(t, extendedScore, baseScore)
	assert.Equal(t, 5, baseScore)
	assert.Equal(t, 11, extendedScore)
}
