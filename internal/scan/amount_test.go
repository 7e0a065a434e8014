package scan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{
			name: "label with thousands separator",
			text: "TOTAL: 1 500 XPF",
			want: 1500.0,
		},
		{
			name: "montant label with decimal comma",
			text: "montant à payer 2 345,50 F",
			want: 2345.50,
		},
		{
			name: "net a payer label",
			text: "NET À PAYER : 4 750 F",
			want: 4750.0,
		},
		{
			name: "labeled amount beats earlier unlabeled number",
			text: "Article 250 F\nTOTAL: 1 000 F",
			want: 1000.0,
		},
		{
			name: "bare number with currency marker",
			text: "merci de votre visite 840 XPF",
			want: 840.0,
		},
		{
			name: "francs marker",
			text: "a payer: 500 francs",
			want: 500.0,
		},
		{
			name: "decimal period",
			text: "TOTAL 99.50 F",
			want: 99.50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmountFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind ErrorKind
	}{
		{
			name: "no numbers at all",
			text: "no numbers here",
			kind: KindAmountNotFound,
		},
		{
			name: "number without currency marker",
			text: "ticket 1234",
			kind: KindAmountNotFound,
		},
		{
			name: "empty text",
			text: "",
			kind: KindAmountNotFound,
		},
		{
			name: "zero amount",
			text: "TOTAL: 0 XPF",
			kind: KindInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAmount(tt.text)
			require.Error(t, err)

			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.kind, se.Kind)
		})
	}
}

func TestParseAmountDeterminism(t *testing.T) {
	// Pure function: the same text always yields the same amount.
	const text = "montant à payer 2 345,50 F"
	first, err := ParseAmount(text)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		got, err := ParseAmount(text)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}
