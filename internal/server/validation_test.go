package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidISBNFormat(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"9780415480635", true},
		{"978-0-415-48063-5", true},
		{"0415480639", true},
		{"080442957X", true},
		{"0-8044-2957-X", true},
		{"080442957x", false},
		{"ABC123XYZ", true},
		{"ABC-123", false},
		{"ABC 123", false},
		{"97804154806A5", false},
		{"", false},
		{"<script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidISBNFormat(tt.id))
		})
	}
}

func TestValidateIDs(t *testing.T) {
	ids, err := ValidateIDs("9780415480635, 9780821417492,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"9780415480635", "9780821417492"}, ids)

	_, err = ValidateIDs("a-1,b-2,c-3,d-4,e-5,f-6")
	require.Error(t, err)
	assert.Equal(t, "invalid ID format: a-1, b-2, c-3, d-4, e-5...", err.Error())
}

func TestValidateProviders(t *testing.T) {
	available := []string{"gb", "aws", "ol"}

	providers, err := ValidateProviders("", available)
	require.NoError(t, err)
	assert.Equal(t, available, providers)

	providers, err = ValidateProviders(" , ", available)
	require.NoError(t, err)
	assert.Equal(t, available, providers)

	providers, err = ValidateProviders("ol,gb", available)
	require.NoError(t, err)
	assert.Equal(t, []string{"ol", "gb"}, providers)

	_, err = ValidateProviders("ol,orb", available)
	require.Error(t, err)
	assert.Equal(t, "invalid providers: orb. Available: gb, aws, ol", err.Error())
}

func TestValidateCallback(t *testing.T) {
	for _, ok := range []string{"cb", "jQuery123_456", "$.fn.cover", "Coce.handle"} {
		assert.NoError(t, ValidateCallback(ok), ok)
	}
	for _, bad := range []string{"", "alert(1)", "a;b", "1abc", "a..b", "a.", "x<y"} {
		assert.ErrorIs(t, ValidateCallback(bad), ErrInvalidCallback, bad)
	}
}
