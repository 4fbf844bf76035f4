package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSSRGBA(t *testing.T) {
	tests := []struct {
		hex   string
		alpha float64
		want  string
	}{
		{"#FF0000", 0.5, "rgba(255,0,0,0.500)"},
		{"#00ff80", 1, "rgba(0,255,128,1.000)"},
		{"#fff", 0.25, "rgba(255,255,255,0.250)"},
		{"#123456", 1.7, "rgba(18,52,86,1.000)"},
		{"#123456", -2, "rgba(18,52,86,0.000)"},
		{"not-a-color", 0.1, "rgba(0,0,0,0.100)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CSSRGBA(tt.hex, tt.alpha), tt.hex)
	}
}

func TestParseHex(t *testing.T) {
	r, g, b, err := ParseHex("a0B0c0")
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{0xa0, 0xb0, 0xc0}, [3]uint8{r, g, b})

	_, _, _, err = ParseHex("#zzz")
	assert.ErrorIs(t, err, ErrInvalidHex)
}

func TestNormalize(t *testing.T) {
	s, err := Normalize("#abc")
	require.NoError(t, err)
	assert.Equal(t, "#AABBCC", s)
}

func TestParseRGBARoundTrip(t *testing.T) {
	hex, alpha, err := ParseRGBA(CSSRGBA("#10A0FF", 0.3))
	require.NoError(t, err)
	assert.Equal(t, "#10A0FF", hex)
	assert.InDelta(t, 0.3, alpha, 1e-9)

	hex, alpha, err = ParseRGBA("rgb(1, 2, 3)")
	require.NoError(t, err)
	assert.Equal(t, "#010203", hex)
	assert.Equal(t, 1.0, alpha)

	_, _, err = ParseRGBA("hsl(1,2,3)")
	assert.Error(t, err)
}
