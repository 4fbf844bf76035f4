// Package colors converts between the hex colors stored in project configs
// and the CSS forms used by the exporter and the editor.
package colors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrInvalidHex = errors.New("invalid hex color")

// ParseHex parses "#rgb" or "#rrggbb" (case-insensitive, leading # optional).
func ParseHex(s string) (r, g, b uint8, err error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w %q", ErrInvalidHex, s)
	}
	r, g, b = c.RGB255()
	return r, g, b, nil
}

// ToHex formats components as "#RRGGBB".
func ToHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// Normalize rewrites any parseable hex color to "#RRGGBB".
func Normalize(s string) (string, error) {
	r, g, b, err := ParseHex(s)
	if err != nil {
		return "", err
	}
	return ToHex(r, g, b), nil
}

// ClampAlpha limits a to [0, 1].
func ClampAlpha(a float64) float64 {
	return min(max(a, 0), 1)
}

// CSSRGBA renders hex plus alpha as "rgba(R,G,B,A)" with the alpha clamped
// and printed to three decimals. Unparseable colors render as black.
func CSSRGBA(hex string, alpha float64) string {
	r, g, b, err := ParseHex(hex)
	if err != nil {
		r, g, b = 0, 0, 0
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", r, g, b, ClampAlpha(alpha))
}

// ParseRGBA is the inverse of CSSRGBA. It also accepts "rgb(r,g,b)".
func ParseRGBA(css string) (hex string, alpha float64, err error) {
	s := strings.ReplaceAll(strings.TrimSpace(css), " ", "")
	var body string
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		body = s[5 : len(s)-1]
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		body = s[4 : len(s)-1]
	default:
		return "", 0, fmt.Errorf("parse %q: not an rgb()/rgba() color", css)
	}

	parts := strings.Split(body, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return "", 0, fmt.Errorf("parse %q: expected 3 or 4 components", css)
	}
	var comp [3]uint8
	for i := range 3 {
		v, err := strconv.Atoi(parts[i])
		if err != nil || v < 0 || v > 255 {
			return "", 0, fmt.Errorf("parse %q: bad component %q", css, parts[i])
		}
		comp[i] = uint8(v)
	}
	alpha = 1
	if len(parts) == 4 {
		alpha, err = strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return "", 0, fmt.Errorf("parse %q: bad alpha: %w", css, err)
		}
	}
	return ToHex(comp[0], comp[1], comp[2]), ClampAlpha(alpha), nil
}
