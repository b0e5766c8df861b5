package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// MinColorDistance is the smallest RGB distance allowed between palette slots.
const MinColorDistance = 50.0

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Distance is the Euclidean distance between two colors in RGB space.
func (c RGB) Distance(o RGB) float64 {
	dr := float64(c.R) - float64(o.R)
	dg := float64(c.G) - float64(o.G)
	db := float64(c.B) - float64(o.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// ParseHex parses #rgb or #rrggbb.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, eris.Errorf("palette: bad hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, eris.Wrapf(err, "palette: bad hex color %q", s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// ColorPalette holds the four brand color slots.
type ColorPalette struct {
	Accent       string `json:"accent"`
	Banner       string `json:"banner"`
	FaintColor   string `json:"faint-color"`
	SecondAccent string `json:"second-accent"`
}

// Slots returns the palette values in slot order.
func (p ColorPalette) Slots() []string {
	return []string{p.Accent, p.Banner, p.FaintColor, p.SecondAccent}
}

// Validate checks that every slot parses and that slots are pairwise at
// least MinColorDistance apart.
func (p ColorPalette) Validate() error {
	slots := p.Slots()
	colors := make([]RGB, len(slots))
	for i, s := range slots {
		c, err := ParseHex(s)
		if err != nil {
			return err
		}
		colors[i] = c
	}
	for i := range colors {
		for j := i + 1; j < len(colors); j++ {
			if d := colors[i].Distance(colors[j]); d < MinColorDistance {
				return eris.Errorf("palette: %s and %s are %.1f apart", slots[i], slots[j], d)
			}
		}
	}
	return nil
}
