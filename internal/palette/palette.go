// Package palette derives the four brand color slots from a logo.
package palette

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/sells-group/roofsite-cli/internal/model"
)

const (
	sampleSize  = 64
	alphaCutoff = 128
	nearWhite   = 235
	nearBlack   = 20
	bucketShift = 4
	bannerShade = 0.45
	faintMix    = 0.85
)

// Fallback colors are pairwise at least 100 apart, so any three chosen
// slots exclude at most three of them and one always remains free.
var Fallback = []model.RGB{
	{R: 31, G: 78, B: 121},   // navy
	{R: 20, G: 20, B: 20},    // charcoal
	{R: 238, G: 242, B: 246}, // mist
	{R: 224, G: 123, B: 36},  // orange
	{R: 190, G: 20, B: 40},   // red
	{R: 60, G: 170, B: 60},   // green
	{R: 240, G: 220, B: 90},  // gold
	{R: 150, G: 30, B: 200},  // purple
}

// Default returns the palette used when no logo colors are available.
func Default() model.ColorPalette {
	return build(nil)
}

// FromLogo decodes data and extracts the palette. Undecodable or colorless
// logos yield the default palette with a fallback outcome.
func FromLogo(data []byte) (model.ColorPalette, model.Outcome) {
	img, err := Decode(data)
	if err != nil {
		zap.L().Warn("palette: logo not decodable, using default palette", zap.Error(err))
		return Default(), model.Fallback("palette", model.ReasonParse, err)
	}
	colors := Dominant(img)
	if len(colors) == 0 {
		zap.L().Warn("palette: logo has no usable colors, using default palette")
		return Default(), model.Fallback("palette", model.ReasonNoInput, eris.New("palette: no usable pixels"))
	}
	return build(colors), model.OK()
}

// Decode reads a png, jpeg, gif, or webp image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "palette: decode logo")
	}
	return img, nil
}

type bucket struct {
	key        int
	r, g, b, n int
}

// Dominant returns the logo's colors ordered by pixel share, skipping
// transparent, near-white, and near-black pixels and merging colors closer
// than model.MinColorDistance.
func Dominant(img image.Image) []model.RGB {
	src := img.Bounds()
	w, h := min(src.Dx(), sampleSize), min(src.Dy(), sampleSize)
	if w == 0 || h == 0 {
		return nil
	}
	small := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, src, draw.Src, nil)

	buckets := map[int]*bucket{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := small.NRGBAAt(x, y)
			if c.A < alphaCutoff {
				continue
			}
			lo := min(c.R, c.G, c.B)
			hi := max(c.R, c.G, c.B)
			if lo > nearWhite || hi < nearBlack {
				continue
			}
			key := int(c.R>>bucketShift)<<8 | int(c.G>>bucketShift)<<4 | int(c.B>>bucketShift)
			bk, ok := buckets[key]
			if !ok {
				bk = &bucket{key: key}
				buckets[key] = bk
			}
			bk.r += int(c.R)
			bk.g += int(c.G)
			bk.b += int(c.B)
			bk.n++
		}
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		ranked = append(ranked, bk)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].key < ranked[j].key
	})

	var out []model.RGB
	for _, bk := range ranked {
		c := model.RGB{R: uint8(bk.r / bk.n), G: uint8(bk.g / bk.n), B: uint8(bk.b / bk.n)}
		if farFromAll(c, out) {
			out = append(out, c)
		}
	}
	return out
}

// build fills the slots from the dominant colors. Accent is the dominant
// color, banner a darker shade of it, faint a near-white tint of it, and
// second-accent the next dominant color. A slot closer than the minimum
// distance to an earlier slot takes the next free candidate instead.
func build(colors []model.RGB) model.ColorPalette {
	accent := Fallback[0]
	if len(colors) > 0 {
		accent = colors[0]
	}
	second := Fallback[3]
	if len(colors) > 1 {
		second = colors[1]
	}
	wanted := []model.RGB{accent, shade(accent, bannerShade), tint(accent, faintMix), second}

	var pool []model.RGB
	if len(colors) > 2 {
		pool = append(pool, colors[2:]...)
	}
	pool = append(pool, Fallback...)

	chosen := make([]model.RGB, 0, len(wanted))
	for _, c := range wanted {
		if !farFromAll(c, chosen) {
			c = firstFree(pool, chosen)
		}
		chosen = append(chosen, c)
	}
	return model.ColorPalette{
		Accent:       chosen[0].Hex(),
		Banner:       chosen[1].Hex(),
		FaintColor:   chosen[2].Hex(),
		SecondAccent: chosen[3].Hex(),
	}
}

func firstFree(pool, chosen []model.RGB) model.RGB {
	for _, c := range pool {
		if farFromAll(c, chosen) {
			return c
		}
	}
	// Unreachable while Fallback keeps its spacing.
	return Fallback[len(Fallback)-1]
}

func farFromAll(c model.RGB, others []model.RGB) bool {
	for _, o := range others {
		if c.Distance(o) < model.MinColorDistance {
			return false
		}
	}
	return true
}

// shade scales c toward black, keeping factor of its intensity.
func shade(c model.RGB, factor float64) model.RGB {
	return model.RGB{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
	}
}

// tint mixes c with white; amount is the white share.
func tint(c model.RGB, amount float64) model.RGB {
	mix := func(v uint8) uint8 { return uint8(float64(v)*(1-amount) + 255*amount) }
	return model.RGB{R: mix(c.R), G: mix(c.G), B: mix(c.B)}
}
