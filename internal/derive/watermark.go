package derive

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"kiln/internal/config"
)

// applyWatermark composites a tiled, rotated, semi-transparent text overlay
// onto img. The output depends only on the image dimensions and the watermark
// parameters, keeping derivative bytes reproducible.
func applyWatermark(img image.Image, wm config.Watermark) image.Image {
	bounds := img.Bounds()
	base := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(base, base.Bounds(), img, bounds.Min, draw.Src)

	mask, scale := renderTextMask(wm.Text, bounds)
	if mask == nil {
		return base
	}
	maskW := mask.Bounds().Dx() * scale
	maskH := mask.Bounds().Dy() * scale
	stepX := maskW + int(float64(maskW)*wm.SpacingRatio)
	stepY := maskH + int(float64(maskH)*wm.SpacingRatio)
	if stepX < 1 || stepY < 1 {
		return base
	}

	r, g, b := parseHexColor(wm.Color)
	opacity := float64(wm.Opacity) / 255.0
	angle := wm.Angle * math.Pi / 180.0
	sin, cos := math.Sincos(angle)
	cx := float64(bounds.Dx()) / 2
	cy := float64(bounds.Dy()) / 2

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			// Rotate around the image center into overlay space, then tile.
			dx := float64(x) - cx
			dy := float64(y) - cy
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			tu := positiveMod(int(math.Floor(u)), stepX)
			tv := positiveMod(int(math.Floor(v)), stepY)
			if tu >= maskW || tv >= maskH {
				continue
			}
			alpha := mask.AlphaAt(tu/scale, tv/scale).A
			if alpha == 0 {
				continue
			}
			blend(base, x, y, r, g, b, opacity*float64(alpha)/255.0)
		}
	}
	return base
}

// renderTextMask draws the watermark text once into an alpha mask and picks
// an integer upscale factor so the overlay stays legible on large images.
func renderTextMask(text string, bounds image.Rectangle) (*image.Alpha, int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, 1
	}
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()
	if width < 1 || height < 1 {
		return nil, 1
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	drawer := font.Drawer{
		Dst:  mask,
		Src:  image.NewUniform(color.Alpha{A: 255}),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(text)

	shorter := bounds.Dx()
	if bounds.Dy() < shorter {
		shorter = bounds.Dy()
	}
	// Aim for text roughly 1/24th of the shorter edge.
	scale := shorter / 24 / height
	if scale < 1 {
		scale = 1
	}
	return mask, scale
}

func blend(dst *image.RGBA, x, y int, r, g, b uint8, alpha float64) {
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	existing := dst.RGBAAt(x, y)
	mix := func(over uint8, under uint8) uint8 {
		return uint8(float64(over)*alpha + float64(under)*(1-alpha))
	}
	dst.SetRGBA(x, y, color.RGBA{
		R: mix(r, existing.R),
		G: mix(g, existing.G),
		B: mix(b, existing.B),
		A: existing.A,
	})
}

func positiveMod(value, mod int) int {
	result := value % mod
	if result < 0 {
		result += mod
	}
	return result
}

func parseHexColor(value string) (uint8, uint8, uint8) {
	text := strings.TrimPrefix(strings.TrimSpace(value), "#")
	parse := func(s string) uint8 {
		var n uint16
		for _, c := range s {
			n <<= 4
			switch {
			case c >= '0' && c <= '9':
				n += uint16(c - '0')
			case c >= 'a' && c <= 'f':
				n += uint16(c-'a') + 10
			case c >= 'A' && c <= 'F':
				n += uint16(c-'A') + 10
			}
		}
		return uint8(n)
	}
	switch len(text) {
	case 3:
		return parse(string([]byte{text[0], text[0]})), parse(string([]byte{text[1], text[1]})), parse(string([]byte{text[2], text[2]}))
	case 6:
		return parse(text[0:2]), parse(text[2:4]), parse(text[4:6])
	default:
		return 255, 255, 255
	}
}
