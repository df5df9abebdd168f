// Package preview renders product customization previews: a solid color
// multiplied onto the base image wherever the mask image is opaque.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultStrength keeps some of the base texture visible under the tint
const DefaultStrength = 0.85

var ErrEmptyImage = errors.New("image has no pixels")

// Decode reads a PNG, JPEG, GIF or WebP image
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return img, nil
}

// alphaMask scales the mask to the base bounds and keeps only its alpha channel
func alphaMask(mask image.Image, bounds image.Rectangle) *image.Alpha {
	out := image.NewAlpha(bounds)
	if mask.Bounds().Size() == bounds.Size() {
		draw.Draw(out, bounds, mask, mask.Bounds().Min, draw.Src)
		return out
	}
	xdraw.ApproxBiLinear.Scale(out, bounds, mask, mask.Bounds(), xdraw.Src, nil)
	return out
}

// Render tints base with c through mask. strength in [0,1] scales the mask alpha.
func Render(base, mask image.Image, c color.RGBA, strength float64) *image.RGBA {
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}

	b := base.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, base, b.Min, draw.Src)
	alpha := alphaMask(mask, b)

	tr, tg, tb := uint32(c.R), uint32(c.G), uint32(c.B)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := float64(alpha.AlphaAt(x, y).A) / 0xff * strength
			if a == 0 {
				continue
			}
			i := out.PixOffset(x, y)
			px := out.Pix[i : i+3 : i+3]
			// multiply blend keeps shading from the base image
			px[0] = mix(px[0], uint8(uint32(px[0])*tr/0xff), a)
			px[1] = mix(px[1], uint8(uint32(px[1])*tg/0xff), a)
			px[2] = mix(px[2], uint8(uint32(px[2])*tb/0xff), a)
		}
	}
	return out
}

func mix(from, to uint8, a float64) uint8 {
	return uint8(float64(from)*(1-a) + float64(to)*a + 0.5)
}

// EncodePNG renders img as PNG bytes
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
