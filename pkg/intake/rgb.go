package intake

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// RGBModel converts any color to an opaque RGB color by dropping its alpha
// channel. Colors are un-premultiplied first, so the stored red, green and
// blue samples survive unchanged.
var RGBModel color.Model = color.ModelFunc(rgbModel)

func rgbModel(c color.Color) color.Color {
	if rgba, ok := c.(color.RGBA); ok && rgba.A == 0xff {
		return rgba
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: 0xff}
}

// RGB is an in-memory image of three 8-bit samples per pixel: red, green and
// blue, with no alpha channel.
type RGB struct {
	// Pix holds the image's pixels, in R, G, B order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

// NewRGB returns a new RGB image with the given bounds
func NewRGB(r image.Rectangle) *RGB {
	w, h := r.Dx(), r.Dy()
	return &RGB{
		Pix:    make([]uint8, 3*w*h),
		Stride: 3 * w,
		Rect:   r,
	}
}

func (p *RGB) ColorModel() color.Model { return RGBModel }

func (p *RGB) Bounds() image.Rectangle { return p.Rect }

func (p *RGB) At(x, y int) color.Color { return p.RGBAt(x, y) }

func (p *RGB) RGBAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	return color.RGBA{R: s[0], G: s[1], B: s[2], A: 0xff}
}

// PixOffset returns the index of the first element of Pix that corresponds
// to the pixel at (x, y)
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *RGB) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	c1 := RGBModel.Convert(c).(color.RGBA)
	s := p.Pix[i : i+3 : i+3]
	s[0] = c1.R
	s[1] = c1.G
	s[2] = c1.B
}

// Opaque is always true; the PNG encoder uses it to pick 8-bit truecolor
func (p *RGB) Opaque() bool { return true }

// ToRGB copies src into a new RGB image with the same width and height. The
// result's bounds start at the origin.
func ToRGB(src image.Image) *RGB {
	n := imaging.Clone(src)
	w, h := n.Rect.Dx(), n.Rect.Dy()
	dst := NewRGB(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		si := y * n.Stride
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			dst.Pix[di+0] = n.Pix[si+0]
			dst.Pix[di+1] = n.Pix[si+1]
			dst.Pix[di+2] = n.Pix[si+2]
			si += 4
			di += 3
		}
	}

	return dst
}
