package intake

import (
	"image"

	"github.com/menta2k/sys2doc/pkg/types"
)

// ModeOf reports the color mode of a decoded bitmap
func ModeOf(img image.Image) types.ColorMode {
	switch img.(type) {
	case *RGB:
		return types.ModeRGB
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return types.ModeRGBA
	case *image.Paletted:
		return types.ModePalette
	case *image.Gray:
		return types.ModeGray
	case *image.Gray16:
		return types.ModeGray16
	case *image.CMYK:
		return types.ModeCMYK
	case *image.YCbCr:
		return types.ModeYCbCr
	case *image.NYCbCrA:
		return types.ModeYCbCrA
	default:
		return types.ModeUnknown
	}
}

// NeedsNormalization reports whether a mode carries alpha or a palette
func NeedsNormalization(mode types.ColorMode) bool {
	switch mode {
	case types.ModeRGBA, types.ModePalette, types.ModeYCbCrA:
		return true
	}
	return false
}

// Normalize converts alpha-channel and palette-indexed bitmaps to three
// channel truecolor. Every other bitmap is returned as is.
func Normalize(img image.Image) image.Image {
	if !NeedsNormalization(ModeOf(img)) {
		return img
	}
	return ToRGB(img)
}
