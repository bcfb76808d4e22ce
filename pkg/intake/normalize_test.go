package intake

import (
	"image"
	"image/color"
	"image/color/palette"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menta2k/sys2doc/pkg/types"
)

// createTestImage creates a translucent gradient
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.SetNRGBA(x, y, color.NRGBA{r, g, 128, 100})
		}
	}
	return img
}

func createPalettedImage(width, height int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, width, height), palette.Plan9)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetColorIndex(x, y, uint8((x+y)%len(palette.Plan9)))
		}
	}
	return img
}

func TestModeOf(t *testing.T) {
	r := image.Rect(0, 0, 4, 3)
	cases := []struct {
		img  image.Image
		mode types.ColorMode
	}{
		{NewRGB(r), types.ModeRGB},
		{image.NewRGBA(r), types.ModeRGBA},
		{image.NewNRGBA(r), types.ModeRGBA},
		{image.NewRGBA64(r), types.ModeRGBA},
		{image.NewNRGBA64(r), types.ModeRGBA},
		{image.NewPaletted(r, palette.WebSafe), types.ModePalette},
		{image.NewGray(r), types.ModeGray},
		{image.NewGray16(r), types.ModeGray16},
		{image.NewCMYK(r), types.ModeCMYK},
		{image.NewYCbCr(r, image.YCbCrSubsampleRatio420), types.ModeYCbCr},
		{image.NewNYCbCrA(r, image.YCbCrSubsampleRatio420), types.ModeYCbCrA},
		{image.NewUniform(color.White), types.ModeUnknown},
	}
	for _, c := range cases {
		require.Equal(t, c.mode, ModeOf(c.img))
	}
}

func TestNormalize_AlphaBecomesRGB(t *testing.T) {
	src := createTestImage(40, 30)

	out := Normalize(src)
	rgb, ok := out.(*RGB)
	require.True(t, ok, "expected *RGB, got %T", out)
	require.Equal(t, types.ModeRGB, ModeOf(out))
	require.Equal(t, 40, rgb.Bounds().Dx())
	require.Equal(t, 30, rgb.Bounds().Dy())
	require.Len(t, rgb.Pix, 40*30*3)

	// Alpha is dropped, samples are kept
	want := src.NRGBAAt(10, 20)
	got := rgb.RGBAt(10, 20)
	require.Equal(t, color.RGBA{want.R, want.G, want.B, 0xff}, got)
}

func TestNormalize_PremultipliedRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 15, 10))
	src.Set(7, 6, color.NRGBA{200, 100, 50, 128})

	out := Normalize(src).(*RGB)
	require.Equal(t, 10, out.Bounds().Dx())
	require.Equal(t, 5, out.Bounds().Dy())

	c := out.RGBAt(2, 1)
	require.InDelta(t, 200, int(c.R), 2)
	require.InDelta(t, 100, int(c.G), 2)
	require.InDelta(t, 50, int(c.B), 2)
	require.Equal(t, uint8(0xff), c.A)
}

func TestNormalize_PaletteBecomesRGB(t *testing.T) {
	src := createPalettedImage(17, 9)

	out := Normalize(src)
	rgb, ok := out.(*RGB)
	require.True(t, ok)
	require.Equal(t, 17, rgb.Bounds().Dx())
	require.Equal(t, 9, rgb.Bounds().Dy())

	r, g, b, _ := src.At(3, 4).RGBA()
	got := rgb.RGBAt(3, 4)
	require.Equal(t, uint8(r>>8), got.R)
	require.Equal(t, uint8(g>>8), got.G)
	require.Equal(t, uint8(b>>8), got.B)
}

func TestNormalize_AlphaYCbCrBecomesRGB(t *testing.T) {
	src := image.NewNYCbCrA(image.Rect(0, 0, 8, 6), image.YCbCrSubsampleRatio444)

	out := Normalize(src)
	require.Equal(t, types.ModeRGB, ModeOf(out))
	require.Equal(t, src.Bounds().Size(), out.Bounds().Size())
}

func TestNormalize_IdentityForOtherModes(t *testing.T) {
	r := image.Rect(0, 0, 8, 8)
	others := []image.Image{
		NewRGB(r),
		image.NewGray(r),
		image.NewGray16(r),
		image.NewCMYK(r),
		image.NewYCbCr(r, image.YCbCrSubsampleRatio444),
	}
	for _, img := range others {
		require.Same(t, img, Normalize(img), "%T should pass through", img)
	}
}

func TestRGB_SetAndAt(t *testing.T) {
	img := NewRGB(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.NRGBA{10, 20, 30, 0})
	require.Equal(t, color.RGBA{10, 20, 30, 0xff}, img.At(1, 1))

	// Out of bounds writes are ignored, reads are transparent black
	img.Set(5, 5, color.White)
	require.Equal(t, color.RGBA{}, img.At(5, 5))
	require.True(t, img.Opaque())
}
