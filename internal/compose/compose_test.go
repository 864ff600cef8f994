package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var (
	red   = color.RGBA{R: 255, A: 255}
	blank = color.RGBA{}
)

func TestComposeCentering(t *testing.T) {
	t.Run("even horizontal difference splits equally", func(t *testing.T) {
		base := solidImage(1536, 1024, red)

		canvas, mask, err := Compose(base, 1824, 1024, FillBlank)
		require.NoError(t, err)

		// left offset 144, right border 144
		assert.Equal(t, blank, canvas.RGBAAt(143, 512))
		assert.Equal(t, red, canvas.RGBAAt(144, 512))
		assert.Equal(t, red, canvas.RGBAAt(1679, 512))
		assert.Equal(t, blank, canvas.RGBAAt(1680, 512))

		assert.Equal(t, uint8(255), mask.GrayAt(143, 512).Y)
		assert.Equal(t, uint8(0), mask.GrayAt(144, 512).Y)
		assert.Equal(t, uint8(0), mask.GrayAt(1679, 512).Y)
		assert.Equal(t, uint8(255), mask.GrayAt(1680, 512).Y)
	})

	t.Run("odd difference leaves the extra pixel on the trailing edge", func(t *testing.T) {
		base := solidImage(1535, 1024, red)

		canvas, mask, err := Compose(base, 1824, 1024, FillBlank)
		require.NoError(t, err)

		// left offset 144, right border 145
		assert.Equal(t, blank, canvas.RGBAAt(143, 0))
		assert.Equal(t, red, canvas.RGBAAt(144, 0))
		assert.Equal(t, red, canvas.RGBAAt(1678, 0))
		assert.Equal(t, blank, canvas.RGBAAt(1679, 0))

		assert.Equal(t, uint8(0), mask.GrayAt(144, 0).Y)
		assert.Equal(t, uint8(255), mask.GrayAt(1679, 0).Y)
	})

	t.Run("vertical extension offsets the vertical axis only", func(t *testing.T) {
		base := solidImage(1024, 1536, red)

		canvas, mask, err := Compose(base, 1024, 1824, FillBlank)
		require.NoError(t, err)

		assert.Equal(t, blank, canvas.RGBAAt(512, 143))
		assert.Equal(t, red, canvas.RGBAAt(512, 144))
		assert.Equal(t, red, canvas.RGBAAt(512, 1679))
		assert.Equal(t, blank, canvas.RGBAAt(512, 1680))

		assert.Equal(t, red, canvas.RGBAAt(0, 144), "no horizontal offset")
		assert.Equal(t, uint8(0), mask.GrayAt(0, 144).Y)
	})
}

func TestComposeDeterminism(t *testing.T) {
	base := solidImage(30, 20, color.RGBA{R: 10, G: 200, B: 30, A: 255})
	base.SetRGBA(3, 4, color.RGBA{R: 250, G: 5, B: 120, A: 255})

	for _, fill := range []FillMode{FillBlank, FillBlur} {
		first, firstMask, err := Compose(base, 40, 20, fill)
		require.NoError(t, err)
		second, secondMask, err := Compose(base, 40, 20, fill)
		require.NoError(t, err)

		firstPNG, err := EncodePNG(first)
		require.NoError(t, err)
		secondPNG, err := EncodePNG(second)
		require.NoError(t, err)

		assert.Equal(t, firstPNG, secondPNG, "canvas bytes differ for fill=%s", fill)
		assert.Equal(t, firstMask.Pix, secondMask.Pix, "mask pixels differ for fill=%s", fill)
	}
}

func TestComposeBlurFill(t *testing.T) {
	base := solidImage(30, 20, red)

	canvas, mask, err := Compose(base, 40, 20, FillBlur)
	require.NoError(t, err)

	// A solid base blurs to the same color, so the borders are pre-filled
	// rather than transparent.
	border := canvas.RGBAAt(0, 10)
	assert.NotEqual(t, blank, border)
	assert.Equal(t, uint8(255), border.A)

	// Mask is unaffected by the fill mode.
	assert.Equal(t, uint8(255), mask.GrayAt(0, 10).Y)
	assert.Equal(t, uint8(0), mask.GrayAt(20, 10).Y)
}

func TestComposeRejectsOversizedBase(t *testing.T) {
	base := solidImage(50, 20, red)

	_, _, err := Compose(base, 40, 20, FillBlank)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	base := solidImage(8, 6, red)

	data, err := EncodePNG(base)
	require.NoError(t, err)

	_, w, h, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 8, w)
	assert.Equal(t, 6, h)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, _, err := Decode([]byte("not an image"))
	require.Error(t, err)
}

func TestParseFillMode(t *testing.T) {
	for _, valid := range []string{"blank", "blur"} {
		mode, err := ParseFillMode(valid)
		require.NoError(t, err)
		assert.Equal(t, FillMode(valid), mode)
	}

	_, err := ParseFillMode("gradient")
	require.Error(t, err)
}
