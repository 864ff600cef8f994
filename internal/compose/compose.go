package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// FillMode controls what the border regions of the canvas contain before
// outpainting. The mask marks them as fill-me either way.
type FillMode string

const (
	// FillBlank leaves the borders fully transparent.
	FillBlank FillMode = "blank"
	// FillBlur pre-fills the whole canvas with a blurred stretch of the base
	// image, so the outpainting model sees plausible edge colors.
	FillBlur FillMode = "blur"
)

// ParseFillMode validates a fill mode selector.
func ParseFillMode(s string) (FillMode, error) {
	switch FillMode(s) {
	case FillBlank, FillBlur:
		return FillMode(s), nil
	default:
		return "", fmt.Errorf("unknown edge fill mode %q (supported: blank, blur)", s)
	}
}

// Compose places base centered in a finalW x finalH canvas and builds the
// matching mask: black over the preserved base region, white over the borders
// to be outpainted.
//
// The centering offset is floor((final-base)/2) per axis; an odd difference
// leaves the extra pixel on the trailing border. Canvas and mask use the same
// offset, and the whole transformation is deterministic.
func Compose(base image.Image, finalW, finalH int, fill FillMode) (*image.RGBA, *image.Gray, error) {
	bounds := base.Bounds()
	bw, bh := bounds.Dx(), bounds.Dy()

	if bw <= 0 || bh <= 0 {
		return nil, nil, fmt.Errorf("base image is empty (%dx%d)", bw, bh)
	}
	if bw > finalW || bh > finalH {
		return nil, nil, fmt.Errorf("base image %dx%d exceeds final canvas %dx%d", bw, bh, finalW, finalH)
	}

	offX := (finalW - bw) / 2
	offY := (finalH - bh) / 2
	region := image.Rect(offX, offY, offX+bw, offY+bh)

	canvas := image.NewRGBA(image.Rect(0, 0, finalW, finalH))
	if fill == FillBlur {
		fillBlurred(canvas, base)
	}
	draw.Draw(canvas, region, base, bounds.Min, draw.Src)

	mask := image.NewGray(image.Rect(0, 0, finalW, finalH))
	draw.Draw(mask, mask.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(mask, region, image.NewUniform(color.Black), image.Point{}, draw.Src)

	return canvas, mask, nil
}

// fillBlurred stretches a heavily downscaled copy of base over the whole
// canvas. The downscale/upscale round trip stands in for a gaussian blur:
// high frequencies are gone after the first pass, and the bilinear upscale
// smears what is left across the borders.
func fillBlurred(canvas *image.RGBA, base image.Image) {
	bounds := base.Bounds()
	sw := bounds.Dx() / 16
	sh := bounds.Dy() / 16
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}

	small := image.NewRGBA(image.Rect(0, 0, sw, sh))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), base, bounds, xdraw.Src, nil)
	xdraw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), small, small.Bounds(), xdraw.Src, nil)
}

// EncodePNG serializes an image for upload or debug persistence.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses image bytes in any registered format and reports the pixel
// dimensions alongside the image.
func Decode(data []byte) (image.Image, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	return img, b.Dx(), b.Dy(), nil
}
