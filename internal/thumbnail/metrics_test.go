package thumbnail

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniformFrame(w, h int, gray uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = gray, gray, gray, 255
	}
	return img
}

func checkerFrame(w, h int, lo, hi uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := lo
			if (x+y)%2 == 0 {
				v = hi
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestMeasureUniform(t *testing.T) {
	m := Measure(uniformFrame(16, 16, 128))

	assert.InDelta(t, 128.0/255, m.Brightness, 1e-6)
	assert.InDelta(t, 0, m.Contrast, 1e-9)
	assert.InDelta(t, 0, m.Sharpness, 1e-6)
}

func TestMeasureBlackAndWhite(t *testing.T) {
	black := Measure(uniformFrame(8, 8, 0))
	assert.Equal(t, 0.0, black.Brightness)

	white := Measure(uniformFrame(8, 8, 255))
	assert.InDelta(t, 1.0, white.Brightness, 1e-6)
}

func TestMeasureCheckerboard(t *testing.T) {
	m := Measure(checkerFrame(16, 16, 0, 255))

	assert.InDelta(t, 0.5, m.Brightness, 1e-6)
	assert.InDelta(t, 0.5, m.Contrast, 1e-6)
	// Every sampled pixel differs from its four neighbours by the full range.
	assert.InDelta(t, 4*255.0, m.Sharpness, 1e-3)
}

func TestMeasureUsesLumaWeights(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 255, 0, 0, 255
	}

	assert.InDelta(t, 0.299, Measure(img).Brightness, 1e-6)
}

func TestMeasureSubImageAndGenericImage(t *testing.T) {
	full := checkerFrame(20, 20, 0, 255)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			full.SetRGBA(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}

	sub := full.SubImage(image.Rect(0, 0, 10, 10))
	m := Measure(sub)
	assert.InDelta(t, 200.0/255, m.Brightness, 1e-6)
	assert.InDelta(t, 0, m.Sharpness, 1e-6)

	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range gray.Pix {
		gray.Pix[i] = 51
	}
	assert.InDelta(t, 0.2, Measure(gray).Brightness, 1e-6)
}

func TestMeasureTinyFrames(t *testing.T) {
	assert.Equal(t, Metrics{}, Measure(image.NewRGBA(image.Rect(0, 0, 0, 0))))

	// Too small for an interior pixel: sharpness is zero, not NaN.
	m := Measure(checkerFrame(2, 2, 0, 255))
	assert.Equal(t, 0.0, m.Sharpness)
}
