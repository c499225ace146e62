package thumbnail

import (
	"image"
	"math"
)

// Rec. 601 luma coefficients
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Metrics are the raw quality measurements of one rendered frame.
type Metrics struct {
	// Brightness is the mean normalized luminance, in [0,1].
	Brightness float64
	// Contrast is the population standard deviation of normalized luminance.
	Contrast float64
	// Sharpness is the mean absolute 4-neighbour Laplacian of 0-255 luminance,
	// sampled every other row and column inside a 1-pixel border.
	Sharpness float64
}

// Measure computes brightness, contrast and sharpness for img.
func Measure(img image.Image) Metrics {
	luma, w, h := luminance(img)
	if len(luma) == 0 {
		return Metrics{}
	}

	var sum float64
	for _, l := range luma {
		sum += l
	}
	mean := sum / float64(len(luma))

	var sq float64
	for _, l := range luma {
		d := l - mean
		sq += d * d
	}

	return Metrics{
		Brightness: mean,
		Contrast:   math.Sqrt(sq / float64(len(luma))),
		Sharpness:  laplacian(luma, w, h),
	}
}

// laplacian works on luminance scaled back to 0-255.
func laplacian(luma []float64, w, h int) float64 {
	var total float64
	var samples int

	for y := 1; y < h-1; y += 2 {
		for x := 1; x < w-1; x += 2 {
			i := y*w + x
			center := luma[i]
			v := luma[i-w] + luma[i+w] + luma[i-1] + luma[i+1] - 4*center
			total += math.Abs(v) * 255
			samples++
		}
	}

	if samples == 0 {
		return 0
	}
	return total / float64(samples)
}

// luminance returns row-major normalized luminance for every pixel.
func luminance(img image.Image) ([]float64, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}

	luma := make([]float64, w*h)

	switch src := img.(type) {
	case *image.RGBA:
		fillFromPix(luma, src.Pix, src.Stride, w, h, src.PixOffset(b.Min.X, b.Min.Y))
	case *image.NRGBA:
		fillFromPix(luma, src.Pix, src.Stride, w, h, src.PixOffset(b.Min.X, b.Min.Y))
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				luma[y*w+x] = (lumaR*float64(r>>8) + lumaG*float64(g>>8) + lumaB*float64(bl>>8)) / 255
			}
		}
	}

	return luma, w, h
}

func fillFromPix(luma []float64, pix []uint8, stride, w, h, start int) {
	for y := 0; y < h; y++ {
		row := start + y*stride
		for x := 0; x < w; x++ {
			i := row + x*4
			luma[y*w+x] = (lumaR*float64(pix[i]) + lumaG*float64(pix[i+1]) + lumaB*float64(pix[i+2])) / 255
		}
	}
}
