package analyzer

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// raster is a downscaled frame in the two color spaces the heuristics
// work in: 8-bit grayscale and mean-RGB.
type raster struct {
	gray []uint8
	w, h int

	meanR, meanG, meanB float64
}

// newRaster downscales img by scale and precomputes grayscale pixels and
// per-channel means.
func newRaster(img image.Image, scale float64) *raster {
	b := img.Bounds()
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)

	r := &raster{
		gray: make([]uint8, w*h),
		w:    w,
		h:    h,
	}

	var sumR, sumG, sumB float64
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			pr := row[x*4]
			pg := row[x*4+1]
			pb := row[x*4+2]
			sumR += float64(pr)
			sumG += float64(pg)
			sumB += float64(pb)

			// ITU-R BT.601 luma.
			r.gray[y*w+x] = uint8((299*int(pr) + 587*int(pg) + 114*int(pb)) / 1000)
		}
	}

	n := float64(w * h)
	r.meanR = sumR / n
	r.meanG = sumG / n
	r.meanB = sumB / n
	return r
}

// brightness is the mean grayscale value normalized to [0,1].
func (r *raster) brightness() float64 {
	var sum int
	for _, v := range r.gray {
		sum += int(v)
	}
	return float64(sum) / float64(len(r.gray)) / 255.0
}
