package analyzer

import "github.com/framesight/framesight/internal/models"

// findTextCandidates looks for regions plausibly containing a line of
// text: connected edge components whose bounding box fits a text-shaped
// envelope. No characters are recognized; regions are only counted.
func findTextCandidates(r *raster, cfg Config) []models.Box {
	edges := edgeMask(r, cfg.EdgeThreshold)

	var candidates []models.Box
	for _, b := range findBlobs(edges, r.w, r.h, 1) {
		w, h := b.box.W, b.box.H
		if h == 0 {
			continue
		}
		aspect := float64(w) / float64(h)
		if w > textMinWidth && w < textMaxWidth &&
			h > textMinHeight && h < textMaxHeight &&
			aspect > textMinAspect && aspect < textMaxAspect {
			candidates = append(candidates, b.box)
		}
	}
	return candidates
}

// edgeMask marks pixels whose Sobel gradient magnitude exceeds threshold.
// Border pixels are left unset.
func edgeMask(r *raster, threshold int) []bool {
	mask := make([]bool, len(r.gray))
	if r.w < 3 || r.h < 3 {
		return mask
	}

	px := func(x, y int) int { return int(r.gray[y*r.w+x]) }

	for y := 1; y < r.h-1; y++ {
		for x := 1; x < r.w-1; x++ {
			gx := -px(x-1, y-1) + px(x+1, y-1) +
				-2*px(x-1, y) + 2*px(x+1, y) +
				-px(x-1, y+1) + px(x+1, y+1)
			gy := -px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1) +
				px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)

			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			if gx+gy > threshold {
				mask[y*r.w+x] = true
			}
		}
	}
	return mask
}
