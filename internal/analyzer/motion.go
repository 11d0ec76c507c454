package analyzer

import "github.com/framesight/framesight/internal/models"

// detectMotion compares two equally sized grayscale rasters. Intensity is
// the fraction of pixels whose absolute difference exceeds the motion
// threshold; regions are the bounding boxes of changed-pixel blobs above
// the minimum area.
func detectMotion(current, previous *raster, cfg Config) models.MotionInfo {
	if current.w != previous.w || current.h != previous.h {
		// Mismatched dimensions mean the source changed resolution
		// mid-stream; treat as no usable motion signal.
		return models.MotionInfo{}
	}

	mask := make([]bool, len(current.gray))
	changed := 0
	for i := range current.gray {
		d := int(current.gray[i]) - int(previous.gray[i])
		if d < 0 {
			d = -d
		}
		if d > cfg.MotionThreshold {
			mask[i] = true
			changed++
		}
	}

	intensity := float64(changed) / float64(len(mask))
	info := models.MotionInfo{Intensity: intensity}
	if intensity <= cfg.MotionFloor {
		return info
	}

	info.Detected = true
	for _, b := range findBlobs(mask, current.w, current.h, cfg.MinBlobArea+1) {
		info.Regions = append(info.Regions, b.box)
	}
	return info
}
