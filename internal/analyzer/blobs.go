package analyzer

import "github.com/framesight/framesight/internal/models"

// blob is a 4-connected component of set pixels in a binary mask.
type blob struct {
	area int
	box  models.Box
}

// findBlobs labels the mask with an iterative flood fill and returns one
// blob per connected component. minArea <= 0 keeps everything.
func findBlobs(mask []bool, w, h, minArea int) []blob {
	visited := make([]bool, len(mask))
	var blobs []blob
	var stack []int

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		minX, minY := w, h
		maxX, maxY := 0, 0
		area := 0

		stack = append(stack[:0], start)
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%w, idx/w
			area++
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}

			if x > 0 && mask[idx-1] && !visited[idx-1] {
				visited[idx-1] = true
				stack = append(stack, idx-1)
			}
			if x < w-1 && mask[idx+1] && !visited[idx+1] {
				visited[idx+1] = true
				stack = append(stack, idx+1)
			}
			if y > 0 && mask[idx-w] && !visited[idx-w] {
				visited[idx-w] = true
				stack = append(stack, idx-w)
			}
			if y < h-1 && mask[idx+w] && !visited[idx+w] {
				visited[idx+w] = true
				stack = append(stack, idx+w)
			}
		}

		if area < minArea {
			continue
		}
		blobs = append(blobs, blob{
			area: area,
			box: models.Box{
				X: minX,
				Y: minY,
				W: maxX - minX + 1,
				H: maxY - minY + 1,
			},
		})
	}

	return blobs
}
