package led

import "math"

// WhiteCap scales each RGB triplet so r+g+b <= limit*3*255. It bounds the
// current a directly powered strip draws on full white. A limit outside
// (0, 1) leaves rgb untouched.
func WhiteCap(rgb []byte, limit float64) {
	if limit <= 0 || limit >= 1 {
		return
	}
	budget := limit * 3.0 * 255.0
	for i := 0; i+2 < len(rgb); i += 3 {
		s := float64(rgb[i]) + float64(rgb[i+1]) + float64(rgb[i+2])
		if s > budget {
			scale := budget / s
			rgb[i] = byte(math.Floor(float64(rgb[i]) * scale))
			rgb[i+1] = byte(math.Floor(float64(rgb[i+1]) * scale))
			rgb[i+2] = byte(math.Floor(float64(rgb[i+2]) * scale))
		}
	}
}
