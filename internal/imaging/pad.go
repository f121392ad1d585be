package imaging

import "fmt"

// Pad surrounds buf with margin rows and columns of Background on every side.
//
// The result measures (Width+2·margin) × (Height+2·margin) and carries the
// original samples unchanged in its centre. Contour tracing relies on this ring
// so that the full 8-neighbourhood of any original pixel can be read without
// bounds checks. The margin must be at least 1.
func Pad(buf *GrayBuffer, margin int) (*GrayBuffer, error) {
	if margin < 1 {
		return nil, fmt.Errorf("padding margin must be at least 1, got %d", margin)
	}

	out := NewGrayBuffer(buf.Width+2*margin, buf.Height+2*margin)
	for y := 0; y < buf.Height; y++ {
		src := buf.Pix[y*buf.Width : (y+1)*buf.Width]
		dst := out.Pix[(y+margin)*out.Width+margin:]
		copy(dst[:buf.Width], src)
	}
	return out, nil
}
