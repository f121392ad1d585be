package imaging

// Histogram maps each intensity value to the number of pixels carrying it.
type Histogram [256]int

// Total returns the number of pixels counted.
func (h *Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// BuildHistogram counts the intensities of every sample in buf.
//
// The input is not modified. An empty buffer yields a zero histogram, which
// OtsuThreshold maps to threshold 0.
func BuildHistogram(buf *GrayBuffer) Histogram {
	var h Histogram
	for _, v := range buf.Pix {
		h[v]++
	}
	return h
}

// OtsuThreshold selects the binarization cutoff that maximizes the between-class
// variance of the histogram.
//
// The histogram is normalized into probabilities and swept from level 0 to 255,
// maintaining the cumulative probability ω(t) and cumulative mean μ(t). At every
// level with 0 < ω < 1 the between-class variance
//
//	σ²(t) = (μT·ω(t) − μ(t))² / (ω(t)·(1 − ω(t)))
//
// is evaluated, where μT is the global mean. The earliest level with the strictly
// largest variance wins.
//
// # Degenerate Histograms
//
// When no level satisfies 0 < ω < 1 (all pixels share one intensity) or the
// histogram is empty, the threshold is 0.
func OtsuThreshold(h Histogram) int {
	total := h.Total()
	if total == 0 {
		return 0
	}

	var p [256]float64
	globalMean := 0.0
	for i, c := range h {
		p[i] = float64(c) / float64(total)
		globalMean += float64(i) * p[i]
	}

	threshold := 0
	best := 0.0
	omega := 0.0
	mu := 0.0
	for i := 0; i < 256; i++ {
		omega += p[i]
		mu += float64(i) * p[i]

		if omega <= 0 || omega >= 1 {
			continue
		}

		d := globalMean*omega - mu
		variance := d * d / (omega * (1 - omega))
		if variance > best {
			best = variance
			threshold = i
		}
	}

	return threshold
}

// ThresholdImage runs the histogram, Otsu and binarization stages on a grayscale
// buffer and returns the binary buffer together with the chosen threshold.
func ThresholdImage(gray *GrayBuffer) (*GrayBuffer, int) {
	t := OtsuThreshold(BuildHistogram(gray))
	return Binarize(gray, t), t
}
