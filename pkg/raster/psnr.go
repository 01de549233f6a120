package raster

import "math"

// maxSample is the peak value of an 8-bit channel.
const maxSample = 255.0

// PSNR returns the peak signal-to-noise ratio in dB between two carriers of
// the same shape. Identical carriers return +Inf; mismatched or empty
// carriers return 0.
func PSNR(original, modified *Carrier) float64 {
	if original == nil || modified == nil {
		return 0
	}
	a, b := original.Samples, modified.Samples
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var mse float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		mse += d * d
	}
	mse /= float64(len(a))

	if mse == 0 {
		return math.Inf(1)
	}
	return 20 * math.Log10(maxSample/math.Sqrt(mse))
}

// ChangedSamples counts positions where the two carriers differ.
func ChangedSamples(original, modified *Carrier) int {
	n := 0
	for i := range original.Samples {
		if i >= len(modified.Samples) {
			break
		}
		if original.Samples[i] != modified.Samples[i] {
			n++
		}
	}
	return n
}
