package yin

import "math"

// CumulativeMeanNormalize converts a difference function in place into its
// cumulative mean normalised form: d[0] becomes 1 and every later value is
// divided by the running mean of d[1..i]. Where that running sum is exactly
// zero the value is set to 1.
func CumulativeMeanNormalize(d []float64) {
	if len(d) == 0 {
		return
	}

	d[0] = 1
	var sum float64
	for i := 1; i < len(d); i++ {
		sum += d[i]
		if sum == 0 {
			d[i] = 1
			continue
		}
		d[i] *= float64(i) / sum
	}
}

// FindValleys scans the lags of d that correspond to frequencies in
// [minFreq, maxFreq] and writes the strict local minima lying below
// threshold into dst, returning how many were found.
//
// Every accepted valley lowers the threshold to its own depth minus step,
// so later entries are successively deeper. At most len(dst) valleys are
// reported.
func FindValleys(dst []int, d []float64, minFreq, maxFreq, sampleRate, threshold, step float64) int {
	begin := max(1, int(sampleRate/maxFreq))
	end := min(len(d)-1, int(math.Ceil(sampleRate/minFreq)))

	n := 0
	for i := begin; i < end && n < len(dst); i++ {
		curr := d[i]
		if d[i-1] > curr && d[i+1] > curr && curr < threshold {
			threshold = curr - step
			dst[n] = i
			n++
		}
	}
	return n
}
