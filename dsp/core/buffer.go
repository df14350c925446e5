package core

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	clear(buf)
}

// Discard drops the first n of the used leading samples of buf, moving the
// remainder to the front and zeroing what it vacates. It returns the new
// used count. n is clamped to [0, used].
func Discard(buf []float64, used, n int) int {
	n = min(max(n, 0), used)
	copy(buf, buf[n:used])
	clear(buf[used-n : used])
	return used - n
}
