package calculator

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Tail returns the last n values, or all of them when fewer exist.
func Tail(values []float64, n int) []float64 {
	if n <= 0 || n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}
