package scoring

// Mean returns the arithmetic mean of totals. ok is false when there is
// nothing to average, which is distinct from a mean of zero.
func Mean(totals []int) (mean float64, ok bool) {
	if len(totals) == 0 {
		return 0, false
	}
	sum := 0
	for _, t := range totals {
		sum += t
	}
	return float64(sum) / float64(len(totals)), true
}
