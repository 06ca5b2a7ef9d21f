package slide

// Similarity returns 1 minus the fraction of differing pixels.
// An empty frame (zero pixels) is fully similar to itself.
func Similarity(differing, total int) float64 {
	if total <= 0 {
		return 1.0
	}
	return 1.0 - float64(differing)/float64(total)
}
