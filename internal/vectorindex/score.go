package vectorindex

import "math"

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

// score compares a query with a stored vector whose norm is precomputed.
// Cosine against a zero vector is 0.
func score(metric Metric, query []float32, queryNorm float64, vec []float32, vecNorm float64) float32 {
	d := dot(query, vec)
	if metric == MetricDot {
		return float32(d)
	}
	if queryNorm == 0 || vecNorm == 0 {
		return 0
	}
	return float32(d / (queryNorm * vecNorm))
}
