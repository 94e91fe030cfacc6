package semantics

import "math"

// kmeansIterations bounds the assign/update loop.
const kmeansIterations = 100

// kmeans partitions points into k clusters and returns the assignment per
// point. Seeding is deterministic k-means++: the first point seeds the
// first centroid and each subsequent centroid is the point farthest from
// all chosen centroids, so identical input always yields identical
// assignments.
func kmeans(points [][]float64, k int) []int {
	if len(points) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > len(points) {
		k = len(points)
	}

	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clonePoint(points[0]))
	for len(centroids) < k {
		bestIdx := 0
		bestDist := -1.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if dist := squaredDistance(p, c); dist < d {
					d = dist
				}
			}
			if d > bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		centroids = append(centroids, clonePoint(points[bestIdx]))
	}

	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := math.Inf(1)
			for c, centroid := range centroids {
				if d := squaredDistance(p, centroid); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		// Recompute centroids as member means. Empty clusters keep their
		// previous centroid.
		dims := len(points[0])
		sums := make([][]float64, len(centroids))
		counts := make([]int, len(centroids))
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for j, x := range p {
				sums[c][j] += x
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	return assign
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func clonePoint(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
