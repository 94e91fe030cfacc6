package semantics

import "math"

// pcaComponents is the target dimensionality before clustering.
const pcaComponents = 2

// reduceDimensions projects the document-term matrix onto its first two
// principal components via power iteration with deflation. Initialization
// is fixed so repeated runs on identical input produce identical output.
func reduceDimensions(matrix [][]float64) [][]float64 {
	rows := len(matrix)
	if rows == 0 {
		return nil
	}
	cols := len(matrix[0])

	// Center columns on their mean.
	centered := make([][]float64, rows)
	means := make([]float64, cols)
	for _, row := range matrix {
		for j, x := range row {
			means[j] += x
		}
	}
	for j := range means {
		means[j] /= float64(rows)
	}
	for i, row := range matrix {
		centered[i] = make([]float64, cols)
		for j, x := range row {
			centered[i][j] = x - means[j]
		}
	}

	reduced := make([][]float64, rows)
	for i := range reduced {
		reduced[i] = make([]float64, pcaComponents)
	}

	for comp := 0; comp < pcaComponents; comp++ {
		direction := principalDirection(centered)
		if direction == nil {
			break
		}
		for i, row := range centered {
			var score float64
			for j, x := range row {
				score += x * direction[j]
			}
			reduced[i][comp] = score
			// Deflate: remove this component before finding the next.
			for j := range row {
				centered[i][j] -= score * direction[j]
			}
		}
	}

	return reduced
}

// principalDirection finds the dominant right singular vector of the
// centered matrix by power iteration on X^T X. Returns nil when the matrix
// has no variance left.
func principalDirection(matrix [][]float64) []float64 {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil
	}
	cols := len(matrix[0])

	// Deterministic start: uniform unit vector.
	v := make([]float64, cols)
	for j := range v {
		v[j] = 1 / math.Sqrt(float64(cols))
	}

	const iterations = 100
	for iter := 0; iter < iterations; iter++ {
		// next = X^T (X v)
		proj := make([]float64, len(matrix))
		for i, row := range matrix {
			for j, x := range row {
				proj[i] += x * v[j]
			}
		}
		next := make([]float64, cols)
		for i, row := range matrix {
			for j, x := range row {
				next[j] += x * proj[i]
			}
		}

		var norm float64
		for _, x := range next {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			return nil
		}

		var delta float64
		for j := range next {
			next[j] /= norm
			delta += math.Abs(next[j] - v[j])
		}
		v = next
		if delta < 1e-10 {
			break
		}
	}
	return v
}
