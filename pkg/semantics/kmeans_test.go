package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKmeans_TwoObviousClusters(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0.1},
		{10, 10}, {10.1, 9.9},
	}

	assign := kmeans(points, 2)
	require.Len(t, assign, 4)
	assert.Equal(t, assign[0], assign[1])
	assert.Equal(t, assign[2], assign[3])
	assert.NotEqual(t, assign[0], assign[2])
}

func TestKmeans_Deterministic(t *testing.T) {
	points := [][]float64{
		{1, 2}, {3, 4}, {5, 6}, {7, 8}, {2, 1},
	}

	first := kmeans(points, 3)
	second := kmeans(points, 3)
	assert.Equal(t, first, second)
}

func TestKmeans_MoreClustersThanPoints(t *testing.T) {
	points := [][]float64{{1, 1}, {2, 2}}
	assign := kmeans(points, 5)
	require.Len(t, assign, 2)
}

func TestKmeans_Empty(t *testing.T) {
	assert.Nil(t, kmeans(nil, 3))
}
