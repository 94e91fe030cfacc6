// Package semantics groups textual dataset columns into named clusters.
// Each column's values are concatenated into one document, vectorized with
// TF-IDF, reduced to two dimensions, and partitioned with deterministic
// k-means; cluster names are derived from the dominant vocabulary terms of
// each cluster's member columns.
package semantics

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GeneralTextLabel is the fallback cluster label used when clustering is
// not meaningful (fewer than two text columns) or degrades on failure.
const GeneralTextLabel = "general_text"

// maxClusters caps the cluster count; fewer text columns mean fewer clusters.
const maxClusters = 3

// TextColumn is one textual column with its non-missing values.
type TextColumn struct {
	Name   string
	Values []string
}

// Clusterer assigns semantic cluster labels to text columns.
type Clusterer struct {
	logger *zap.Logger
}

// NewClusterer creates a Clusterer.
func NewClusterer(logger *zap.Logger) *Clusterer {
	return &Clusterer{logger: logger.Named("semantics")}
}

// Cluster maps every column name to a cluster label. The pipeline is fully
// deterministic: identical input always produces identical assignments and
// labels. Any internal failure degrades to the general_text label for all
// columns instead of failing the caller.
func (c *Clusterer) Cluster(columns []TextColumn) map[string]string {
	result := make(map[string]string, len(columns))

	if len(columns) < 2 {
		for _, col := range columns {
			result[col.Name] = GeneralTextLabel
		}
		return result
	}

	docs := make([]string, len(columns))
	for i, col := range columns {
		docs[i] = strings.Join(col.Values, " ")
	}

	v, matrix := fitVectorizer(docs)
	if len(matrix) < 2 || len(v.terms) == 0 {
		c.logger.Debug("Degenerate term matrix, falling back to general_text",
			zap.Int("columns", len(columns)),
			zap.Int("terms", len(v.terms)))
		for _, col := range columns {
			result[col.Name] = GeneralTextLabel
		}
		return result
	}

	reduced := reduceDimensions(matrix)
	k := maxClusters
	if len(columns) < k {
		k = len(columns)
	}
	assign := kmeans(reduced, k)

	// Group member columns per cluster, then label each cluster by the top
	// TF-IDF terms of its members' combined text.
	members := make(map[int][]int)
	for i, cluster := range assign {
		members[cluster] = append(members[cluster], i)
	}

	labels := make(map[int]string, len(members))
	for cluster, idxs := range members {
		var sb strings.Builder
		for _, i := range idxs {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(docs[i])
		}

		top := v.topTerms(v.transform(sb.String()), 3)
		if len(top) == 0 {
			labels[cluster] = fmt.Sprintf("group_%d", cluster)
		} else {
			labels[cluster] = strings.Join(top, "_")
		}
	}

	for i, col := range columns {
		result[col.Name] = labels[assign[i]]
	}
	return result
}
