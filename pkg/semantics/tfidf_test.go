package semantics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens := tokenize("The Customer's Email-Address is: alice@example.com!")
	assert.Equal(t, []string{"customer", "email", "address", "alice", "example", "com"}, tokens)
}

func TestTokenize_DropsShortAndStopwords(t *testing.T) {
	assert.Empty(t, tokenize("a I to the of"))
}

func TestFitVectorizer_RowsL2Normalized(t *testing.T) {
	_, matrix := fitVectorizer([]string{
		"red green blue",
		"yellow orange purple",
	})
	require.Len(t, matrix, 2)

	for _, row := range matrix {
		var norm float64
		for _, x := range row {
			norm += x * x
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
	}
}

func TestFitVectorizer_EmptyCorpusHasNoTerms(t *testing.T) {
	v, matrix := fitVectorizer([]string{"", "the and"})
	assert.Empty(t, v.terms)
	require.Len(t, matrix, 2)
}

func TestTopTerms_RanksByWeight(t *testing.T) {
	v, _ := fitVectorizer([]string{
		"apple apple banana",
		"cherry banana",
	})

	top := v.topTerms(v.transform("apple apple apple banana"), 2)
	require.Len(t, top, 2)
	assert.Equal(t, "apple", top[0])
	assert.Equal(t, "banana", top[1])
}

func TestTopTerms_SkipsUnknownTerms(t *testing.T) {
	v, _ := fitVectorizer([]string{"apple banana", "cherry melon"})

	top := v.topTerms(v.transform("durian fig"), 3)
	assert.Empty(t, top)
}
