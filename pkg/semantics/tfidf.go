package semantics

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// maxFeatures caps the fitted vocabulary size. Terms are ranked by total
// corpus frequency, ties broken alphabetically for determinism.
const maxFeatures = 1000

// vectorizer is a TF-IDF vectorizer fitted on a corpus of documents.
// It mirrors the usual smooth-IDF formulation: idf = ln((1+n)/(1+df)) + 1,
// with L2-normalized rows.
type vectorizer struct {
	terms []string       // fitted vocabulary, index = feature id
	index map[string]int // term -> feature id
	idf   []float64
}

// tokenize lowercases the text and splits on non-alphanumeric runes,
// dropping stopwords and single-character tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := englishStopwords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// fitVectorizer builds the vocabulary and IDF weights from the corpus and
// returns the fitted vectorizer together with the document-term matrix.
func fitVectorizer(docs []string) (*vectorizer, [][]float64) {
	totalFreq := make(map[string]int)
	docFreq := make(map[string]int)
	docTokens := make([][]string, len(docs))

	for i, doc := range docs {
		tokens := tokenize(doc)
		docTokens[i] = tokens

		seen := make(map[string]struct{})
		for _, t := range tokens {
			totalFreq[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				docFreq[t]++
			}
		}
	}

	terms := make([]string, 0, len(totalFreq))
	for t := range totalFreq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if totalFreq[terms[i]] != totalFreq[terms[j]] {
			return totalFreq[terms[i]] > totalFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	v := &vectorizer{
		terms: terms,
		index: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	for i, t := range terms {
		v.index[t] = i
		v.idf[i] = math.Log(float64(1+len(docs))/float64(1+docFreq[t])) + 1
	}

	matrix := make([][]float64, len(docs))
	for i, tokens := range docTokens {
		matrix[i] = v.vectorizeTokens(tokens, true)
	}
	return v, matrix
}

// transform vectorizes a document against the already-fitted vocabulary
// without normalization, for ranking terms by raw TF-IDF weight.
func (v *vectorizer) transform(doc string) []float64 {
	return v.vectorizeTokens(tokenize(doc), false)
}

func (v *vectorizer) vectorizeTokens(tokens []string, normalize bool) []float64 {
	vec := make([]float64, len(v.terms))
	for _, t := range tokens {
		if id, ok := v.index[t]; ok {
			vec[id]++
		}
	}
	for i := range vec {
		vec[i] *= v.idf[i]
	}

	if normalize {
		var norm float64
		for _, x := range vec {
			norm += x * x
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for i := range vec {
				vec[i] /= norm
			}
		}
	}
	return vec
}

// topTerms returns the n vocabulary terms with the highest weight in vec,
// skipping zero weights. Ties break toward the alphabetically earlier term.
func (v *vectorizer) topTerms(vec []float64, n int) []string {
	type scored struct {
		term   string
		weight float64
	}
	candidates := make([]scored, 0, len(vec))
	for i, w := range vec {
		if w > 0 {
			candidates = append(candidates, scored{v.terms[i], w})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].term < candidates[j].term
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.term
	}
	return out
}
