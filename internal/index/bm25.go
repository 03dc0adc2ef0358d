// Package index provides lexical ranking over a fixed snapshot of claim
// and topic records. BM25 is used instead of embedding search: it needs no
// external model calls, ranks deterministically, and exact term overlap
// dominates relevance for short topic/target phrases.
package index

import (
	"math"
	"sort"
	"strings"

	"github.com/avolkov/hopweaver/internal/model"
)

// Okapi BM25 parameters
const (
	k1      = 1.5
	b       = 0.75
	epsilon = 0.25 // floor factor for non-positive IDF values
)

// Index ranks an immutable corpus of claim records against free-text
// queries. It is read-only after construction and safe for concurrent
// use; refreshing the corpus means building a new Index and swapping the
// reference.
type Index struct {
	records []model.ClaimRecord
	freqs   []map[string]int
	docLen  []int
	avgLen  float64
	idf     map[string]float64
}

// New builds an index over records. Each document is the lowercase,
// whitespace-tokenized concatenation of topic and target.
func New(records []model.ClaimRecord) *Index {
	idx := &Index{
		records: records,
		freqs:   make([]map[string]int, len(records)),
		docLen:  make([]int, len(records)),
		idf:     make(map[string]float64),
	}

	df := make(map[string]int) // term -> number of docs containing it
	total := 0
	for i, rec := range records {
		tokens := Tokenize(rec.SearchText())
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		idx.freqs[i] = freq
		idx.docLen[i] = len(tokens)
		total += len(tokens)
		for term := range freq {
			df[term]++
		}
	}
	if len(records) > 0 {
		idx.avgLen = float64(total) / float64(len(records))
	}

	idx.computeIDF(df)
	return idx
}

// computeIDF fills the IDF table. Terms appearing in more than half the
// corpus get a negative raw IDF; those are floored to epsilon times the
// average IDF over the whole vocabulary so frequent terms still
// contribute.
func (idx *Index) computeIDF(df map[string]int) {
	n := float64(len(idx.records))
	var sum float64
	var negative []string

	for term, freq := range df {
		v := math.Log((n - float64(freq) + 0.5) / (float64(freq) + 0.5))
		idx.idf[term] = v
		sum += v
		if v <= 0 {
			negative = append(negative, term)
		}
	}

	if len(idx.idf) == 0 {
		return
	}
	floor := epsilon * (sum / float64(len(idx.idf)))
	for _, term := range negative {
		idx.idf[term] = floor
	}
}

// Len returns the corpus size
func (idx *Index) Len() int {
	return len(idx.records)
}

// Search returns up to k records ranked by descending BM25 score. Ties
// are broken by corpus order. If k exceeds the corpus size the entire
// ranked corpus is returned.
func (idx *Index) Search(query string, k int) []model.ClaimRecord {
	if len(idx.records) == 0 || k <= 0 {
		return nil
	}

	scores := idx.Scores(query)

	order := make([]int, len(idx.records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]model.ClaimRecord, k)
	for i := 0; i < k; i++ {
		results[i] = idx.records[order[i]]
	}
	return results
}

// Scores returns the BM25 score of every document against query, in
// corpus order.
func (idx *Index) Scores(query string) []float64 {
	scores := make([]float64, len(idx.records))
	if idx.avgLen == 0 {
		return scores
	}
	terms := Tokenize(query)

	for i := range idx.records {
		norm := k1 * (1 - b + b*float64(idx.docLen[i])/idx.avgLen)
		for _, term := range terms {
			f := float64(idx.freqs[i][term])
			if f == 0 {
				continue
			}
			scores[i] += idx.idf[term] * (f * (k1 + 1)) / (f + norm)
		}
	}
	return scores
}

// Tokenize lowercases and splits on whitespace. No stemming, no stopword
// removal; queries and documents must use the same tokenization.
func Tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
