package ai

import (
	"hash/fnv"
	"sort"
	"strings"
)

const (
	// FallbackSummaryLen is the character budget of a truncated-text summary.
	FallbackSummaryLen = 200
	// FallbackEmbeddingDim is the dimension of the hash-derived vector.
	FallbackEmbeddingDim = 64
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "were": {}, "will": {}, "with": {}, "this": {}, "these": {},
}

// FallbackSummary truncates the text at a word boundary.
func FallbackSummary(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= FallbackSummaryLen {
		return text
	}

	cut := text[:FallbackSummaryLen]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}

	return cut + "..."
}

// FallbackTags returns the k most frequent non-stopword terms, ties broken
// alphabetically so the result is deterministic.
func FallbackTags(text string, k int) []string {
	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()[]{}")
		if len(word) < 3 {
			continue
		}
		if _, ok := stopwords[word]; ok {
			continue
		}
		counts[word]++
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > k {
		terms = terms[:k]
	}
	return terms
}

// FallbackEmbedding derives a unit-free vector from term hashes. The same
// text always produces the same vector.
func FallbackEmbedding(text string) []float32 {
	vector := make([]float32, FallbackEmbeddingDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		sum := h.Sum32()
		vector[sum%FallbackEmbeddingDim] += float32(sum%7) - 3
	}
	return vector
}
