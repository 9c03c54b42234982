package vectorstore

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxFeatures caps the TF-IDF vocabulary when no limit is configured.
const DefaultMaxFeatures = 4096

// TFIDF is the offline vectorizer: whitespace tokens, a vocabulary of the maxFeatures most
// frequent terms (by document frequency, ties alphabetical), smoothed idf and L2-normalized rows.
type TFIDF struct {
	maxFeatures int
}

func NewTFIDF(maxFeatures int) *TFIDF {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TFIDF{maxFeatures: maxFeatures}
}

func (t *TFIDF) Name() string { return "tfidf" }

func (t *TFIDF) Version() string { return "1/max" + strconv.Itoa(t.maxFeatures) }

// Vectorize fits the vocabulary on texts and transforms them in one pass.
func (t *TFIDF) Vectorize(ctx context.Context, texts []string) ([][]float32, error) {
	counts := make([]map[string]int, len(texts))
	df := make(map[string]int)
	for i, text := range texts {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tc := make(map[string]int)
		for _, tok := range strings.Fields(text) {
			tc[tok]++
		}
		for tok := range tc {
			df[tok]++
		}
		counts[i] = tc
	}

	vocab := t.selectVocabulary(df)
	columns := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	n := float64(len(texts))
	for j, term := range vocab {
		columns[term] = j
		idf[j] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	rows := make([][]float32, len(texts))
	weights := make([]float64, len(vocab))
	for i, tc := range counts {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for j := range weights {
			weights[j] = 0
		}
		var norm float64
		for tok, c := range tc {
			j, ok := columns[tok]
			if !ok {
				continue
			}
			w := float64(c) * idf[j]
			weights[j] = w
			norm += w * w
		}

		row := make([]float32, len(vocab))
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j, w := range weights {
				if w != 0 {
					row[j] = float32(w / norm)
				}
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// selectVocabulary keeps the maxFeatures terms with the highest document frequency and
// returns them in alphabetical order, which is the column order.
func (t *TFIDF) selectVocabulary(df map[string]int) []string {
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(a, b int) bool {
		if df[terms[a]] != df[terms[b]] {
			return df[terms[a]] > df[terms[b]]
		}
		return terms[a] < terms[b]
	})
	if len(terms) > t.maxFeatures {
		terms = terms[:t.maxFeatures]
	}
	sort.Strings(terms)
	return terms
}
