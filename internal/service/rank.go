package service

import (
	"math"
	"sort"

	"github.com/reolin/wsnotes/internal/model"
)

// noScore ranks a candidate last without ever failing the ranking pass.
const noScore = float64(-1)

// CosineSimilarity scores two vectors over their shared prefix. Vectors of
// differing length are truncated to the shorter one, with no
// re-normalization beyond that. A zero-length overlap or a zero-norm vector
// yields the -1 sentinel.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return noScore
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return noScore
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankByQueryVector reorders candidates by descending similarity to the
// query vector. It never filters: the result is a permutation of the input,
// and ties keep the candidates' store order.
func RankByQueryVector(query []float32, notes []model.Note) []model.Note {
	scores := make([]float64, len(notes))
	for i := range notes {
		scores[i] = CosineSimilarity(query, notes[i].VectorData)
	}
	ranked := make([]model.Note, len(notes))
	copy(ranked, notes)
	order := make([]int, len(notes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	for i, idx := range order {
		ranked[i] = notes[idx]
	}
	return ranked
}
