package engine

import (
	"sort"

	"github.com/Arephan/supaclaw/core"
)

// candidate is a memory seen by at least one hybrid sub-search together with
// its raw sub-scores and fused score. It lives only for the duration of one
// HybridRecall call.
type candidate struct {
	memory       core.Memory
	vectorScore  float64
	keywordScore float64
	fusedScore   float64
}

// fuseCandidates merges the vector and keyword candidate sets into one
// ranked list.
//
// Vector scores are cosine similarities already in [0,1] and are used as-is.
// Keyword relevance has no fixed scale, so it is min-max normalized across
// the keyword candidate set of this call; when all raw scores are equal
// every keyword hit normalizes to 1.0. A candidate missing from one set
// contributes 0 for that term. Candidates appearing in both sets are merged
// by memory identity, never repeated.
//
//	fused = vectorWeight*vector + keywordWeight*normalizedKeyword
//
// The result is ordered by fused score descending, ties broken by importance
// descending then creation time descending.
func fuseCandidates(vectorSet, keywordSet []core.ScoredMemory, vectorWeight, keywordWeight float64) []candidate {
	merged := make(map[string]*candidate, len(vectorSet)+len(keywordSet))
	order := make([]string, 0, len(vectorSet)+len(keywordSet))

	for _, r := range vectorSet {
		merged[r.Memory.ID] = &candidate{memory: r.Memory, vectorScore: r.Score}
		order = append(order, r.Memory.ID)
	}
	lo, hi := scoreBounds(keywordSet)
	for _, r := range keywordSet {
		score := normalizeKeyword(r.Score, lo, hi)
		if c, ok := merged[r.Memory.ID]; ok {
			c.keywordScore = score
			continue
		}
		merged[r.Memory.ID] = &candidate{memory: r.Memory, keywordScore: score}
		order = append(order, r.Memory.ID)
	}

	ranked := make([]candidate, 0, len(order))
	for _, id := range order {
		c := merged[id]
		c.fusedScore = vectorWeight*c.vectorScore + keywordWeight*c.keywordScore
		ranked = append(ranked, *c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].fusedScore != ranked[j].fusedScore {
			return ranked[i].fusedScore > ranked[j].fusedScore
		}
		return lessByImportanceRecency(ranked[j].memory, ranked[i].memory)
	})
	return ranked
}

func scoreBounds(set []core.ScoredMemory) (lo, hi float64) {
	if len(set) == 0 {
		return 0, 0
	}
	lo, hi = set[0].Score, set[0].Score
	for _, r := range set[1:] {
		if r.Score < lo {
			lo = r.Score
		}
		if r.Score > hi {
			hi = r.Score
		}
	}
	return lo, hi
}

// normalizeKeyword maps a raw relevance score into [0,1] via min-max over
// the keyword candidate set of this call. Degenerate sets (single candidate,
// or all scores equal) map every hit to 1.0.
func normalizeKeyword(score, lo, hi float64) float64 {
	if hi == lo {
		return 1.0
	}
	return (score - lo) / (hi - lo)
}
