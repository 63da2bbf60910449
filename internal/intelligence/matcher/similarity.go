package matcher

import (
	"sort"
	"strings"
	"time"
)

// Similarity constants: a matching declared message type contributes a flat
// 0.3 bonus and the word-overlap term carries the remaining 0.7.  The total
// is deliberately NOT clamped at 1.0 — retrieval only orders candidates, so
// a marginal excess is harmless and matches the production behavior.
const (
	similarityTypeBonus  = 0.3
	similarityWordWeight = 0.7
)

// Candidate is the read-only projection of a stored refined response that
// similarity retrieval needs.
type Candidate struct {
	ID              string
	OriginalMessage string
	RefinedResponse string
	MessageType     string
	CreatedAt       time.Time
}

// SimilarityResult is one retrieved exemplar with its score.  Produced fresh
// per request and never persisted.
type SimilarityResult struct {
	ID              string  `json:"id"`
	OriginalMessage string  `json:"original_client_message"`
	RefinedResponse string  `json:"refined_response"`
	Score           float64 `json:"similarity_score"`
}

// FindSimilar scores every candidate against message and returns the top
// `limit` results sorted by score descending.  Equal scores break ties
// most-recent-first (CreatedAt descending, then ID) so output is
// deterministic.  An empty candidate set yields an empty, non-nil slice —
// "no similar responses" is a normal outcome, not an error.
func FindSimilar(candidates []Candidate, message, messageType string, limit int) []SimilarityResult {
	if limit < 1 || len(candidates) == 0 {
		return []SimilarityResult{}
	}

	type scored struct {
		cand  Candidate
		score float64
	}
	all := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		all = append(all, scored{cand: c, score: Similarity(message, c.OriginalMessage, messageType, c.MessageType)})
	}

	sort.SliceStable(all, func(a, b int) bool {
		if all[a].score != all[b].score {
			return all[a].score > all[b].score
		}
		if !all[a].cand.CreatedAt.Equal(all[b].cand.CreatedAt) {
			return all[a].cand.CreatedAt.After(all[b].cand.CreatedAt)
		}
		return all[a].cand.ID < all[b].cand.ID
	})

	if limit > len(all) {
		limit = len(all)
	}
	out := make([]SimilarityResult, 0, limit)
	for _, s := range all[:limit] {
		out = append(out, SimilarityResult{
			ID:              s.cand.ID,
			OriginalMessage: s.cand.OriginalMessage,
			RefinedResponse: s.cand.RefinedResponse,
			Score:           s.score,
		})
	}
	return out
}

// Similarity computes the lexical-overlap score between an incoming message
// and a stored original message:
//
//	typeBonus + overlap/max(wordcount(message), wordcount(stored), 1) * 0.7
//
// where overlap counts the whitespace-delimited lower-cased words of message
// that appear as whole words in stored, and typeBonus is 0.3 when both
// message types are set and equal.  The max(..., 1) guard keeps an empty
// side from producing a division by zero.
func Similarity(message, stored, messageType, storedType string) float64 {
	score := 0.0
	if messageType != "" && messageType == storedType {
		score += similarityTypeBonus
	}

	msgWords := strings.Fields(strings.ToLower(message))
	storedWords := strings.Fields(strings.ToLower(stored))

	denom := len(msgWords)
	if len(storedWords) > denom {
		denom = len(storedWords)
	}
	if denom < 1 {
		denom = 1
	}

	storedSet := make(map[string]struct{}, len(storedWords))
	for _, w := range storedWords {
		storedSet[w] = struct{}{}
	}

	overlap := 0
	for _, w := range msgWords {
		if _, ok := storedSet[w]; ok {
			overlap++
		}
	}

	return score + float64(overlap)/float64(denom)*similarityWordWeight
}
