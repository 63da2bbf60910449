// Package matcher implements the relevance scoring between saved templates
// and incoming client messages, and the lexical similarity retrieval over
// previously refined responses.  Both computations are pure functions over
// already-fetched, owner-scoped record snapshots — no I/O, no shared state.
package matcher

import (
	"sort"
	"strings"
)

// Scoring weights.  The keyword-overlap ratio dominates; contextual field
// matches act as a secondary signal, and a historical success rating shifts
// the combined score by ±10% per rating point around the neutral 3.
const (
	keywordWeight      = 0.6
	contextWeight      = 0.4
	typeMatchBonus     = 0.2
	clientMatchBonus   = 0.3 - typeMatchBonus // +0.1, bonuses cap at 0.3
	ratingNeutral      = 3.0
	ratingShiftPerStar = 0.1
	maxScore           = 1.0
)

// TemplateView is the read-only projection of a template that scoring needs.
// Keyword comparison is case-insensitive regardless of stored case.
type TemplateView struct {
	ID            string
	Keywords      []string
	Category      string
	ClientType    string
	SuccessRating *float64 // [1,5] when present
}

// MatchContext carries the optional declared context of the incoming
// message.  Empty fields contribute no bonus.
type MatchContext struct {
	MessageType string
	ClientType  string
}

// ScoredMatch pairs a template with its relevance score for one request.
// Produced fresh per request and never persisted.
type ScoredMatch struct {
	Template TemplateView
	Score    float64
}

// Score computes the bounded relevance of tpl for message in ctx.
//
//	ratio  = matched template keywords / total template keywords (0 if none)
//	bonus  = 0.2 if ctx.MessageType == category, +0.1 if client types match
//	final  = ratio*0.6 + bonus*0.4, then ×(1+(rating−3)×0.1) when rated
//
// The result is clamped to at most 1.0; every component is non-negative so
// the practical floor is 0.  Keyword matching is asymmetric: only template
// keywords are searched for in the message, never the reverse.
func Score(tpl TemplateView, message string, ctx *MatchContext) float64 {
	lowerMsg := strings.ToLower(message)

	ratio := 0.0
	if len(tpl.Keywords) > 0 {
		matched := 0
		for _, kw := range tpl.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lowerMsg, strings.ToLower(kw)) {
				matched++
			}
		}
		ratio = float64(matched) / float64(len(tpl.Keywords))
	}

	bonus := 0.0
	if ctx != nil {
		if ctx.MessageType != "" && ctx.MessageType == tpl.Category {
			bonus += typeMatchBonus
		}
		if ctx.ClientType != "" && ctx.ClientType == tpl.ClientType {
			bonus += clientMatchBonus
		}
	}

	final := ratio*keywordWeight + bonus*contextWeight

	if tpl.SuccessRating != nil {
		final *= 1 + (*tpl.SuccessRating-ratingNeutral)*ratingShiftPerStar
	}

	if final > maxScore {
		final = maxScore
	}
	if final < 0 {
		// Ratings below neutral can never drive a non-negative base
		// negative within [1,5], but out-of-range ratings are tolerated.
		final = 0
	}
	return final
}

// Rank scores every template against message and returns the matches sorted
// by score descending, original order preserved among equals.  A failure
// while scoring one template (e.g., a panic from malformed data) is isolated:
// that template scores 0 and ranking proceeds with the rest.
func Rank(templates []TemplateView, message string, ctx *MatchContext) []ScoredMatch {
	matches := make([]ScoredMatch, len(templates))
	for i, tpl := range templates {
		matches[i] = ScoredMatch{Template: tpl, Score: scoreSafe(tpl, message, ctx)}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches
}

// scoreSafe isolates per-template scoring failures so a single bad record
// cannot abort a whole ranking batch.
func scoreSafe(tpl TemplateView, message string, ctx *MatchContext) (score float64) {
	defer func() {
		if recover() != nil {
			score = 0
		}
	}()
	return Score(tpl, message, ctx)
}
