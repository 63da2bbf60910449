// Package analyzer derives matching metadata from free template text:
// significant keywords, a best-fit category, a tone label, a
// project-complexity label, and a client-type label.  Every function in this
// package is total and deterministic — no I/O, no side effects, and no error
// paths; unparseable or empty input yields the documented defaults.
package analyzer

import "strings"

// Analysis is the full set of signals derived from a single text.
type Analysis struct {
	Keywords   []string `json:"keywords"`
	Category   string   `json:"category"`
	Tone       string   `json:"tone"`
	Complexity string   `json:"complexity"`
	ClientType string   `json:"client_type"`
}

// Analyze runs all independent pattern-matching passes over text and returns
// the combined result.  An empty or unmatchable text yields
// {nil keywords, "custom", "professional", "standard", "business"}.
func Analyze(text string) Analysis {
	return Analysis{
		Keywords:   ExtractKeywords(text),
		Category:   DetectCategory(text),
		Tone:       DetectTone(text),
		Complexity: DetectComplexity(text),
		ClientType: DetectClientType(text),
	}
}

// ExtractKeywords tokenizes text on word boundaries and returns the
// lower-cased significant tokens: longer than three characters, outside the
// stopword set, deduplicated preserving first-seen order, capped at twelve.
func ExtractKeywords(text string) []string {
	tokens := wordToken.FindAllString(text, -1)
	if len(tokens) == 0 {
		return []string{}
	}

	keywords := make([]string, 0, maxKeywords)
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if len(tok) <= minKeywordLen {
			continue
		}
		word := strings.ToLower(tok)
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// DetectCategory evaluates every category rule against text, accumulating
// each matching rule's weight into its label's score, and returns the label
// with the highest total.  Ties resolve to the earliest declared label;
// no match at all yields DefaultCategory.
func DetectCategory(text string) string {
	scores := make(map[string]int, len(CategoryRules))
	seen := make(map[string]struct{}, len(CategoryRules))
	order := make([]string, 0, len(CategoryRules))
	for _, rule := range CategoryRules {
		if _, ok := seen[rule.Label]; !ok {
			seen[rule.Label] = struct{}{}
			order = append(order, rule.Label)
		}
		if rule.Pattern.MatchString(text) {
			scores[rule.Label] += rule.Weight
		}
	}

	best := DefaultCategory
	bestScore := 0
	for _, label := range order {
		if scores[label] > bestScore {
			best = label
			bestScore = scores[label]
		}
	}
	return best
}

// DetectTone returns the label of the first tone rule whose pattern matches,
// or DefaultTone.  First-match, not highest-score — deliberately different
// from DetectCategory.
func DetectTone(text string) string {
	for _, rule := range ToneRules {
		if rule.Pattern.MatchString(text) {
			return rule.Label
		}
	}
	return DefaultTone
}

// DetectComplexity returns "complex" when a complexity indicator matches,
// else "simple" when a simplicity indicator matches, else
// DefaultComplexity.  The complex check precedes the simple check.
func DetectComplexity(text string) string {
	if complexPattern.MatchString(text) {
		return "complex"
	}
	if simplePattern.MatchString(text) {
		return "simple"
	}
	return DefaultComplexity
}

// DetectClientType checks client-type rules in fixed order
// (startup → enterprise → individual → agency), first match wins, default
// DefaultClientType.
func DetectClientType(text string) string {
	for _, rule := range clientTypeRules {
		if rule.Pattern.MatchString(text) {
			return rule.Label
		}
	}
	return DefaultClientType
}
