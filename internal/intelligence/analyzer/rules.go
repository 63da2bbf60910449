package analyzer

import "regexp"

// CategoryRule scores one template category.  Rules are evaluated in
// declaration order; every rule whose pattern matches anywhere in the text
// contributes its weight to that category's accumulated score, and the
// highest total wins with first-declared order breaking ties.
type CategoryRule struct {
	Label   string
	Pattern *regexp.Regexp
	Weight  int
}

// ToneRule labels the tone of a template.  Unlike categories, tone rules are
// first-match-wins in declaration order; this asymmetry mirrors how the
// matching behaves in production and is pinned by tests.
type ToneRule struct {
	Label   string
	Pattern *regexp.Regexp
}

// DefaultCategory is returned when no category rule matches.
const DefaultCategory = "custom"

// DefaultTone is returned when no tone rule matches.
const DefaultTone = "professional"

// DefaultComplexity is the baseline project-complexity label.
const DefaultComplexity = "standard"

// DefaultClientType is the baseline client-type label.
const DefaultClientType = "business"

// CategoryRules is the ordered weighted rule table for template categories.
// Order matters: ties resolve to the earliest declared label.
var CategoryRules = []CategoryRule{
	{
		Label:   "onboarding",
		Pattern: regexp.MustCompile(`(?i)welcome|getting started|thank you for (your order|choosing|purchasing)|excited to (work|start)|new (client|project) kickoff`),
		Weight:  3,
	},
	{
		Label:   "custom_offer",
		Pattern: regexp.MustCompile(`(?i)custom offer|proposal|quote|pricing|package|scope of work|estimate`),
		Weight:  3,
	},
	{
		Label:   "revision_handling",
		Pattern: regexp.MustCompile(`(?i)revision|modif(y|ication)|change request|rework|adjust(ment)?|updated version`),
		Weight:  3,
	},
	{
		Label:   "delivery",
		Pattern: regexp.MustCompile(`(?i)deliver(y|ed|ing)?|final files?|completed|attached|download|here is your`),
		Weight:  2,
	},
	{
		Label:   "follow_up",
		Pattern: regexp.MustCompile(`(?i)follow(ing)? up|checking in|touch base|any update|gentle reminder|just wanted to`),
		Weight:  2,
	},
	{
		Label:   "upselling",
		Pattern: regexp.MustCompile(`(?i)upgrade|add-?on|additional service|extra|premium|also offer|might benefit`),
		Weight:  2,
	},
	{
		Label:   "requirements_gathering",
		Pattern: regexp.MustCompile(`(?i)requirements?|project brief|more (details?|information)|clarif(y|ication)|a few questions|specifics`),
		Weight:  2,
	},
}

// ToneRules is the ordered first-match tone table.
var ToneRules = []ToneRule{
	{Label: "warm", Pattern: regexp.MustCompile(`(?i)thank|appreciate|excited|happy to|glad|wonderful|love`)},
	{Label: "consultative", Pattern: regexp.MustCompile(`(?i)recommend|suggest|advis(e|ing)|best practice|in my experience|my expertise`)},
	{Label: "efficient", Pattern: regexp.MustCompile(`(?i)quick(ly)?|asap|right away|straightforward|promptly|immediately`)},
	{Label: "formal", Pattern: regexp.MustCompile(`(?i)dear\b|sincerely|kind regards|pursuant|hereby|respectfully`)},
	{Label: "collaborative", Pattern: regexp.MustCompile(`(?i)we can|together|let'?s|our team|work with you|partnership`)},
}

// complexPattern upgrades complexity to "complex"; it is checked before
// simplePattern, so text matching both is labelled complex.
var complexPattern = regexp.MustCompile(`(?i)complex|integration|multiple (pages|features|platforms)|advanced|full[- ]stack|custom develop|architecture|end[- ]to[- ]end`)

// simplePattern downgrades complexity to "simple".
var simplePattern = regexp.MustCompile(`(?i)simple|basic|quick fix|small|minor|single page|one[- ]off|straightforward`)

// clientTypeRules is the ordered first-match client-type table:
// startup → enterprise → individual → agency.
var clientTypeRules = []ToneRule{
	{Label: "startup", Pattern: regexp.MustCompile(`(?i)start-?up|mvp|seed (round|stage)|launching soon|early[- ]stage`)},
	{Label: "enterprise", Pattern: regexp.MustCompile(`(?i)enterprise|corporation|compliance|procurement|stakeholders?|department`)},
	{Label: "individual", Pattern: regexp.MustCompile(`(?i)personal (project|website|blog)|my own|for myself|individual|freelancer like`)},
	{Label: "agency", Pattern: regexp.MustCompile(`(?i)agency|white[- ]label|resell(er)?|our clients?|on behalf of`)},
}

// stopwords is the closed set of common English function words and pronouns
// excluded from keyword extraction, checked case-insensitively.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "day": {}, "get": {}, "has": {},
	"him": {}, "his": {}, "how": {}, "its": {}, "may": {}, "new": {},
	"now": {}, "old": {}, "see": {}, "two": {}, "who": {}, "did": {},
	"that": {}, "this": {}, "with": {}, "have": {}, "from": {}, "they": {},
	"will": {}, "would": {}, "there": {}, "their": {}, "what": {}, "about": {},
	"which": {}, "when": {}, "your": {}, "said": {}, "could": {}, "been": {},
	"were": {}, "them": {}, "than": {}, "then": {}, "some": {}, "into": {},
	"just": {}, "like": {}, "over": {}, "also": {}, "very": {}, "more": {},
	"should": {}, "because": {}, "please": {}, "thanks": {},
}

// maxKeywords caps the number of keywords extracted from a single text.
const maxKeywords = 12

// minKeywordLen is the exclusive lower bound on token length; tokens must be
// strictly longer than this to qualify as keywords.
const minKeywordLen = 3

// wordToken matches individual word tokens on word boundaries.
var wordToken = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z']*\b`)
