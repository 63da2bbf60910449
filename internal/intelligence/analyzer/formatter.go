package analyzer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// crlf normalizes Windows and legacy Mac line endings.
	crlf = regexp.MustCompile(`\r\n?`)

	// trailingWS strips horizontal whitespace left dangling before a newline
	// so blank-line collapsing sees truly empty lines.
	trailingWS = regexp.MustCompile(`[ \t]+\n`)

	// hspaceRun collapses runs of horizontal whitespace (including lone
	// tabs) to a single space.
	hspaceRun = regexp.MustCompile(`[ \t]+`)

	// blankRun collapses three or more consecutive newlines (two or more
	// blank lines) down to a single blank line.
	blankRun = regexp.MustCompile(`\n{3,}`)

	// spaceBeforePunct removes horizontal whitespace preceding punctuation.
	spaceBeforePunct = regexp.MustCompile(`[ \t]+([.,!?;:])`)

	// missingSpaceAfterSentence detects a sentence terminator glued directly
	// to the capital starting the next sentence.
	missingSpaceAfterSentence = regexp.MustCompile(`([.!?])([A-Z])`)

	// lowerAfterSentence finds a lower-case letter opening a sentence.
	lowerAfterSentence = regexp.MustCompile(`([.!?][ \t\n]+)([a-z])`)
)

// FormatContent normalizes raw template or message text: line endings become
// LF, runs of horizontal whitespace collapse to one space, runs of blank
// lines collapse to a single blank line, whitespace before punctuation is
// removed, sentence-ending punctuation is followed by a space when a capital
// letter follows, and the first letter of each sentence is capitalized.
//
// FormatContent is idempotent: FormatContent(FormatContent(x)) ==
// FormatContent(x) for all x.  The property is pinned by tests; any new
// rewrite step must preserve it.
func FormatContent(text string) string {
	if text == "" {
		return ""
	}

	s := crlf.ReplaceAllString(text, "\n")
	s = trailingWS.ReplaceAllString(s, "\n")
	s = hspaceRun.ReplaceAllString(s, " ")
	s = blankRun.ReplaceAllString(s, "\n\n")
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = missingSpaceAfterSentence.ReplaceAllString(s, "$1 $2")
	s = lowerAfterSentence.ReplaceAllStringFunc(s, func(m string) string {
		// The match is "<punct><whitespace><lower>"; uppercase the last rune.
		runes := []rune(m)
		runes[len(runes)-1] = unicode.ToUpper(runes[len(runes)-1])
		return string(runes)
	})
	s = capitalizeFirst(s)

	return strings.TrimSpace(s)
}

// capitalizeFirst uppercases the first letter of the text, skipping any
// leading non-letter characters.
func capitalizeFirst(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			return string(runes)
		}
		if !unicode.IsSpace(r) {
			// Text opens with a digit or symbol; leave it alone.
			return s
		}
	}
	return s
}
