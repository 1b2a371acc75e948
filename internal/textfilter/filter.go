// Package textfilter implements the deterministic pre-filter applied to
// incoming messages before any external analysis. All predicates are pure.
package textfilter

import (
	"regexp"
	"strings"
)

// Obscenity words matched by the sentinel. The pattern tolerates a single
// space between letters so spaced-out spellings ("f u c k") still match.
var profanityWords = []string{"fuck", "shit", "bitch", "cunt", "asshole", "dick", "bastard"}

var profanityPattern = regexp.MustCompile(buildProfanityPattern(profanityWords))

// Smaller substring set used for the post-analysis sentiment override.
var obscenitySubstrings = []string{"fuck", "shit", "bitch", "cunt"}

var punctStripper = regexp.MustCompile(`[\s.,!?;:'"()\[\]{}\-_@#$%&*+=/\\<>~` + "`" + `|]`)

func buildProfanityPattern(words []string) string {
	alts := make([]string, 0, len(words))
	for _, w := range words {
		letters := strings.Split(w, "")
		alts = append(alts, strings.Join(letters, " ?"))
	}
	return `(?i)\b(?:` + strings.Join(alts, "|") + `)`
}

// MatchesProfanity reports whether the profanity sentinel matches.
// A match short-circuits the analyzer and forces negative sentiment.
func MatchesProfanity(text string) bool {
	return profanityPattern.MatchString(text)
}

// ContainsObscenity reports whether the text contains one of the core
// obscenity substrings, case-insensitively. Used as a post-analysis check
// independent of the spaced-letter sentinel.
func ContainsObscenity(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range obscenitySubstrings {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// IsCommand reports whether the first non-whitespace character is a slash.
// Command messages are dropped at ingest.
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// IsBlank reports whether the trimmed text is empty.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// IsShortAndSparse reports whether the trimmed text is shorter than 10
// characters and carries at most two whitespace-separated words.
func IsShortAndSparse(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) >= 10 {
		return false
	}
	return len(strings.Fields(trimmed)) <= 2
}

// HasCharacterRun reports whether any character repeats five or more times
// in a row. Runs are detected over runes, not bytes, so the rule applies to
// the language-default word-character semantics rather than ASCII only.
func HasCharacterRun(text string) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= 5 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// HasLowAlphanumericRatio strips common punctuation and whitespace and
// reports whether fewer than 40% of the remaining characters are ASCII
// alphanumeric. Text reduced to nothing by the strip counts as low-ratio.
func HasLowAlphanumericRatio(text string) bool {
	stripped := punctStripper.ReplaceAllString(text, "")
	runes := []rune(stripped)
	if len(runes) == 0 {
		return true
	}
	alnum := 0
	for _, r := range runes {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			alnum++
		}
	}
	return float64(alnum)/float64(len(runes)) < 0.4
}

// IsLowEffort applies the quality-gating predicates (short-and-sparse,
// character run, low alphanumeric ratio) in order. A match zeroes the
// quality score but does not prevent analysis or persistence.
func IsLowEffort(text string) bool {
	return IsShortAndSparse(text) || HasCharacterRun(text) || HasLowAlphanumericRatio(text)
}
