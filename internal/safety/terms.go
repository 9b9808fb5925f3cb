package safety

import (
	"regexp"
	"strings"
)

type replacement struct {
	term string
	with string
}

// Applied in this order.
var unsafeReplacements = []replacement{
	{"kill", "hurt"},
	{"killing", "hurting"},
	{"dead", "unsafe"},
	{"blood", "danger"},
	{"weapon", "dangerous object"},
	{"gun", "dangerous object"},
	{"knife", "sharp object"},
	{"abduct", "take away"},
	{"kidnap", "take away"},
	{"nude", "inappropriate"},
	{"sex", "inappropriate"},
}

var scaryTerms = []string{
	"kidnap", "abduct", "blood", "dead", "die",
	"weapon", "gun", "knife", "attack", "violence",
}

var trustedAdultTerms = []string{
	"trusted adult", "teacher", "parent", "mother", "father",
	"guardian", "caregiver", "police", "counselor",
}

const (
	filledText        = "The child stays calm and chooses a safe action."
	softenedText      = "A confusing moment happens, but the child remembers safe rules and seeks help."
	trustedAdultLine  = " Then the child tells a trusted adult like a parent or teacher."
	defaultChoiceText = "Choose the safer option."
	ellipsis          = "..."
)

type wordMatcher struct {
	term string
	with string
	re   *regexp.Regexp
}

type matchers struct {
	replace []wordMatcher
	scary   []*regexp.Regexp
}

func wordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
}

func newMatchers() matchers {
	m := matchers{
		replace: make([]wordMatcher, 0, len(unsafeReplacements)),
		scary:   make([]*regexp.Regexp, 0, len(scaryTerms)),
	}
	for _, r := range unsafeReplacements {
		m.replace = append(m.replace, wordMatcher{term: r.term, with: r.with, re: wordPattern(r.term)})
	}
	for _, term := range scaryTerms {
		m.scary = append(m.scary, wordPattern(term))
	}
	return m
}

// sanitize replaces every banned whole word and reports which terms fired.
func (m matchers) sanitize(text string) (string, []string) {
	var changes []string
	for _, r := range m.replace {
		if r.re.MatchString(text) {
			text = r.re.ReplaceAllLiteralString(text, r.with)
			changes = append(changes, "replaced unsafe term '"+r.term+"'")
		}
	}
	return strings.TrimSpace(text), changes
}

// scaryCount is the number of distinct scary terms present in text.
func (m matchers) scaryCount(text string) int {
	n := 0
	for _, re := range m.scary {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

func mentionsTrustedAdult(text string) bool {
	text = strings.ToLower(text)
	for _, term := range trustedAdultTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
