// Package safety makes generated slides fit for children: it rewrites unsafe
// vocabulary, softens intense slides, caps length, repairs the branching
// structure and guarantees a trusted-adult mention.
package safety

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"safepath/internal/metrics"
	"safepath/internal/slides"
	"safepath/pkg/logger"
	"safepath/pkg/models"
	"safepath/pkg/utils"
)

type Result struct {
	Slides []models.Slide
	Issues []string
	Review *Verdict
}

// Critic is safe for concurrent use; it holds no per-call state.
type Critic struct {
	cfg      utils.SafetyConfig
	m        matchers
	reviewer Reviewer
	log      *logger.Logger
}

// NewCritic compiles the word matchers once. reviewer may be nil.
func NewCritic(cfg utils.SafetyConfig, reviewer Reviewer, log *logger.Logger) *Critic {
	if log == nil {
		log = logger.Nop()
	}
	return &Critic{cfg: cfg, m: newMatchers(), reviewer: reviewer, log: log.With("component", "safety_critic")}
}

func (c *Critic) Apply(ctx context.Context, req models.StoryRequest, in []models.Slide) (Result, error) {
	if !c.cfg.Enabled {
		return Result{Slides: in}, nil
	}
	if len(in) == 0 {
		return Result{}, errorf("No slides available for safety validation")
	}

	var issues []string
	out := make([]models.Slide, 0, len(in))
	for i, s := range in {
		fixed, slideIssues, err := c.fixSlide(i+1, s)
		if err != nil {
			return Result{}, err
		}
		issues = append(issues, slideIssues...)
		out = append(out, fixed)
	}

	out, branchIssues := coerceBranch(out)
	issues = append(issues, branchIssues...)

	if !anyTrustedAdult(out) {
		last := &out[len(out)-1]
		last.Text = c.withTrustedAdultLine(last.Text)
		issues = append(issues, "added trusted adult guidance")
	}

	res := Result{Slides: out, Issues: issues}
	if c.reviewer != nil {
		v := c.reviewer.Review(ctx, req, out)
		res.Review = &v
		metrics.Review(v.Label())
		c.log.Info("llm review", "approved", v.Approved, "risk_flags", v.RiskFlags, "notes", v.Notes)
	}
	metrics.SafetyIssues(len(issues))
	return res, nil
}

func (c *Critic) fixSlide(n int, s models.Slide) (models.Slide, []string, error) {
	var issues []string
	note := func(msg string) { issues = append(issues, fmt.Sprintf("slide_%d: %s", n, msg)) }

	text := strings.TrimSpace(s.Text)
	if text == "" {
		if c.cfg.Strict {
			return models.Slide{}, nil, errorf("Slide %d has empty text", n)
		}
		text = filledText
		note("filled missing text")
	}

	text, changes := c.m.sanitize(text)
	for _, ch := range changes {
		note(ch)
	}

	if c.m.scaryCount(text) > c.cfg.MaxScaryTermsPerSlide {
		text = softenedText
		note("tone too intense, softened")
	}

	if utf8.RuneCountInString(text) > c.cfg.MaxTextLength {
		text = truncate(text, c.cfg.MaxTextLength-len(ellipsis)) + ellipsis
		note("trimmed long text")
	}

	fixed := models.Slide{Position: n, Text: text}
	if len(s.Choices) > 0 {
		fixed.Choices = make([]models.Choice, 0, 2)
		for j, ch := range s.Choices {
			if j == 2 {
				break
			}
			choiceText, changes := c.m.sanitize(ch.Text)
			for _, msg := range changes {
				issues = append(issues, fmt.Sprintf("slide_%d_choice_%d: %s", n, j+1, msg))
			}
			if choiceText == "" {
				choiceText = defaultChoiceText
			}
			id := strings.TrimSpace(ch.ID)
			if id == "" {
				id = slides.DefaultChoiceID(j)
			}
			fixed.Choices = append(fixed.Choices, models.Choice{ID: id, Text: choiceText, Correct: ch.Correct})
		}
	}
	return fixed, issues, nil
}

// withTrustedAdultLine appends the reporting sentence, shortening text first
// so the result stays within the length cap.
func (c *Critic) withTrustedAdultLine(text string) string {
	if utf8.RuneCountInString(text)+utf8.RuneCountInString(trustedAdultLine) <= c.cfg.MaxTextLength {
		return text + trustedAdultLine
	}
	keep := c.cfg.MaxTextLength - utf8.RuneCountInString(trustedAdultLine) - len(ellipsis)
	return truncate(text, keep) + ellipsis + trustedAdultLine
}

func anyTrustedAdult(in []models.Slide) bool {
	for _, s := range in {
		if mentionsTrustedAdult(s.Text) {
			return true
		}
		for _, ch := range s.Choices {
			if mentionsTrustedAdult(ch.Text) {
				return true
			}
		}
	}
	return false
}

// truncate keeps at most limit runes, backing off to a word boundary so no
// new whole word is created by the cut.
func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := limit
	if isWordRune(runes[cut-1]) && isWordRune(runes[cut]) {
		back := cut
		for back > 0 && isWordRune(runes[back-1]) {
			back--
		}
		if back > 0 {
			cut = back
		}
	}
	return strings.TrimRight(string(runes[:cut]), " \t\n\r")
}

// isWordRune matches the ASCII \w class used by \b in the matchers.
func isWordRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
