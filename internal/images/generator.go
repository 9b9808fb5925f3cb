// Package images attaches an illustration URL to every slide.
package images

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"safepath/internal/metrics"
	"safepath/pkg/logger"
	"safepath/pkg/models"
	"safepath/pkg/utils"
)

const PlaceholderURL = "https://images.unsplash.com/photo-1557804506-669714d2e9d8?w=400&h=300&fit=crop"

const (
	ModePlaceholder = "placeholder"
	ModeRender      = "render"
	ModeOff         = "off"
)

type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

type Generator struct {
	cfg utils.ImagesConfig
	log *logger.Logger
}

func New(cfg utils.ImagesConfig, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{cfg: cfg, log: log.With("component", "images")}
}

// Generate returns one URL per slide, in slide order. A nil entry means the
// slide has no image.
func (g *Generator) Generate(ctx context.Context, req models.StoryRequest, storyID string, slides []models.Slide) ([]*string, error) {
	urls := make([]*string, len(slides))

	switch g.cfg.Mode {
	case ModeOff:
		metrics.ImageStep("off")
		return urls, nil
	case ModeRender:
	default:
		for i := range urls {
			u := PlaceholderURL
			urls[i] = &u
		}
		metrics.ImageStep("placeholder")
		return urls, nil
	}

	if err := os.MkdirAll(g.cfg.Dir, 0o755); err != nil {
		metrics.ImageStep("error")
		return nil, &Error{Msg: "Cannot create generated images directory", Err: err}
	}

	for i, s := range slides {
		if err := ctx.Err(); err != nil {
			metrics.ImageStep("error")
			return nil, &Error{Msg: fmt.Sprintf("Image generation failed for slide %d", s.Position), Err: err}
		}

		prompt := Prompt(req, s)
		name := FileName(storyID, s.Position, req.Topic, prompt)
		path := filepath.Join(g.cfg.Dir, name)

		if _, err := os.Stat(path); err != nil {
			card := Card{
				Width:  g.cfg.Width,
				Height: g.cfg.Height,
				Seed:   Seed(storyID, s.Position, req.Topic),
				Topic:  req.Topic,
				Text:   s.Text,
			}
			if err := card.Save(path); err != nil {
				metrics.ImageStep("error")
				return nil, &Error{Msg: fmt.Sprintf("Image generation failed for slide %d", s.Position), Err: err}
			}
			g.log.Debug("rendered slide image", "story_id", storyID, "position", s.Position, "file", name)
		}

		u := g.publicURL(name)
		urls[i] = &u
	}
	metrics.ImageStep("rendered")
	return urls, nil
}

func (g *Generator) publicURL(name string) string {
	base := strings.TrimRight(g.cfg.PublicBaseURL, "/")
	path := strings.Trim(g.cfg.URLPath, "/")
	return base + "/" + path + "/" + name
}

// Prompt is the scene description a slide's illustration is derived from.
func Prompt(req models.StoryRequest, s models.Slide) string {
	text := []rune(strings.TrimSpace(s.Text))
	if len(text) > 300 {
		text = text[:300]
	}
	return fmt.Sprintf(
		"Children's safety story illustration, warm colors, friendly cartoon style, "+
			"non-violent, educational scene, age group %s, topic %s, setting %s, scene: %s.",
		req.AgeGroup, req.Topic, req.Region("Indian neighborhood"), string(text),
	)
}

// Seed is the first 8 hex digits of SHA-1("<story>:<position>:<topic>").
func Seed(storyID string, position int, topic string) uint32 {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%d:%s", storyID, position, topic)))
	return uint32(sum[0])<<24 | uint32(sum[1])<<16 | uint32(sum[2])<<8 | uint32(sum[3])
}

func FileName(storyID string, position int, topic, prompt string) string {
	sum := sha1.Sum([]byte(prompt))
	return fmt.Sprintf("%s-%d-%s-%s.png", storyID, position, Slug(topic), hex.EncodeToString(sum[:])[:10])
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func Slug(s string) string {
	slug := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
	if slug == "" {
		return "scene"
	}
	return slug
}
