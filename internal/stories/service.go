package stories

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"safepath/internal/apierr"
	"safepath/internal/generation"
	"safepath/internal/images"
	"safepath/internal/metrics"
	"safepath/internal/safety"
	"safepath/pkg/logger"
	"safepath/pkg/models"
)

type StoryGenerator interface {
	Generate(ctx context.Context, req models.StoryRequest) generation.Outcome
}

type SafetyCritic interface {
	Apply(ctx context.Context, req models.StoryRequest, in []models.Slide) (safety.Result, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, req models.StoryRequest, storyID string, slides []models.Slide) ([]*string, error)
}

// Policy holds the per-stage failure switches.
type Policy struct {
	FallbackToDefault bool
	StrictSafety      bool
	RejectUnapproved  bool
}

// Service runs the story creation pipeline: generate, make safe, illustrate,
// persist.
type Service struct {
	Repo   *Repo
	Gen    StoryGenerator
	Critic SafetyCritic
	Images ImageGenerator
	Policy Policy
	Log    *logger.Logger
}

func NewService(repo *Repo, gen StoryGenerator, critic SafetyCritic, img ImageGenerator, p Policy, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{Repo: repo, Gen: gen, Critic: critic, Images: img, Policy: p, Log: log.With("component", "stories")}
}

// Create stores a new draft story for ngo and its slides. Errors are
// *apierr.Error values ready for the response.
func (s *Service) Create(ctx context.Context, ngo models.NGOIdentity, req models.StoryRequest) (*models.StoryCreateResponse, error) {
	ok, err := s.Repo.NGOExists(ctx, ngo.ID)
	if err != nil {
		return nil, apierr.Database(err)
	}
	if !ok {
		return nil, apierr.Forbidden("NGO not found")
	}

	story := models.StoryRow{
		ID:             uuid.NewString(),
		NGOID:          ngo.ID,
		Title:          req.Title,
		Topic:          req.Topic,
		AgeGroup:       req.AgeGroup,
		Language:       req.Language,
		RegionContext:  req.RegionContext,
		Description:    req.Description,
		MoralLesson:    req.MoralLesson,
		CharacterCount: req.CharacterCount,
		Status:         models.StatusDraft,
	}
	if err := s.Repo.Insert(ctx, story); err != nil {
		return nil, apierr.Database(err)
	}
	log := s.Log.With("story_id", story.ID, "ngo_id", ngo.ID)

	slides, err := s.draft(ctx, log, req)
	if err != nil {
		return nil, err
	}

	urls, err := s.Images.Generate(ctx, req, story.ID, slides)
	if err != nil {
		var ie *images.Error
		if errors.As(err, &ie) {
			log.Warn("slide image generation skipped", "reason", ie.Msg, "error", err)
		} else {
			log.Warn("slide image generation skipped", "error", err)
		}
		urls = make([]*string, len(slides))
	}

	rows := make([]models.SlideRow, len(slides))
	for i, sl := range slides {
		rows[i] = models.SlideRow{Position: sl.Position, Text: sl.Text, Choices: sl.Choices}
		if i < len(urls) {
			rows[i].ImageURL = urls[i]
		}
	}
	stored, err := s.Repo.InsertSlides(ctx, story.ID, rows)
	if err != nil {
		return nil, apierr.Database(err)
	}

	created, err := s.Repo.GetByID(ctx, story.ID)
	if err != nil || created == nil {
		created = &story
	}

	resp := &models.StoryCreateResponse{Story: created.API(), Slides: make([]models.StorySlide, len(stored))}
	for i, row := range stored {
		resp.Slides[i] = row.API()
	}
	return resp, nil
}

// draft produces the slides to store, applying the fallback policy of each
// stage.
func (s *Service) draft(ctx context.Context, log *logger.Logger, req models.StoryRequest) ([]models.Slide, error) {
	out, err := generation.SelectFallback(s.Gen.Generate(ctx, req), req, s.Policy.FallbackToDefault)
	if err != nil {
		metrics.StoryGenerated("failed")
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeGenerationFailed,
			errors.New("Story generation failed: "+err.Error()))
	}
	metrics.StoryGenerated(out.Source)
	if out.Err != nil {
		log.Warn("generation failed, using default slides", "reason", out.Err.Msg)
	}

	res, err := s.Critic.Apply(ctx, req, out.Slides)
	if err != nil {
		if s.Policy.StrictSafety {
			return nil, safetyFailed(err)
		}
		log.Warn("safety critic failed, falling back to default safe slides", "error", err)
		return generation.DefaultSlides(req), nil
	}

	if len(res.Issues) > 0 {
		log.Info("safety critic adjusted story", "issues", strings.Join(res.Issues, "; "))
	}
	if res.Review != nil {
		log.Info("safety critic llm review", "verdict", res.Review.Label(), "notes", res.Review.Notes)
		// only an explicit disapproval counts; an unreachable reviewer is advisory
		if s.Policy.RejectUnapproved && res.Review.Label() == "rejected" {
			return nil, safetyFailed(&safety.Error{Msg: "LLM review did not approve the story: " + res.Review.Notes})
		}
	}
	if out.Source == generation.SourceDefault {
		log.Info("created story using fallback slide generator")
	}
	return res.Slides, nil
}

func safetyFailed(err error) error {
	return apierr.New(http.StatusUnprocessableEntity, apierr.CodeSafetyFailed,
		errors.New("Safety validation failed: "+err.Error()))
}
