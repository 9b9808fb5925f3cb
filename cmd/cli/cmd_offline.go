package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"safepath/internal/generation"
	"safepath/internal/safety"
	"safepath/internal/slides"
	"safepath/pkg/database"
	"safepath/pkg/logger"
	"safepath/pkg/models"
	"safepath/pkg/utils"
)

// criticInput is the file format of the critic command. Slides may be any
// shape the model would produce ({"slides": [...]}, a bare list, ...).
type criticInput struct {
	Request models.StoryRequest `json:"request"`
	Slides  any                 `json:"slides"`
}

type criticOutput struct {
	Slides []models.Slide  `json:"slides"`
	Issues []string        `json:"issues"`
	Review *safety.Verdict `json:"review,omitempty"`
}

func newCriticCmd() *cobra.Command {
	var strict bool
	var maxLen int

	cmd := &cobra.Command{
		Use:   "critic <file.json|->",
		Short: "Run the normalizer and safety critic over a slide file without a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strict") {
				cfg.Safety.Strict = strict
			}
			if cmd.Flags().Changed("max-text-length") {
				cfg.Safety.MaxTextLength = maxLen
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			in, err := readCriticInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			out, err := runCritic(cmd, cfg.Safety, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on empty slide text instead of filling it")
	cmd.Flags().IntVar(&maxLen, "max-text-length", 0, "override the per-slide text cap")
	return cmd
}

func readCriticInput(stdin io.Reader, path string) (criticInput, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return criticInput{}, fmt.Errorf("read input: %w", err)
	}
	var in criticInput
	if err := json.Unmarshal(data, &in); err != nil {
		return criticInput{}, fmt.Errorf("parse input: %w", err)
	}
	if in.Request.Title == "" {
		in.Request.Title = "Untitled"
	}
	return in, nil
}

func runCritic(cmd *cobra.Command, cfg utils.SafetyConfig, in criticInput) (criticOutput, error) {
	raw := in.Slides
	if list, ok := raw.([]any); ok {
		raw = map[string]any{"slides": list}
	}
	normalized, err := slides.Normalize(raw, in.Request)
	if err != nil {
		return criticOutput{}, fmt.Errorf("normalize: %w", err)
	}

	res, err := safety.NewCritic(cfg, nil, logger.Nop()).Apply(cmd.Context(), in.Request, normalized)
	if err != nil {
		return criticOutput{}, err
	}
	issues := res.Issues
	if issues == nil {
		issues = []string{}
	}
	return criticOutput{Slides: res.Slides, Issues: issues, Review: res.Review}, nil
}

func newFallbackCmd() *cobra.Command {
	var req models.StoryRequest
	var region, lesson string

	cmd := &cobra.Command{
		Use:   "fallback",
		Short: "Print the template slides used when generation is unavailable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if region != "" {
				req.RegionContext = &region
			}
			if lesson != "" {
				req.MoralLesson = &lesson
			}
			return printJSON(cmd.OutOrStdout(), generation.DefaultSlides(req))
		},
	}
	bindStoryFlags(cmd, &req, &region, &lesson)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := utils.LoadConfig(configPath)
			if err != nil {
				return err
			}
			db, err := database.Open(database.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}
