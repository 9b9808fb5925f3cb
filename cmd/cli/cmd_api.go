package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"safepath/pkg/models"
)

type tokenResponse struct {
	NGOID       string `json:"ngoId"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Sign up, log in or log out as an NGO"}

	var email, password, orgName string

	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp tokenResponse
			payload := map[string]string{"email": email, "password": password}
			if err := doJSON(cmd.Context(), http.MethodPost, baseURL+"/api/auth/ngo/login", "", payload, &resp); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := saveToken(tokenPath, resp.AccessToken); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (token valid %ds)\n", resp.Email, resp.ExpiresIn)
			return nil
		},
	}
	login.Flags().StringVar(&email, "email", "", "email address")
	login.Flags().StringVar(&password, "password", "", "password")
	_ = login.MarkFlagRequired("email")
	_ = login.MarkFlagRequired("password")

	signup := &cobra.Command{
		Use:   "signup",
		Short: "Create an NGO account and store the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp tokenResponse
			payload := map[string]string{"orgName": orgName, "email": email, "password": password}
			if err := doJSON(cmd.Context(), http.MethodPost, baseURL+"/api/auth/ngo/signup", "", payload, &resp); err != nil {
				return fmt.Errorf("signup failed: %w", err)
			}
			if err := saveToken(tokenPath, resp.AccessToken); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed up %s (ngo %s)\n", resp.Email, resp.NGOID)
			return nil
		},
	}
	signup.Flags().StringVar(&orgName, "org", "", "organization name")
	signup.Flags().StringVar(&email, "email", "", "email address")
	signup.Flags().StringVar(&password, "password", "", "password")
	_ = signup.MarkFlagRequired("org")
	_ = signup.MarkFlagRequired("email")
	_ = signup.MarkFlagRequired("password")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := clearToken(tokenPath); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}

	cmd.AddCommand(login, signup, logout)
	return cmd
}

func newStoriesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "stories", Short: "List, search, create and publish stories"}

	var status, topic, ageGroup string
	list := &cobra.Command{
		Use:   "list",
		Short: "List stories, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			qv := url.Values{}
			for k, v := range map[string]string{"status": status, "topic": topic, "age_group": ageGroup} {
				if v != "" {
					qv.Set(k, v)
				}
			}
			endpoint := baseURL + "/api/stories"
			if len(qv) > 0 {
				endpoint += "?" + qv.Encode()
			}
			var out []models.Story
			if err := doJSON(cmd.Context(), http.MethodGet, endpoint, "", nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	list.Flags().StringVar(&status, "status", "", "draft or published")
	list.Flags().StringVar(&topic, "topic", "", "topic filter")
	list.Flags().StringVar(&ageGroup, "age-group", "", "age group filter")

	var query string
	var limit, offset int
	search := &cobra.Command{
		Use:   "search",
		Short: "Search your stories by title and description",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := readToken(tokenPath)
			if err != nil {
				return err
			}
			qv := url.Values{"q": {query}, "limit": {strconv.Itoa(limit)}, "offset": {strconv.Itoa(offset)}}
			var out models.StorySearchResponse
			if err := doJSON(cmd.Context(), http.MethodGet, baseURL+"/api/stories/search?"+qv.Encode(), token, nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	search.Flags().StringVar(&query, "q", "", "search term")
	search.Flags().IntVar(&limit, "limit", 10, "page size (1-100)")
	search.Flags().IntVar(&offset, "offset", 0, "offset")
	_ = search.MarkFlagRequired("q")

	var req models.StoryRequest
	var region, lesson string
	create := &cobra.Command{
		Use:   "create",
		Short: "Generate and store a new draft story",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := readToken(tokenPath)
			if err != nil {
				return err
			}
			if region != "" {
				req.RegionContext = &region
			}
			if lesson != "" {
				req.MoralLesson = &lesson
			}
			var out models.StoryCreateResponse
			if err := doJSON(cmd.Context(), http.MethodPost, baseURL+"/api/stories", token, req, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	bindStoryFlags(create, &req, &region, &lesson)

	publish := &cobra.Command{
		Use:   "publish <story-id>",
		Short: "Publish one of your draft stories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(tokenPath)
			if err != nil {
				return err
			}
			var out models.Story
			endpoint := baseURL + "/api/stories/" + url.PathEscape(args[0]) + "/publish"
			if err := doJSON(cmd.Context(), http.MethodPatch, endpoint, token, nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.AddCommand(list, search, create, publish)
	return cmd
}

func bindStoryFlags(cmd *cobra.Command, req *models.StoryRequest, region, lesson *string) {
	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "story title")
	f.StringVar(&req.Topic, "topic", "", "safety topic")
	f.StringVar(&req.AgeGroup, "age-group", "6-8", "target age group")
	f.StringVar(&req.Language, "language", "English", "story language")
	f.IntVar(&req.CharacterCount, "characters", 1, "number of characters (1-4)")
	f.StringVar(&req.Description, "description", "", "short description")
	f.StringVar(region, "region", "", "regional setting")
	f.StringVar(lesson, "lesson", "", "moral lesson")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("topic")
}
