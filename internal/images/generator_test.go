package images

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safepath/pkg/models"
	"safepath/pkg/utils"
)

func storyReq() models.StoryRequest {
	return models.StoryRequest{Title: "Pool Day", Topic: "Water Safety!", AgeGroup: "6-8"}
}

func twoSlides() []models.Slide {
	return []models.Slide{{Position: 1, Text: "At the pool."}, {Position: 2, Text: "Call a lifeguard."}}
}

func TestGenerate_Placeholder(t *testing.T) {
	g := New(utils.DefaultConfig().Images, nil)

	urls, err := g.Generate(context.Background(), storyReq(), "s1", twoSlides())
	require.NoError(t, err)
	require.Len(t, urls, 2)
	for _, u := range urls {
		require.NotNil(t, u)
		assert.Equal(t, PlaceholderURL, *u)
	}
}

func TestGenerate_Off(t *testing.T) {
	cfg := utils.DefaultConfig().Images
	cfg.Mode = ModeOff

	urls, err := New(cfg, nil).Generate(context.Background(), storyReq(), "s1", twoSlides())
	require.NoError(t, err)
	assert.Equal(t, []*string{nil, nil}, urls)
}

func TestGenerate_RenderWritesDeterministicFiles(t *testing.T) {
	cfg := utils.DefaultConfig().Images
	cfg.Mode = ModeRender
	cfg.Dir = t.TempDir()
	cfg.Width, cfg.Height = 96, 96
	cfg.PublicBaseURL = "http://cdn.test/"
	cfg.URLPath = "/generated-images/"

	g := New(cfg, nil)
	urls, err := g.Generate(context.Background(), storyReq(), "story-1", twoSlides())
	require.NoError(t, err)
	require.Len(t, urls, 2)

	name := FileName("story-1", 1, "Water Safety!", Prompt(storyReq(), twoSlides()[0]))
	assert.Equal(t, "http://cdn.test/generated-images/"+name, *urls[0])
	assert.True(t, strings.HasPrefix(name, "story-1-1-water-safety-"))

	f, err := os.Open(filepath.Join(cfg.Dir, name))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 96, img.Bounds().Dx())

	// second run reuses the files
	info, err := os.Stat(filepath.Join(cfg.Dir, name))
	require.NoError(t, err)
	again, err := g.Generate(context.Background(), storyReq(), "story-1", twoSlides())
	require.NoError(t, err)
	assert.Equal(t, *urls[1], *again[1])
	info2, err := os.Stat(filepath.Join(cfg.Dir, name))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), info2.ModTime())
}

func TestGenerate_RenderCancelled(t *testing.T) {
	cfg := utils.DefaultConfig().Images
	cfg.Mode = ModeRender
	cfg.Dir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg, nil).Generate(ctx, storyReq(), "s", twoSlides())
	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Image generation failed for slide 1", ie.Msg)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "scene", Slug("  !!! "))
	assert.Equal(t, "stranger-danger", Slug("Stranger  Danger"))
	assert.Equal(t, Seed("a", 1, "t"), Seed("a", 1, "t"))
	assert.NotEqual(t, Seed("a", 1, "t"), Seed("a", 2, "t"))

	p := Prompt(storyReq(), models.Slide{Text: strings.Repeat("x", 400)})
	assert.Contains(t, p, "setting Indian neighborhood, scene: "+strings.Repeat("x", 300)+".")
}
