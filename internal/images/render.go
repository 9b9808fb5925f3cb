package images

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Palettes keyed by a topic keyword; the first match wins.
var palettes = []struct {
	keyword string
	colors  []string
}{
	{"water", []string{"#1E88E5", "#00ACC1", "#1A237E"}},
	{"fire", []string{"#E53935", "#FB8C00", "#FDD835"}},
	{"stranger", []string{"#8E24AA", "#7E57C2", "#D81B60"}},
	{"bullying", []string{"#43A047", "#00897B", "#C0CA33"}},
	{"body", []string{"#EC407A", "#F06292", "#FF7043"}},
}

var defaultPalette = []string{"#1E88E5", "#8E24AA", "#43A047", "#FB8C00", "#E53935"}

func paletteFor(topic string) []string {
	topic = strings.ToLower(topic)
	for _, p := range palettes {
		if strings.Contains(topic, p.keyword) {
			return p.colors
		}
	}
	return defaultPalette
}

// Card is a flat illustration: tinted background, soft seeded shapes and the
// slide text.
type Card struct {
	Width  int
	Height int
	Seed   uint32
	Topic  string
	Text   string
}

func (c Card) draw() *gg.Context {
	w, h := c.Width, c.Height
	if w <= 0 {
		w = 384
	}
	if h <= 0 {
		h = 384
	}
	rng := rand.New(rand.NewSource(int64(c.Seed)))
	colors := paletteFor(c.Topic)

	dc := gg.NewContext(w, h)
	dc.SetHexColor(colors[int(c.Seed)%len(colors)])
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	for i := 0; i < 6; i++ {
		dc.SetHexColor(colors[rng.Intn(len(colors))])
		x := rng.Float64() * float64(w)
		y := rng.Float64() * float64(h) * 0.6
		r := (0.08 + rng.Float64()*0.12) * float64(w)
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}

	// text panel
	pad := float64(w) * 0.06
	panelY := float64(h) * 0.62
	dc.SetRGBA(1, 1, 1, 0.88)
	dc.DrawRoundedRectangle(pad, panelY, float64(w)-2*pad, float64(h)-panelY-pad, 12)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(0.15, 0.15, 0.2)
	dc.DrawStringWrapped(c.Text, pad*2, panelY+pad, 0, 0, float64(w)-4*pad, 1.3, gg.AlignLeft)
	return dc
}

func (c Card) Save(path string) error {
	if err := c.draw().SavePNG(path); err != nil {
		return fmt.Errorf("save png %s: %w", path, err)
	}
	return nil
}
