package generation

import (
	"regexp"
	"strconv"
	"strings"

	"safepath/pkg/models"
)

type Character struct {
	Skin    string `json:"skin"`
	Hair    string `json:"hair"`
	Clothes string `json:"clothes"`
}

// SceneContext is the planner's structured view of the story request.
type SceneContext struct {
	Age       int       `json:"age"`
	Location  string    `json:"location"`
	Character Character `json:"character"`
	Topic     string    `json:"topic"`
}

const defaultLocation = "school playground"

var digits = regexp.MustCompile(`\d+`)

// ParseAge reads "6-8" as 7, "10" as 10 and anything without digits as 8.
func ParseAge(ageGroup string) int {
	var nums []int
	for _, m := range digits.FindAllString(ageGroup, 2) {
		n, err := strconv.Atoi(m)
		if err == nil {
			nums = append(nums, n)
		}
	}
	switch len(nums) {
	case 0:
		return 8
	case 1:
		return nums[0]
	default:
		return (nums[0] + nums[1]) / 2
	}
}

func defaultCharacter() Character {
	return Character{Skin: "brown", Hair: "short black", Clothes: "school uniform"}
}

func DefaultContext(req models.StoryRequest) SceneContext {
	return SceneContext{
		Age:       ParseAge(req.AgeGroup),
		Location:  req.Region(defaultLocation),
		Character: defaultCharacter(),
		Topic:     req.Topic,
	}
}

// ValidateContext repairs the planner output field by field.
func ValidateContext(raw map[string]any, req models.StoryRequest) SceneContext {
	ctx := DefaultContext(req)

	// JSON numbers decode as float64; only whole values count as an age
	if f, ok := raw["age"].(float64); ok && f == float64(int(f)) {
		ctx.Age = int(f)
	}
	if s, ok := raw["location"].(string); ok && strings.TrimSpace(s) != "" {
		ctx.Location = s
	}
	if s, ok := raw["topic"].(string); ok && strings.TrimSpace(s) != "" {
		ctx.Topic = s
	}
	if ch, ok := raw["character"].(map[string]any); ok {
		if s, ok := ch["skin"].(string); ok {
			ctx.Character.Skin = s
		}
		if s, ok := ch["hair"].(string); ok {
			ctx.Character.Hair = s
		}
		if s, ok := ch["clothes"].(string); ok {
			ctx.Character.Clothes = s
		}
	}
	return ctx
}
