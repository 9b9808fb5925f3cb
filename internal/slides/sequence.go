package slides

import (
	"strconv"

	"safepath/pkg/models"
)

// DefaultChoiceID maps a candidate index to "a".."z", then "27", "28", ...
func DefaultChoiceID(idx int) string {
	if idx >= 0 && idx < 26 {
		return string(rune('a' + idx))
	}
	return strconv.Itoa(idx + 1)
}

// Resequence assigns positions 1..N in list order.
func Resequence(in []models.Slide) []models.Slide {
	for i := range in {
		in[i].Position = i + 1
	}
	return in
}

// Insert places s at index min(at, len(in)).
func Insert(in []models.Slide, at int, s models.Slide) []models.Slide {
	if at > len(in) {
		at = len(in)
	}
	out := make([]models.Slide, 0, len(in)+1)
	out = append(out, in[:at]...)
	out = append(out, s)
	out = append(out, in[at:]...)
	return out
}
