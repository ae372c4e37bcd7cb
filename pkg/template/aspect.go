package template

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/cardsmith/pkg/errors"
)

// Ratio is a parsed aspect ratio W:H.
type Ratio struct {
	W, H float64
}

// Value returns W/H.
func (r Ratio) Value() float64 { return r.W / r.H }

// String formats the ratio as "W:H".
func (r Ratio) String() string {
	return strconv.FormatFloat(r.W, 'f', -1, 64) + ":" + strconv.FormatFloat(r.H, 'f', -1, 64)
}

// Named aspect ratio presets.
const (
	AspectStandard = "standard" // US business card, 3.5in × 2in
	AspectISO      = "iso"      // ISO/IEC 7810 ID-1, 85mm × 55mm
	AspectSquare   = "square"
	AspectVertical = "vertical" // standard card turned upright
	AspectWide     = "wide"
)

// AspectPresets maps preset names to their ratios.
var AspectPresets = map[string]Ratio{
	AspectStandard: {7, 4},
	AspectISO:      {85, 55},
	AspectSquare:   {1, 1},
	AspectVertical: {4, 7},
	AspectWide:     {16, 9},
}

// AspectPresetNames returns the preset names sorted alphabetically.
func AspectPresetNames() []string {
	names := make([]string, 0, len(AspectPresets))
	for name := range AspectPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseAspectRatio parses a preset name or a custom "W:H" string such as
// "3:2" or "1.75:1". Both sides must be positive finite numbers.
func ParseAspectRatio(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ratio{}, errors.New(errors.ErrCodeInvalidInput, "aspect ratio is required")
	}
	if r, ok := AspectPresets[strings.ToLower(s)]; ok {
		return r, nil
	}

	w, h, ok := strings.Cut(s, ":")
	if !ok {
		return Ratio{}, errors.New(errors.ErrCodeInvalidInput,
			"invalid aspect ratio %q (use W:H or one of: %s)", s, strings.Join(AspectPresetNames(), ", "))
	}

	rw, errW := parsePositive(w)
	rh, errH := parsePositive(h)
	if errW != nil || errH != nil {
		return Ratio{}, errors.New(errors.ErrCodeInvalidInput,
			"invalid aspect ratio %q (both sides must be positive numbers)", s)
	}
	return Ratio{W: rw, H: rh}, nil
}

func parsePositive(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, strconv.ErrRange
	}
	return f, nil
}
