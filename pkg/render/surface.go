package render

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/cardsmith/pkg/errors"
)

// Surface is the target of a render in CSS pixels.
// PixelRatio is the device pixel ratio raster sinks multiply by; 0 means 1.
type Surface struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PixelRatio float64 `json:"pixelRatio,omitempty"`
}

// Surface presets used by the card hosts.
const (
	PresetThumbnail = "thumbnail"
	PresetBuilder   = "builder"
	PresetPublic    = "public"
)

var presets = map[string]Surface{
	PresetThumbnail: {Width: 84, Height: 48, PixelRatio: 2},
	PresetBuilder:   {Width: 700, Height: 400, PixelRatio: 1},
	PresetPublic:    {Width: 1200, Height: 686, PixelRatio: 2},
}

// Preset returns a named surface.
func Preset(name string) (Surface, error) {
	s, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Surface{}, errors.New(errors.ErrCodeInvalidSurface,
			"unknown surface preset %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
	}
	return s, nil
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseSurface parses a preset name or "WxH" with an optional "@ratio"
// suffix, e.g. "400x300" or "1200x686@2".
func ParseSurface(s string) (Surface, error) {
	if p, err := Preset(s); err == nil {
		return p, nil
	}

	size, ratio, hasRatio := strings.Cut(strings.TrimSpace(s), "@")
	w, h, ok := strings.Cut(strings.ToLower(size), "x")
	if !ok {
		return Surface{}, errors.New(errors.ErrCodeInvalidSurface, "invalid surface %q (want WxH[@ratio] or a preset)", s)
	}

	var out Surface
	var err error
	if out.Width, err = strconv.ParseFloat(strings.TrimSpace(w), 64); err != nil {
		return Surface{}, errors.Wrap(errors.ErrCodeInvalidSurface, err, "invalid surface width %q", w)
	}
	if out.Height, err = strconv.ParseFloat(strings.TrimSpace(h), 64); err != nil {
		return Surface{}, errors.Wrap(errors.ErrCodeInvalidSurface, err, "invalid surface height %q", h)
	}
	if hasRatio {
		if out.PixelRatio, err = strconv.ParseFloat(strings.TrimSpace(ratio), 64); err != nil {
			return Surface{}, errors.Wrap(errors.ErrCodeInvalidSurface, err, "invalid pixel ratio %q", ratio)
		}
	}
	return out, out.Validate()
}

// Validate rejects surfaces no renderer can paint: non-positive or
// non-finite dimensions, or a negative pixel ratio.
func (s Surface) Validate() error {
	if !(s.Width > 0) || math.IsInf(s.Width, 0) {
		return errors.New(errors.ErrCodeInvalidSurface, "surface width must be a positive number, got %v", s.Width)
	}
	if !(s.Height > 0) || math.IsInf(s.Height, 0) {
		return errors.New(errors.ErrCodeInvalidSurface, "surface height must be a positive number, got %v", s.Height)
	}
	if s.PixelRatio < 0 || math.IsNaN(s.PixelRatio) || math.IsInf(s.PixelRatio, 0) {
		return errors.New(errors.ErrCodeInvalidSurface, "pixel ratio must be a positive number, got %v", s.PixelRatio)
	}
	return nil
}

// Ratio returns PixelRatio, or 1 when unset.
func (s Surface) Ratio() float64 {
	if s.PixelRatio == 0 {
		return 1
	}
	return s.PixelRatio
}

// String formats s the way ParseSurface reads it.
func (s Surface) String() string {
	out := strconv.FormatFloat(s.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(s.Height, 'f', -1, 64)
	if s.PixelRatio != 0 && s.PixelRatio != 1 {
		out += "@" + strconv.FormatFloat(s.PixelRatio, 'f', -1, 64)
	}
	return out
}
