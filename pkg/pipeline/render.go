package pipeline

import (
	"fmt"

	"github.com/matzehuels/cardsmith/pkg/render"
	"github.com/matzehuels/cardsmith/pkg/render/sink"
)

// RenderArtifacts encodes scene in every requested format.
func RenderArtifacts(scene render.Scene, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := RenderFormat(scene, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderFormat encodes scene in one format.
func RenderFormat(scene render.Scene, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		var svgOpts []sink.SVGOption
		if opts.HitRegions {
			svgOpts = append(svgOpts, sink.WithHitRegions())
		}
		return sink.RenderSVG(scene, svgOpts...), nil
	case FormatPNG:
		return sink.RenderPNG(scene, sink.WithScale(opts.Surface.Ratio()))
	case FormatJSON:
		return sink.RenderJSON(scene)
	}
	return nil, ValidateFormat(format)
}
