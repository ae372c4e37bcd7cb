// Package sink paints a [render.Scene] in concrete output formats.
//
// # Overview
//
// Every sink receives the same Scene and only decides how to paint it:
//
//   - SVG: vector output with gradients and an optional builder overlay
//   - PNG: raster output at the scene's pixel ratio
//   - JSON: the SceneGraph itself, for hosts that paint on their own
//
// # SVG Output
//
// [RenderSVG] writes nodes in paint order inside a clip path matching the
// scene frame. Fills of the form linear-gradient(...) become
// <linearGradient> definitions.
//
//	svg := sink.RenderSVG(scene, sink.WithHitRegions())
//
// [WithHitRegions] appends a transparent rect per node carrying
// data-element-id, which the interactive builder uses for selection and
// dragging. Thumbnail and public views leave it off.
//
// # PNG Output
//
// [RenderPNG] rasterizes in-process. Colors accept hex, rgb()/rgba() and
// common names. Image nodes are drawn as placeholders since sinks never do
// network I/O.
//
//	png, err := sink.RenderPNG(scene, sink.WithScale(3))
//
// [render.Scene]: github.com/matzehuels/cardsmith/pkg/render.Scene
package sink
