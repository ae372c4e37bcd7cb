// Package render turns a Template and a resolved card view into a SceneGraph.
//
// # Overview
//
// [Render] is the one place where template coordinates meet a concrete
// output size. It is pure: no I/O, no shared state, and byte-identical output
// for identical input, so it is safe to call from any number of goroutines.
//
//	view := card.Resolve(rec, owner)
//	scene, err := render.Render(tpl, view, render.Surface{Width: 400, Height: 300})
//
// # Scaling
//
// Templates are authored on a reference canvas (referenceWidth x
// referenceHeight). Render scales them uniformly by
//
//	s = min(surface.Width/referenceWidth, surface.Height/referenceHeight)
//
// and centers the result, leaving equal bars on the spare axis (letterboxing).
// Positions are clamped to the reference canvas first and Shape and Image
// rectangles are clipped to it, so nothing paints outside [Scene.Frame].
//
// # Bindings
//
// A Text element with IsBinding set is looked up in the view. Keys the view
// does not know render as "{{key}}" and add a [BindingWarning]; rendering
// never fails because of card data. The only error Render returns is an
// INVALID_SURFACE for a degenerate [Surface].
//
// # Output
//
// A [Scene] is technology independent. The [sink] subpackage paints it as
// SVG (with an optional builder hit-region overlay), PNG or JSON.
//
// [sink]: github.com/matzehuels/cardsmith/pkg/render/sink
package render
