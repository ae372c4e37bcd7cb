// Package template defines the visual Template document and its validator.
//
// A Template is an admin-authored, versioned design: a background, typography
// defaults, an aspect ratio, a fixed reference canvas and an ordered list of
// Elements. Element order is paint order, back to front.
//
// # Elements
//
// [Element] is a closed sum type over [Text], [Shape] and [Image]. Code that
// needs to branch on the variant implements [Visitor]; adding a variant adds a
// Visitor method, so every consumer fails to compile until it handles it.
//
// All positions and sizes are in the reference coordinate space
// (ReferenceWidth × ReferenceHeight), independent of any display size.
//
// # Validation
//
// [Validate] collects every problem instead of stopping at the first, so a
// builder UI can show them together. Elements placed outside the reference
// canvas are deliberately not errors; the renderer clamps them.
//
// # Immutability
//
// A committed Template is never edited in place. Edits happen on a draft (see
// package draft) that commits a new version. Use [Template.Clone] before
// handing a Template to code that might mutate it.
//
// # Wire format
//
// Templates travel as JSON with camelCase keys; elements carry a "type"
// discriminator:
//
//	{
//	  "id": "modern",
//	  "version": 3,
//	  "design": {
//	    "aspectRatio": "standard",
//	    "referenceWidth": 700,
//	    "referenceHeight": 400,
//	    "elements": [
//	      {"type": "shape", "id": "bg", "x": 0, "y": 0, "width": 700, "height": 400, "fill": "#1e293b"},
//	      {"type": "text", "id": "name", "x": 40, "y": 60, "content": "fullName", "isBinding": true, "fontSize": 32}
//	    ]
//	  }
//	}
//
// YAML documents with the same shape are accepted by [Decode] and [ReadFile].
package template
