package sink

import (
	"encoding/json"

	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/render"
)

// RenderJSON exports scene as a pretty-printed SceneGraph document. Hosts
// that paint cards themselves (a DOM thumbnail, a canvas builder) consume
// this form directly.
func RenderJSON(scene render.Scene) ([]byte, error) {
	if scene.Nodes == nil {
		scene.Nodes = []render.Node{}
	}
	return json.MarshalIndent(scene, "", "  ")
}

// ReadJSON decodes a document produced by [RenderJSON].
func ReadJSON(data []byte) (render.Scene, error) {
	var scene render.Scene
	if err := json.Unmarshal(data, &scene); err != nil {
		return render.Scene{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode scene")
	}
	return scene, nil
}
