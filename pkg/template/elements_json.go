package template

import (
	"encoding/json"
	"fmt"
)

// Elements is the ordered element list of a Design.
// It carries the JSON codec for the tagged union.
type Elements []Element

// wireHeader is decoded first to find the variant.
type wireHeader struct {
	Type Kind `json:"type"`
}

// MarshalJSON writes each element with its "type" discriminator first.
func (es Elements) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(es))
	for i, el := range es {
		var (
			data []byte
			err  error
		)
		switch e := el.(type) {
		case Text:
			data, err = json.Marshal(struct {
				Type Kind `json:"type"`
				Text
			}{KindText, e})
		case Shape:
			data, err = json.Marshal(struct {
				Type Kind `json:"type"`
				Shape
			}{KindShape, e})
		case Image:
			data, err = json.Marshal(struct {
				Type Kind `json:"type"`
				Image
			}{KindImage, e})
		default:
			err = fmt.Errorf("unsupported element type %T", el)
		}
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, data)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes each element according to its "type" field.
// Unknown keys are ignored; unknown types are an error.
func (es *Elements) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Elements, 0, len(raw))
	for i, msg := range raw {
		var h wireHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}

		el, err := decodeElement(h.Type, msg)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, el)
	}
	*es = out
	return nil
}

func decodeElement(kind Kind, msg json.RawMessage) (Element, error) {
	switch kind {
	case KindText:
		var e Text
		err := json.Unmarshal(msg, &e)
		return e, err
	case KindShape:
		var e Shape
		err := json.Unmarshal(msg, &e)
		return e, err
	case KindImage:
		var e Image
		err := json.Unmarshal(msg, &e)
		return e, err
	case "":
		return nil, fmt.Errorf("missing type")
	}
	return nil, fmt.Errorf("unknown type %q", kind)
}
