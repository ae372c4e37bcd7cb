package card

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// View is a ResolvedCardView: a total mapping from canonical field to display
// value. A View is immutable once built and safe for concurrent reads.
// Even the zero View is total; it reports the defaults.
type View struct {
	text   map[Field]string
	counts map[Field]int64
}

// Resolve merges a card with an optional owner profile into a total View.
//
// For each text field the value is card[field] when present, else the first
// present owner profile key mapped to that field, else [Defaults]. Count
// fields follow the same chain through the profile's field of the same name
// and default to 0. Resolve is pure and never fails; owner may be nil.
func Resolve(c, owner Record) View {
	v := View{
		text:   make(map[Field]string, len(TextFields)),
		counts: make(map[Field]int64, len(CountFields)),
	}

	for _, f := range TextFields {
		v.text[f] = resolveText(f, c, owner)
	}
	for _, f := range CountFields {
		v.counts[f] = resolveCount(f, c, owner)
	}
	return v
}

func resolveCount(f Field, c, owner Record) int64 {
	if n, ok := CountOf(c[string(f)]); ok {
		return n
	}
	if n, ok := CountOf(owner[string(f)]); ok {
		return n
	}
	return 0
}

func resolveText(f Field, c, owner Record) string {
	if s, ok := Stringify(c[string(f)]); ok {
		return s
	}
	for _, key := range profileKeys[f] {
		if s, ok := Stringify(owner[key]); ok {
			return s
		}
	}
	return Defaults[f]
}

// Text returns the display text for a text field.
// Unknown fields return the empty string.
func (v View) Text(f Field) string {
	if s, ok := v.text[f]; ok {
		return s
	}
	return Defaults[f]
}

// Count returns the value of a count field, 0 when unknown.
func (v View) Count(f Field) int64 {
	return v.counts[f]
}

// Lookup returns the display string for a binding key.
// Counts are formatted in decimal. ok is false only when key is not a
// canonical field name.
func (v View) Lookup(key string) (string, bool) {
	f := Field(key)
	switch {
	case f.IsText():
		return v.Text(f), true
	case f.IsCount():
		return strconv.FormatInt(v.Count(f), 10), true
	}
	return "", false
}

// Fields returns every field of the view in canonical order.
func (v View) Fields() []Field { return AllFields() }

// Map returns the view as a plain map of display strings.
func (v View) Map() map[string]string {
	out := make(map[string]string, len(TextFields)+len(CountFields))
	for _, f := range AllFields() {
		s, _ := v.Lookup(string(f))
		out[string(f)] = s
	}
	return out
}

// Hash returns a stable SHA-256 hex digest of the view's values.
// Two views with equal values always hash equal; it keys render memoization.
func (v View) Hash() string {
	h := sha256.New()
	for _, f := range AllFields() {
		s, _ := v.Lookup(string(f))
		h.Write([]byte(f))
		h.Write([]byte{0})
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MarshalJSON encodes text fields as strings and count fields as numbers.
func (v View) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(TextFields)+len(CountFields))
	for _, f := range TextFields {
		out[string(f)] = v.Text(f)
	}
	for _, f := range CountFields {
		out[string(f)] = v.Count(f)
	}
	return json.Marshal(out)
}
