package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/matzehuels/cardsmith/pkg/errors"
)

// Record is a sparse card or owner profile as decoded from JSON.
// Any key may be missing and values may have any JSON type. Keys that are not
// canonical field names are kept but ignored by [Resolve].
type Record map[string]any

// TemplateID returns the template reference carried by a card, if any.
func (r Record) TemplateID() string {
	s, _ := Stringify(r[TemplateIDKey])
	return s
}

// Decode reads a single JSON object into a Record.
// Numbers are kept as json.Number so large counters survive unchanged.
func Decode(r io.Reader) (Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode card record")
	}
	if rec == nil {
		rec = Record{}
	}
	return rec, nil
}

// ReadFile decodes a JSON record from path.
func ReadFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(bytes.NewReader(data))
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// textSanitizer strips every tag. Card values are plain text; markup typed
// into a card form must never reach an SVG or DOM surface as markup.
func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// Stringify converts a record value to display text.
// The second result is false when the value counts as absent.
//
// Policy:
//   - nil is absent
//   - strings have markup stripped and surrounding whitespace trimmed; an
//     empty result is absent
//   - integers and floats use their shortest decimal form; NaN and Inf are absent
//   - booleans become "true" or "false"
//   - slices join their non-absent elements with ", "
//   - anything else is encoded as compact JSON; empty objects are absent
func Stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return "", false
		}
		if strings.ContainsAny(s, "<>&") {
			s = strings.TrimSpace(html.UnescapeString(textSanitizer().Sanitize(s)))
		}
		return s, s != ""
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		f, err := x.Float64()
		if err != nil {
			return Stringify(string(x))
		}
		return formatFloat(f)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case bool:
		return strconv.FormatBool(x), true
	case []string:
		return joinParts(len(x), func(i int) any { return x[i] })
	case []any:
		return joinParts(len(x), func(i int) any { return x[i] })
	case fmt.Stringer:
		return Stringify(x.String())
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Stringify(fmt.Sprint(v))
	}
	s := string(data)
	if s == "{}" || s == "null" || s == `""` {
		return "", false
	}
	return s, true
}

// CountOf converts a record value to a non-negative counter.
// The second result is false when the value counts as absent.
//
// Numbers are truncated toward zero and negative values clamp to 0. Numeric
// strings are parsed the same way. Every other type is absent. Unlike text, a
// present zero is a real value and stops the fallback chain.
func CountOf(v any) (int64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return clampCount(i), true
		}
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		return clampCount(int64(x)), true
	case int64:
		return clampCount(x), true
	case int32:
		return clampCount(int64(x)), true
	case uint:
		return clampUint(uint64(x)), true
	case uint64:
		return clampUint(x), true
	case uint32:
		return int64(x), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f <= 0 {
		return 0, true
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(f), true
}

func formatFloat(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

func joinParts(n int, at func(int) any) (string, bool) {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if s, ok := Stringify(at(i)); ok {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ", "), true
}

func clampCount(i int64) int64 {
	if i < 0 {
		return 0
	}
	return i
}

func clampUint(u uint64) int64 {
	if u > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}
