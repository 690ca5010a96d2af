package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is a movie identifier as it arrives on the wire, either a JSON number or a JSON string.
type ID struct {
	num   float64
	str   string
	isNum bool
	set   bool
}

// NumberID returns a numeric [ID].
func NumberID(n float64) ID { return ID{num: n, isNum: true, set: true} }

// StringID returns a string [ID].
func StringID(s string) ID { return ID{str: s, set: true} }

// IsZero reports whether the identifier was absent or null.
func (id ID) IsZero() bool { return !id.set }

// String returns the raw textual form without normalization.
func (id ID) String() string {
	if id.isNum {
		return strconv.FormatFloat(id.num, 'f', -1, 64)
	}
	return id.str
}

// Canonical returns the normalized form of the identifier, see [CanonicalID].
func (id ID) Canonical() string {
	if !id.set {
		return ""
	}
	if id.isNum {
		if positiveFinite(id.num) {
			return strconv.FormatFloat(id.num, 'f', -1, 64)
		}
		return strings.TrimSpace(id.String())
	}
	return CanonicalID(id.str)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*id = ID{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("invalid id %s: %w", b, err)
		}
		*id = StringID(s)
	default:
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid id %s: %w", b, err)
		}
		*id = NumberID(n)
	}
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	switch {
	case !id.set:
		return []byte("null"), nil
	case id.isNum:
		return json.Marshal(id.num)
	default:
		return json.Marshal(id.str)
	}
}

// CanonicalID normalizes a raw identifier.
//
// A value that parses as a finite number greater than zero is rendered as its shortest decimal form.
// Anything else is returned trimmed. An empty result means the identifier is unusable.
func CanonicalID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && positiveFinite(n) {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return trimmed
}

func positiveFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0) && n > 0
}
