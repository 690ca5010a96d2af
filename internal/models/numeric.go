package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Numeric is a number field that older records store as a string.
//
// Unparseable values decode as invalid rather than failing the whole record.
type Numeric struct {
	Value float64
	Valid bool
}

// Num returns a valid [Numeric].
func Num(v float64) Numeric { return Numeric{Value: v, Valid: true} }

func (n Numeric) IsZero() bool { return !n.Valid }

// Int returns the value truncated toward zero.
func (n Numeric) Int() int { return int(n.Value) }

// String renders the value in its shortest form, or "" when invalid.
func (n Numeric) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = Numeric{}

	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			*n = Num(v)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	*n = Num(v)
	return nil
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
