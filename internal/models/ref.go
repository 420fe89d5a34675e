package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ref is the canonical identifier shape for organization, role, parent and
// class room references: a positive integer on the wire. Zero means unknown.
//
// Older API revisions (and sessions persisted by them) nest the id inside an
// object such as {"org_id": 3, "org_name": "..."}; decoding migrates those to
// the integer form and encoding always writes the integer.
type Ref int

var refObjectKeys = []string{"id", "org_id", "role_id", "parent_id", "class_id"}

// UnmarshalJSON accepts a number, a numeric string, null or a legacy nested object.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return r.parse(s)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		for _, key := range refObjectKeys {
			if raw, ok := obj[key]; ok {
				return r.UnmarshalJSON(raw)
			}
		}
		for key, raw := range obj {
			if strings.HasSuffix(key, "_id") {
				return r.UnmarshalJSON(raw)
			}
		}
		return fmt.Errorf("reference object has no id field")
	default:
		return r.parse(string(data))
	}
}

func (r *Ref) parse(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*r = 0
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		*r = Ref(n)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return fmt.Errorf("invalid reference %q", raw)
	}
	*r = Ref(int(f))
	return nil
}

// Int returns the reference as a plain int.
func (r Ref) Int() int { return int(r) }

// Valid reports whether the reference identifies something.
func (r Ref) Valid() bool { return r > 0 }

func (r Ref) String() string { return strconv.Itoa(int(r)) }

// Code is a string identifier that older API revisions sometimes send as a number.
type Code string

// UnmarshalJSON accepts a string, a number or null.
func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid code %s", string(data))
	}
	*c = Code(n.String())
	return nil
}

func (c Code) String() string { return string(c) }
