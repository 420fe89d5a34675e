package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ValidationSchemaVersion identifies the error-body layout understood by
// ParseValidationErrors.
//
// Version 1:
//  1. The body is a JSON object.
//  2. The keys "errors", "error", "detail" and "message" are envelopes. An
//     object value is read recursively. A string value holding a dictionary
//     is decoded as JSON, or failing that as a Python literal (single quotes,
//     True/False/None, ErrorDetail(string='...', code='...')).
//  3. Any other key names a field. Its message is the string value, the first
//     string of a list, or the "message"/"string" member of an object.
//  4. A body yielding no field message is a parse failure.
const ValidationSchemaVersion = 1

// ErrNoFieldErrors reports an error body without field-level messages.
var ErrNoFieldErrors = errors.New("error body carries no field errors")

const maxEnvelopeDepth = 4

var (
	envelopeKeys = map[string]struct{}{"errors": {}, "error": {}, "detail": {}, "message": {}}
	errorDetail  = regexp.MustCompile(`ErrorDetail\(string=('(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"),\s*code=(?:'[^']*'|"[^"]*")\)`)
)

// ParseValidationErrors extracts field messages from a rejected request body.
func ParseValidationErrors(body []byte) (map[string]string, error) {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("decode error body: %w", err)
	}
	obj, ok := root.(map[string]interface{})
	if !ok {
		return nil, ErrNoFieldErrors
	}
	fields := make(map[string]string)
	collectFields(obj, fields, 0)
	if len(fields) == 0 {
		return nil, ErrNoFieldErrors
	}
	return fields, nil
}

func collectFields(obj map[string]interface{}, out map[string]string, depth int) {
	if depth > maxEnvelopeDepth {
		return
	}
	for key, val := range obj {
		if _, envelope := envelopeKeys[key]; envelope {
			switch v := val.(type) {
			case map[string]interface{}:
				collectFields(v, out, depth+1)
			case string:
				if nested, ok := decodeEmbedded(v); ok {
					collectFields(nested, out, depth+1)
				}
			}
			continue
		}
		if msg := messageOf(val); msg != "" {
			if _, exists := out[key]; !exists {
				out[key] = msg
			}
		}
	}
}

func messageOf(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		for _, item := range t {
			if msg := messageOf(item); msg != "" {
				return msg
			}
		}
	case map[string]interface{}:
		for _, k := range []string{"message", "string"} {
			if s, ok := t[k].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func decodeEmbedded(raw string) (map[string]interface{}, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return obj, true
	}
	normalized, err := pythonLiteralToJSON(raw)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(normalized), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// pythonLiteralToJSON rewrites a Python dict/list literal of strings into JSON.
func pythonLiteralToJSON(src string) (string, error) {
	src = errorDetail.ReplaceAllString(src, "$1")

	var b strings.Builder
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\'' || c == '"':
			str, next, err := readQuoted(src, i)
			if err != nil {
				return "", err
			}
			quoted, _ := json.Marshal(str)
			b.Write(quoted)
			i = next
		case isIdentByte(c):
			j := i
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			switch word := src[i:j]; word {
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			case "None":
				b.WriteString("null")
			default:
				if isNumber(word) {
					b.WriteString(word)
				} else {
					return "", fmt.Errorf("unexpected identifier %q", word)
				}
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

func readQuoted(src string, start int) (string, int, error) {
	quote := src[start]
	var sb strings.Builder
	for j := start + 1; j < len(src); j++ {
		c := src[j]
		if c == quote {
			return sb.String(), j + 1, nil
		}
		if c == '\\' && j+1 < len(src) {
			j++
			switch next := src[j]; next {
			case '\'', '"', '\\':
				sb.WriteByte(next)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			continue
		}
		sb.WriteByte(c)
	}
	return "", 0, errors.New("unterminated string literal")
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isNumber(word string) bool {
	var f float64
	return json.Unmarshal([]byte(word), &f) == nil
}
