package zones

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// decodeProperties walks a GeoJSON properties object and keeps its key order,
// which a map decode would lose.
func decodeProperties(raw json.RawMessage) ([]Property, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing properties: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("properties is not an object")
	}

	var props []Property
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing properties: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing properties: unexpected token %v", tok)
		}

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("parsing property %q: %w", key, err)
		}
		text, err := FormatValue(val)
		if err != nil {
			return nil, fmt.Errorf("parsing property %q: %w", key, err)
		}
		props = append(props, Property{Key: key, Value: text})
	}
	return props, nil
}

// FormatValue renders a raw JSON value as display text: strings unquoted,
// numbers and booleans as written, null as empty, objects and arrays as
// compact JSON. Values keep their GeoJSON spelling, so null is not shown as
// None, true is not capitalised and 1.50 is not shortened to 1.5.
func FormatValue(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case 'n':
		return "", nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(raw), nil
	}
}

// lookup returns the value of key. With duplicate keys the last one wins,
// as with encoding/json.
func lookup(props []Property, key string) (string, bool) {
	for i := len(props) - 1; i >= 0; i-- {
		if props[i].Key == key {
			return props[i].Value, true
		}
	}
	return "", false
}
