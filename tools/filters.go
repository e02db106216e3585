package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Filter is an equality condition on one column.
type Filter struct {
	Column string
	Value  string
}

// Filters is an ordered set of equality conditions. It decodes from a JSON
// object and keeps the key order of the document.
type Filters []Filter

func (f *Filters) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("filters must be a JSON object")
	}
	var out Filters
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var value string
		switch v := raw.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		case bool:
			value = fmt.Sprint(v)
		default:
			return fmt.Errorf("filter %q must be a string or a number", key)
		}
		out = append(out, Filter{Column: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

func (f Filters) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, filter := range f {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(filter.Column)
		v, _ := json.Marshal(filter.Value)
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// String renders the filters the way they are quoted back to the user,
// e.g. {'Region': 'North'}.
func (f Filters) String() string {
	parts := make([]string, len(f))
	for i, filter := range f {
		parts[i] = fmt.Sprintf("%s: %s", quote(filter.Column), quote(filter.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
