// ABOUTME: Args preserves tool-call argument order as a list of name/value fields.
// ABOUTME: JSON round-trips keep the backend's key order, which plain maps would lose.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a single named argument with its raw JSON value.
type Field struct {
	Name  string
	Value json.RawMessage
}

// Args is an ordered set of tool-call arguments. The zero value is empty
// and ready to use.
type Args []Field

// Get returns the value for name and whether it was present.
func (a Args) Get(name string) (json.RawMessage, bool) {
	for _, f := range a {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set marshals value and stores it under name, replacing an existing
// field in place or appending a new one at the end.
func (a *Args) Set(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal arg %q: %w", name, err)
	}
	for i, f := range *a {
		if f.Name == name {
			(*a)[i].Value = raw
			return nil
		}
	}
	*a = append(*a, Field{Name: name, Value: raw})
	return nil
}

// Len returns the number of fields.
func (a Args) Len() int { return len(a) }

// Keys returns the field names in order.
func (a Args) Keys() []string {
	keys := make([]string, len(a))
	for i, f := range a {
		keys[i] = f.Name
	}
	return keys
}

// Clone returns a deep copy that shares no memory with the receiver.
func (a Args) Clone() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	for i, f := range a {
		out[i] = Field{Name: f.Name, Value: bytes.Clone(f.Value)}
	}
	return out
}

// MarshalJSON writes the fields as a JSON object in insertion order.
func (a Args) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal arg key %q: %w", f.Name, err)
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(f.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object token by token so field order
// survives the trip through the decoder.
func (a *Args) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read args: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("args must be a JSON object, got %v", tok)
	}

	fields := make(Args, 0, 4)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read args key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("args key must be a string, got %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("read args value for %q: %w", key, err)
		}
		fields = append(fields, Field{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read args close: %w", err)
	}

	*a = fields
	return nil
}
