package writers

import (
	"bufio"
	"bytes"
	"encoding/json"
)

type jsonProperty struct {
	key   string
	value any
}

// JSONWriter writes a JSON object whose keys keep insertion order.
type JSONWriter struct {
	out   string
	props []jsonProperty
}

// NewJSONWriter creates a writer for the given output path.
func NewJSONWriter(out string) *JSONWriter {
	return &JSONWriter{out: out}
}

// Path returns the output path.
func (w *JSONWriter) Path() string { return w.out }

// AddProperty appends a key. Adding an existing key replaces its value in place.
func (w *JSONWriter) AddProperty(key string, value any) {
	for i := range w.props {
		if w.props[i].key == key {
			w.props[i].value = value
			return
		}
	}
	w.props = append(w.props, jsonProperty{key: key, value: value})
}

// Keys returns the property keys in order.
func (w *JSONWriter) Keys() []string {
	keys := make([]string, len(w.props))
	for i, p := range w.props {
		keys[i] = p.key
	}
	return keys
}

// MarshalJSON encodes the properties as one ordered object.
func (w *JSONWriter) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range w.props {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Write writes the file with tab indentation. It reports whether the file was written.
func (w *JSONWriter) Write(overwrite bool) (bool, error) {
	return writeFile(w.out, overwrite, func(out *bufio.Writer) error {
		raw, err := w.MarshalJSON()
		if err != nil {
			return err
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "\t"); err != nil {
			return err
		}
		_, err = pretty.WriteTo(out)
		return err
	})
}
