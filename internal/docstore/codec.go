package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// document is the in-memory representation. Values are compact JSON and are
// never modified in place, only replaced.
type document = orderedmap.OrderedMap[string, json.RawMessage]

func newDocument() *document {
	return orderedmap.New[string, json.RawMessage]()
}

// Codec configures how values and documents are encoded.
//
// Null values are always written explicitly.
type Codec struct {
	// EscapeHTML escapes <, > and & inside strings. The default codec leaves
	// them as is.
	EscapeHTML bool
	// Indent, when not empty, pretty-prints the file with this indent string.
	Indent string
}

// DefaultCodec is the codec used by [Initialize].
func DefaultCodec() Codec {
	return Codec{}
}

// encode returns the compact JSON encoding of v.
func (c Codec) encode(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(c.EscapeHTML)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeDocument serializes doc as a single JSON object in document order.
func (c Codec) encodeDocument(doc *document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for p := doc.Oldest(); p != nil; p = p.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := c.encode(p.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", p.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(p.Value)
	}
	buf.WriteByte('}')
	if c.Indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", c.Indent); err != nil {
		return nil, fmt.Errorf("failed to indent document: %w", err)
	}
	return out.Bytes(), nil
}

// errNotObject is wrapped when the file holds valid JSON that isn't an object.
var errNotObject = errors.New("top-level value is not an object")

// decodeDocument parses the content of a backing file.
//
// Empty content and a top-level null decode to an empty document. Key order
// follows the file; a repeated key keeps its first position and its last value.
func decodeDocument(data []byte) (*document, error) {
	data = bytes.TrimSpace(data)
	doc := newDocument()
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return doc, nil
	}
	if !json.Valid(data) {
		// Let encoding/json describe where it broke.
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return nil, errors.New("invalid JSON")
	}
	if data[0] != '{' {
		return nil, errNotObject
	}
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, offset int) error {
		if dataType == jsonparser.String {
			// ObjectEach strips the quotes; take the raw string from the source.
			value = data[offset-len(value)-2 : offset]
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, value); err != nil {
			return fmt.Errorf("value at %q: %w", key, err)
		}
		doc.Set(string(key), buf.Bytes())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// isNull reports whether raw is the JSON literal null.
func isNull(raw json.RawMessage) bool {
	return bytes.Equal(raw, []byte("null"))
}
