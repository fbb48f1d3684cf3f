package docstore

import (
	"encoding/json"
	"testing"

	"github.com/maruel/plugindata/internal/location"
)

func TestEncodeDocument(t *testing.T) {
	doc := newDocument()
	doc.Set("b", json.RawMessage(`1`))
	doc.Set("a<", json.RawMessage(`{"x":null}`))
	doc.Set("", json.RawMessage(`[]`))

	got, err := DefaultCodec().encodeDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"b":1,"a<":{"x":null},"":[]}`; string(got) != want {
		t.Errorf("encodeDocument() = %s, want %s", got, want)
	}

	got, err = Codec{EscapeHTML: true}.encodeDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"b":1,"a\u003c":{"x":null},"":[]}`; string(got) != want {
		t.Errorf("encodeDocument(EscapeHTML) = %s, want %s", got, want)
	}
}

func TestEncodeRawMessage(t *testing.T) {
	raw, err := DefaultCodec().encode(json.RawMessage(" { \"a\" : [ 1 ,2 ] } "))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"a":[1,2]}` {
		t.Errorf("encode() = %s", raw)
	}
	if _, err := DefaultCodec().encode(json.RawMessage("{")); err == nil {
		t.Error("invalid raw message accepted")
	}
}

func TestDecodeDocumentNotObject(t *testing.T) {
	for _, in := range []string{"[]", "1", `"s"`, "false"} {
		if _, err := decodeDocument([]byte(in)); err != errNotObject {
			t.Errorf("decodeDocument(%s) error = %v, want errNotObject", in, err)
		}
	}
}

func TestStoreMarshalJSON(t *testing.T) {
	s := newStore(t, newOwner(t), location.SharedRoot)
	if err := s.Set("x", []string{"<y>"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"x":["<y>"]}`; string(got) != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}
}
