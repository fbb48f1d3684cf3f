package main

import (
	"errors"

	"gopkg.in/yaml.v3"
)

// jsonToYAML parses a JSON text, which is also YAML, into a node tree rendered
// in block style. Object keys keep their order and numbers keep their
// original spelling.
func jsonToYAML(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, errors.New("empty document")
	}
	n := doc.Content[0]
	blockStyle(n)
	return n, nil
}

// blockStyle drops the flow and quoting styles of the JSON source. Strings
// that would read as another type are still quoted by the encoder.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
