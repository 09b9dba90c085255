package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joeycumines/go-btcore/internal/btcore"
)

// parametersDocument is the shape of a YAML parameters file:
//
//	nodes:
//	  retry-open:
//	    num_attempts: 3
//	  wait:
//	    duration: 50ms
type parametersDocument struct {
	Nodes map[string]map[string]yaml.Node `yaml:"nodes"`
}

// LoadParametersYAML decodes per-node parameters. Scalar values are kept as
// their literal text, so "3" and 3 are the same parameter. Unknown top-level
// keys and non-scalar values are errors. An empty document yields an empty
// map.
func LoadParametersYAML(r io.Reader) (map[string]btcore.NodeParameters, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc parametersDocument
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding parameters: %w", err)
	}

	out := make(map[string]btcore.NodeParameters, len(doc.Nodes))
	for node, values := range doc.Nodes {
		params := make(btcore.NodeParameters, len(values))
		for key, v := range values {
			if v.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("node %q: parameter %q (line %d): expected a scalar", node, key, v.Line)
			}
			params[key] = v.Value
		}
		out[node] = params
	}
	return out, nil
}

// LoadParametersFile is LoadParametersYAML for a file path.
func LoadParametersFile(path string) (map[string]btcore.NodeParameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parameters file: %w", err)
	}
	defer f.Close()
	return LoadParametersYAML(f)
}
