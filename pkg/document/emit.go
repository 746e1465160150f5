package document

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"
)

// Indent is the number of spaces per nesting level in emitted YAML.
const Indent = 2

// Emit renders n as a single YAML document. The output is a pure function of
// the tree: emitting the same tree twice yields identical bytes.
func Emit(n Node) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(Indent)

	if err := encode(enc, n); err != nil {
		return nil, err
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flushing YAML encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// EmitAll renders nodes as a multi-document YAML stream separated by "---".
func EmitAll(nodes ...Node) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(Indent)

	for i, n := range nodes {
		if err := encode(enc, n); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flushing YAML encoder: %w", err)
	}

	return buf.Bytes(), nil
}

func encode(enc *yaml.Encoder, n Node) error {
	yn, err := toYAML(n)
	if err != nil {
		return err
	}

	if err := enc.Encode(yn); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}

	return nil
}

// toYAML converts a document tree into a yaml.v3 node tree. Explicit core
// tags make the encoder quote strings such as "true" or "8080" that would
// otherwise be read back as another type under YAML 1.2; stringNode covers
// the YAML 1.1 forms.
func toYAML(n Node) (*yaml.Node, error) {
	switch v := n.(type) {
	case *Scalar:
		if v == nil {
			return nil, fmt.Errorf("nil scalar")
		}

		if v.Type == StringScalar {
			return stringNode(v.Value), nil
		}

		return &yaml.Node{Kind: yaml.ScalarNode, Tag: scalarTag(v.Type), Value: v.Value}, nil
	case *Sequence:
		if v == nil {
			return nil, fmt.Errorf("nil sequence")
		}

		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}

		for i, item := range v.Items {
			yi, err := toYAML(item)
			if err != nil {
				return nil, fmt.Errorf("sequence item %d: %w", i, err)
			}

			out.Content = append(out.Content, yi)
		}

		return out, nil
	case *Mapping:
		if v == nil {
			return nil, fmt.Errorf("nil mapping")
		}

		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

		for _, k := range v.keys {
			yv, err := toYAML(v.values[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}

			out.Content = append(out.Content,
				stringNode(k),
				yv,
			)
		}

		return out, nil
	case nil:
		return nil, fmt.Errorf("nil document node")
	default:
		return nil, fmt.Errorf("unsupported document node %T", n)
	}
}

func scalarTag(t ScalarType) string {
	switch t {
	case IntScalar:
		return "!!int"
	case FloatScalar:
		return "!!float"
	case BoolScalar:
		return "!!bool"
	default:
		return "!!str"
	}
}

// stringNode returns a string scalar. Helm and the API server read manifests
// with sigs.k8s.io/yaml, which follows YAML 1.1: yes, on and n are booleans
// there, and 0b1 or 1_000 are numbers. A plain string such a reader would
// resolve to another scalar type is double-quoted. yaml.v3 already quotes
// strings that are not valid plain scalars.
func stringNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}

	if resolvesToNonString(s) {
		n.Style = yaml.DoubleQuotedStyle
	}

	return n
}

func resolvesToNonString(s string) bool {
	var v any
	if err := sigsyaml.Unmarshal([]byte(s), &v); err != nil {
		return false
	}

	switch v.(type) {
	case nil, bool, float64:
		return true
	default:
		return false
	}
}
