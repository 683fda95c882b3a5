package codec

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/jsonshape/value"
)

// YAML is a Format that writes value trees as YAML documents. Mapping order
// is kept both ways. The zero value is ready to use.
type YAML struct{}

var _ Format = YAML{}

func (YAML) ID() FormatID { return FormatYAML }

func (YAML) Marshal(v value.Value) ([]byte, error) {
	return yaml.Marshal(toYAMLNode(v))
}

func (YAML) Unmarshal(b []byte) (value.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, err
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return value.Null{}, nil
		}
		node = node.Content[0]
	}
	if node.Kind == 0 {
		return value.Null{}, nil
	}
	return fromYAMLNode(node)
}

func toYAMLNode(v value.Value) *yaml.Node {
	switch x := value.Of(v).(type) {
	case value.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case value.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: x.String()}
	case value.Str:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(x)}
	case value.Number:
		tag := "!!float"
		if x.IsIntegral() {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: x.Literal()}
	case *value.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x.Values() {
			n.Content = append(n.Content, toYAMLNode(e))
		}
		return n
	case *value.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		x.Range(func(k string, m value.Value) bool {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				toYAMLNode(m),
			)
			return true
		})
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func fromYAMLNode(node *yaml.Node) (value.Value, error) {
	switch node.Kind {
	case yaml.MappingNode:
		obj := value.NewObjectCap(len(node.Content) / 2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: yaml %s key at line %d", ErrUnsupportedType, key.Tag, key.Line)
			}
			m, err := fromYAMLNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(key.Value, m)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := value.NewArrayCap(len(node.Content))
		for _, child := range node.Content {
			e, err := fromYAMLNode(child)
			if err != nil {
				return nil, err
			}
			arr.Append(e)
		}
		return arr, nil
	case yaml.AliasNode:
		if node.Alias != nil {
			return fromYAMLNode(node.Alias)
		}
		return value.Null{}, nil
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!str":
			return value.Str(node.Value), nil
		case "!!int":
			// keep the literal when it is already JSON-shaped (large ints)
			if n, err := value.ParseNumber(node.Value); err == nil {
				return n, nil
			}
		}
		var x any
		if err := node.Decode(&x); err != nil {
			return nil, err
		}
		return fromNative(x)
	}
	return nil, fmt.Errorf("%w: yaml node kind %d", ErrUnsupportedType, node.Kind)
}
