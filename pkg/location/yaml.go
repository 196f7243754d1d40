// pkg/location/yaml.go

package location

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/config"
	"gopkg.in/yaml.v3"
)

// yamlLocate navigates the yaml.v3 node tree; scalar nodes carry line and
// column, which map back onto byte offsets for the minimal-edit splice.
func yamlLocate(data []byte, atoms []config.Atom) (span, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return span{}, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return span{}, fmt.Errorf("empty document")
	}

	node, err := yamlDescend(root.Content[0], atoms)
	if err != nil {
		return span{}, err
	}
	if node.Kind != yaml.ScalarNode {
		return span{}, fmt.Errorf("selected value is not a scalar")
	}

	offset, err := lineColOffset(data, node.Line, node.Column)
	if err != nil {
		return span{}, err
	}

	switch node.Style {
	case yaml.DoubleQuotedStyle, yaml.SingleQuotedStyle:
		// Version strings have no escapes, so the token is value plus quotes.
		return span{start: offset + 1, end: offset + 1 + len(node.Value), value: node.Value}, nil
	case 0, yaml.TaggedStyle:
		return span{start: offset, end: offset + len(node.Value), value: node.Value}, nil
	}
	return span{}, fmt.Errorf("unsupported scalar style for a version value")
}

func yamlDescend(node *yaml.Node, atoms []config.Atom) (*yaml.Node, error) {
	if len(atoms) == 0 {
		return node, nil
	}
	head := atoms[0]

	switch node.Kind {
	case yaml.MappingNode:
		if head.IsIndex && !head.Ambiguous {
			return nil, fmt.Errorf("index %d into a mapping", head.Index)
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == head.Key {
				return yamlDescend(node.Content[i+1], atoms[1:])
			}
		}
		return nil, fmt.Errorf("key %q not found", head.Key)

	case yaml.SequenceNode:
		if !head.IsIndex && !head.Ambiguous {
			return nil, fmt.Errorf("key %q into a sequence", head.Key)
		}
		if head.Index >= len(node.Content) {
			return nil, fmt.Errorf("index %d out of range", head.Index)
		}
		return yamlDescend(node.Content[head.Index], atoms[1:])
	}
	return nil, fmt.Errorf("selector descends into a scalar")
}

// lineColOffset converts a 1-based line and column into a byte offset.
func lineColOffset(data []byte, line, col int) (int, error) {
	current := 1
	offset := 0
	for current < line {
		for offset < len(data) && data[offset] != '\n' {
			offset++
		}
		if offset >= len(data) {
			return 0, fmt.Errorf("line %d beyond end of file", line)
		}
		offset++ // the newline
		current++
	}
	offset += col - 1
	if offset > len(data) {
		return 0, fmt.Errorf("column %d beyond end of line %d", col, line)
	}
	return offset, nil
}
