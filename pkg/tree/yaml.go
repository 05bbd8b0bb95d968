package tree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode parses a YAML tree document, fills in parent ids and empty child
// lists, and validates the result.
func Decode(data []byte) (*Node, error) {
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decoding tree: %w", err)
	}
	normalize(&root, "")
	if err := Validate(&root); err != nil {
		return nil, fmt.Errorf("decoding tree: %w", err)
	}
	return &root, nil
}

// Encode renders a tree as YAML.
func Encode(root *Node) ([]byte, error) {
	return yaml.Marshal(root)
}

func normalize(n *Node, parent string) {
	n.ParentID = parent
	if n.Kind == "" {
		n.Kind = KindFile
	}
	if n.Kind.IsContainer() && n.Children == nil {
		n.Children = []*Node{}
	}
	for _, c := range n.Children {
		normalize(c, n.ID)
	}
}
