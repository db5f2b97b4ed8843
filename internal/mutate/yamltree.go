package mutate

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/roadmap"
)

// editYAMLTree applies an update to one step by editing the decoded YAML
// tree and re-encoding the block body. It handles entries that have no key
// lines to edit in place, such as flow mappings. Comments and scalar styles
// survive; indentation is normalized.
func editYAMLTree(doc string, block *roadmap.YAMLBlock, id string, next roadmap.Node, upd NodeUpdate) (string, error) {
	src := doc[block.Body.Start:block.Body.End]

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(src), &root); err != nil {
		return doc, errors.NewMutationError("cannot decode roadmap block", err).WithNodeID(id)
	}
	step := findYAMLStep(&root, id)
	if step == nil {
		return doc, errors.NewMutationError("no step with this id in roadmap block", errors.ErrNodeNotFound).WithNodeID(id)
	}

	existingStatus := ""
	if v := mappingValue(step, "status"); v != nil {
		existingStatus = v.Value
	}
	if text, ok := statusText(existingStatus, next, upd); ok {
		setMappingValue(step, "status", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: text})
	}
	if !upd.Plan.IsPreserve() {
		setMappingValue(step, "plan", refNode(next.Plan))
	}
	if !upd.PR.IsPreserve() {
		setMappingValue(step, "pr", refNode(next.PR))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return doc, errors.NewMutationError("cannot encode roadmap block", err).WithNodeID(id)
	}
	if err := enc.Close(); err != nil {
		return doc, errors.NewMutationError("cannot encode roadmap block", err).WithNodeID(id)
	}
	return doc[:block.Body.Start] + buf.String() + doc[block.Body.End:], nil
}

// findYAMLStep returns the mapping of the step whose id is id.
func findYAMLStep(root *yaml.Node, id string) *yaml.Node {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	steps := mappingValue(root.Content[0], "steps")
	if steps == nil || steps.Kind != yaml.SequenceNode {
		return nil
	}
	for _, item := range steps.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		if v := mappingValue(item, "id"); v != nil && v.Value == id {
			return item
		}
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// setMappingValue replaces the value under key, keeping its comments, or
// appends the key when the mapping lacks it.
func setMappingValue(m *yaml.Node, key string, value *yaml.Node) {
	if v := mappingValue(m, key); v != nil {
		value.HeadComment, value.LineComment, value.FootComment = v.HeadComment, v.LineComment, v.FootComment
		*v = *value
		return
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func refNode(ref string) *yaml.Node {
	if ref = roadmap.NormalizeRef(ref); ref == "" {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ref, Style: yaml.DoubleQuotedStyle}
}

// yamlStepMatches reports whether doc still holds a decodable roadmap block
// whose step id carries the status, plan and PR of want.
func yamlStepMatches(doc, id string, want roadmap.Node) error {
	block, err := roadmap.FindYAMLBlock(doc)
	if err != nil {
		return err
	}
	if block == nil {
		return fmt.Errorf("roadmap block disappeared")
	}
	for _, n := range block.Nodes {
		if n.ID != id {
			continue
		}
		if n.Status != want.Status || n.Plan != roadmap.NormalizeRef(want.Plan) || n.PR != roadmap.NormalizeRef(want.PR) {
			return fmt.Errorf("step %s reads back as status=%s plan=%q pr=%q", id, n.Status, n.Plan, n.PR)
		}
		return nil
	}
	return fmt.Errorf("step %s missing after edit", id)
}
