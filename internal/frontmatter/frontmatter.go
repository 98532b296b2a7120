// Package frontmatter converts between raw agent Markdown text and its
// YAML front matter plus prompt body.
package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const marker = "---"

// Meta is the front matter of an agent document. Field declaration order
// is the serialization order; Encode never alphabetizes keys. Keys beyond
// the known set are carried in Extra so documents with custom metadata
// round-trip without loss.
type Meta struct {
	ID              string     `yaml:"id,omitempty"`
	Title           string     `yaml:"title,omitempty"`
	Type            string     `yaml:"type,omitempty"`
	Tags            StringList `yaml:"tags,omitempty"`
	Description     string     `yaml:"description,omitempty"`
	Project         string     `yaml:"project,omitempty"`
	LLMProvider     string     `yaml:"llm_provider,omitempty"`
	SuggestedModels string     `yaml:"suggested_models,omitempty"`
	Version         string     `yaml:"version,omitempty"`
	Extra           []Field    `yaml:"-"`
}

// Field is a front matter key outside the known set, kept with its raw
// YAML value in document order.
type Field struct {
	Key   string
	Value *yaml.Node
}

// knownKeys are the yaml names of Meta's typed fields.
var knownKeys = map[string]bool{
	"id":               true,
	"title":            true,
	"type":             true,
	"tags":             true,
	"description":      true,
	"project":          true,
	"llm_provider":     true,
	"suggested_models": true,
	"version":          true,
}

// StringList is a list of strings that also accepts a bare YAML scalar,
// which is normalised to a single-element list.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var one string
		if err := value.Decode(&one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	default:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*s = StringList(many)
		return nil
	}
}

// Decode splits raw document text into front matter and body.
//
// It returns a nil Meta when the text does not begin with the three-dash
// marker, when no closing marker exists, or when the YAML block fails to
// parse. Parse failure is not an error; the caller decides whether it
// matters. With nil Meta the body is the original text except in the
// empty-block case, where only the remainder is returned.
func Decode(text string) (*Meta, string) {
	if !strings.HasPrefix(text, marker) {
		return nil, text
	}
	parts := strings.SplitN(text, marker, 3)
	if len(parts) < 3 {
		return nil, text
	}
	body := strings.TrimSpace(parts[2])
	if strings.TrimSpace(parts[1]) == "" {
		return nil, body
	}
	var m Meta
	if err := yaml.Unmarshal([]byte(parts[1]), &m); err != nil {
		return nil, text
	}
	m.Extra = extraFields([]byte(parts[1]))
	return &m, body
}

// extraFields collects the mapping entries the typed struct does not
// cover, preserving their document order and raw values.
func extraFields(block []byte) []Field {
	var root yaml.Node
	if err := yaml.Unmarshal(block, &root); err != nil || len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	var extra []Field
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		if knownKeys[key] {
			continue
		}
		extra = append(extra, Field{Key: key, Value: doc.Content[i+1]})
	}
	return extra
}

// Encode renders front matter and body as document text: the YAML block
// between three-dash markers, a blank line, then the body. Known fields
// come first in declaration order, then any Extra fields in theirs.
func Encode(m *Meta, body string) (string, error) {
	block, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("frontmatter: marshal: %w", err)
	}
	for _, f := range m.Extra {
		pair := &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
				f.Value,
			},
		}
		line, err := yaml.Marshal(pair)
		if err != nil {
			return "", fmt.Errorf("frontmatter: marshal %q: %w", f.Key, err)
		}
		block = append(block, line...)
	}
	return marker + "\n" + string(block) + marker + "\n\n" + body, nil
}

// Values returns every present metadata value stringified, known fields
// in field order then Extra fields, for free-text matching across the
// whole front matter.
func (m *Meta) Values() []string {
	if m == nil {
		return nil
	}
	var out []string
	add := func(v string) {
		if v != "" {
			out = append(out, v)
		}
	}
	add(m.ID)
	add(m.Title)
	add(m.Type)
	if len(m.Tags) > 0 {
		out = append(out, strings.Join(m.Tags, ", "))
	}
	add(m.Description)
	add(m.Project)
	add(m.LLMProvider)
	add(m.SuggestedModels)
	add(m.Version)
	for _, f := range m.Extra {
		add(nodeText(f.Value))
	}
	return out
}

// nodeText stringifies an arbitrary YAML value for matching purposes.
func nodeText(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	b, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
