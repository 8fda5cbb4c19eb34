package catalog

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawField covers both the native catalog format and the legacy
// format of VAT field lists
// ({name, numeric, vatMandatory, gfbioMandatory, globalField, unit}).
type rawField struct {
	Path        string   `yaml:"path"`
	Type        string   `yaml:"type"`
	Cardinality string   `yaml:"cardinality"`
	Requirement string   `yaml:"requirement"`
	Unit        string   `yaml:"unit"`
	Values      []string `yaml:"values"`
	Role        string   `yaml:"role"`

	Name           string `yaml:"name"`
	Numeric        bool   `yaml:"numeric"`
	VatMandatory   bool   `yaml:"vatMandatory"`
	GfbioMandatory bool   `yaml:"gfbioMandatory"`
	GlobalField    bool   `yaml:"globalField"`
}

// Decode reads a catalog document. The document is either a list of
// fields or a mapping with a "fields" list. YAML and JSON are both
// accepted. Unknown keys and documents without fields are rejected.
// Tokens are not validated here, Load does that.
func Decode(data []byte) ([]FieldDefinition, error) {
	var node yaml.Node
	err := yaml.Unmarshal(data, &node)
	if err != nil {
		return nil, DecodeError(err)
	}
	if len(node.Content) == 0 {
		return nil, EmptyCatalogError()
	}

	var raw []rawField
	switch node.Content[0].Kind {
	case yaml.SequenceNode:
		err = decodeStrict(data, &raw)
	case yaml.MappingNode:
		var doc struct {
			Fields *[]rawField `yaml:"fields"`
		}
		err = decodeStrict(data, &doc)
		if err == nil && doc.Fields == nil {
			err = errors.New("document has no 'fields' key")
		}
		if doc.Fields != nil {
			raw = *doc.Fields
		}
	default:
		err = errors.New("document is neither a list nor a mapping")
	}
	if err != nil {
		return nil, DecodeError(err)
	}
	if len(raw) == 0 {
		return nil, EmptyCatalogError()
	}

	res := make([]FieldDefinition, 0, len(raw))
	for _, v := range raw {
		res = append(res, v.definition())
	}
	return res, nil
}

func (r rawField) definition() FieldDefinition {
	res := FieldDefinition{
		Path:        r.Path,
		Type:        SemanticType(strings.ToLower(strings.TrimSpace(r.Type))),
		Cardinality: Cardinality(strings.ToLower(strings.TrimSpace(r.Cardinality))),
		Requirement: Requirement(strings.ToLower(strings.TrimSpace(r.Requirement))),
		Unit:        r.Unit,
		Values:      r.Values,
		Role:        Role(strings.TrimSpace(r.Role)),
	}
	if res.Path == "" {
		res.Path = r.Name
	}
	if res.Type == "" {
		res.Type = Text
		if r.Numeric {
			res.Type = Decimal
		}
	}
	if res.Requirement == "" {
		switch {
		case r.VatMandatory:
			res.Requirement = Mandatory
		case r.GfbioMandatory:
			res.Requirement = Recommended
		}
	}
	return res
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
