package isa

import "github.com/invopop/jsonschema"

func featureNames() []any {
	names := make([]any, 0, numFeatures)
	for _, f := range All() {
		names = append(names, f.String())
	}
	return names
}

// JSONSchema describes a Feature as one of the known names.
func (Feature) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Enum: featureNames()}
}

// JSONSchema describes a FeatureSet as its MarshalJSON encodes it.
func (FeatureSet) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Items:       &jsonschema.Schema{Type: "string", Enum: featureNames()},
		UniqueItems: true,
	}
}
