// Package schema describes the expected structure of JSON workflow
// payloads. Schemas are data, not code: validation traverses documents by
// field path rather than unmarshaling into static structs.
package schema

// Schema describes the structure of a JSON object.
type Schema struct {
	Type                 string               `json:"type" yaml:"type"`
	Properties           map[string]*Property `json:"properties" yaml:"properties"`
	Required             []string             `json:"required,omitempty" yaml:"required,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
}

// Property of a schema.
type Property struct {
	Type        string               `json:"type" yaml:"type"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty" yaml:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty" yaml:"items,omitempty"`
	Required    []string             `json:"required,omitempty" yaml:"required,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	Minimum     *float64             `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum     *float64             `json:"maximum,omitempty" yaml:"maximum,omitempty"`
}
