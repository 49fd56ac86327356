package schema

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Problem describes one schema violation found in a document.
type Problem struct {
	Path     string `json:"path"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// Validate checks the JSON document against the schema and returns every
// violation found. A nil or empty slice means the document conforms.
func Validate(data []byte, s *Schema) []Problem {
	if s == nil {
		return nil
	}
	if !gjson.ValidBytes(data) {
		return []Problem{{Message: "document is not valid JSON"}}
	}
	root := gjson.ParseBytes(data)
	if s.Type == "object" && !root.IsObject() {
		return []Problem{{
			Message:  "document root must be an object",
			Expected: "object",
			Actual:   typeName(root),
		}}
	}
	var problems []Problem
	problems = appendRequired(problems, root, "", s.Required)
	for name, prop := range s.Properties {
		value := root.Get(name)
		if !value.Exists() {
			continue
		}
		problems = checkProperty(problems, value, name, prop)
	}
	return problems
}

func appendRequired(problems []Problem, obj gjson.Result, prefix string, required []string) []Problem {
	for _, name := range required {
		if !obj.Get(name).Exists() {
			problems = append(problems, Problem{
				Path:    joinPath(prefix, name),
				Message: "required field is missing",
			})
		}
	}
	return problems
}

func checkProperty(problems []Problem, value gjson.Result, path string, prop *Property) []Problem {
	if prop.Type != "" && !typeMatches(value, prop.Type) {
		return append(problems, Problem{
			Path:     path,
			Message:  "unexpected type",
			Expected: prop.Type,
			Actual:   typeName(value),
		})
	}

	switch prop.Type {
	case "string":
		if prop.MinLength != nil && len(value.String()) < *prop.MinLength {
			problems = append(problems, Problem{
				Path:     path,
				Message:  "string is too short",
				Expected: fmt.Sprintf("minLength %d", *prop.MinLength),
				Actual:   fmt.Sprintf("length %d", len(value.String())),
			})
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, value.String()) {
			problems = append(problems, Problem{
				Path:     path,
				Message:  "value not in enum",
				Expected: strings.Join(prop.Enum, "|"),
				Actual:   value.String(),
			})
		}
	case "number", "integer":
		n := value.Float()
		if prop.Minimum != nil && n < *prop.Minimum {
			problems = append(problems, Problem{
				Path:     path,
				Message:  "value below minimum",
				Expected: fmt.Sprintf(">= %v", *prop.Minimum),
				Actual:   fmt.Sprintf("%v", n),
			})
		}
		if prop.Maximum != nil && n > *prop.Maximum {
			problems = append(problems, Problem{
				Path:     path,
				Message:  "value above maximum",
				Expected: fmt.Sprintf("<= %v", *prop.Maximum),
				Actual:   fmt.Sprintf("%v", n),
			})
		}
	case "object":
		problems = appendRequired(problems, value, path, prop.Required)
		for name, nested := range prop.Properties {
			child := value.Get(name)
			if !child.Exists() {
				continue
			}
			problems = checkProperty(problems, child, joinPath(path, name), nested)
		}
	case "array":
		if prop.Items != nil {
			for i, item := range value.Array() {
				problems = checkProperty(problems, item, fmt.Sprintf("%s.%d", path, i), prop.Items)
			}
		}
	}
	return problems
}

func typeMatches(value gjson.Result, want string) bool {
	switch want {
	case "string":
		return value.Type == gjson.String
	case "number":
		return value.Type == gjson.Number
	case "integer":
		return value.Type == gjson.Number && value.Float() == float64(value.Int())
	case "boolean":
		return value.Type == gjson.True || value.Type == gjson.False
	case "object":
		return value.IsObject()
	case "array":
		return value.IsArray()
	case "null":
		return value.Type == gjson.Null
	}
	return true
}

func typeName(value gjson.Result) string {
	switch {
	case value.IsObject():
		return "object"
	case value.IsArray():
		return "array"
	case value.Type == gjson.String:
		return "string"
	case value.Type == gjson.Number:
		return "number"
	case value.Type == gjson.True, value.Type == gjson.False:
		return "boolean"
	case value.Type == gjson.Null:
		return "null"
	}
	return "unknown"
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
