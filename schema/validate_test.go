package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workflowInputSchema() *Schema {
	minLen := 1
	return &Schema{
		Type:     "object",
		Required: []string{"requestId", "inputData"},
		Properties: map[string]*Property{
			"requestId": {Type: "string", MinLength: &minLen},
			"inputData": {
				Type:     "object",
				Required: []string{"value"},
				Properties: map[string]*Property{
					"value":    {Type: "string"},
					"metadata": {Type: "object"},
				},
			},
		},
	}
}

func TestValidateConformingDocument(t *testing.T) {
	doc := []byte(`{"requestId":"test-001","inputData":{"value":"x"}}`)
	problems := Validate(doc, workflowInputSchema())
	assert.Empty(t, problems)
}

func TestValidateMissingRequiredField(t *testing.T) {
	doc := []byte(`{"inputData":{"value":"x"}}`)
	problems := Validate(doc, workflowInputSchema())
	require.Len(t, problems, 1)
	assert.Equal(t, "requestId", problems[0].Path)
	assert.Equal(t, "required field is missing", problems[0].Message)
}

func TestValidateNestedRequiredField(t *testing.T) {
	doc := []byte(`{"requestId":"test-001","inputData":{"metadata":{}}}`)
	problems := Validate(doc, workflowInputSchema())
	require.Len(t, problems, 1)
	assert.Equal(t, "inputData.value", problems[0].Path)
}

func TestValidateTypeMismatch(t *testing.T) {
	doc := []byte(`{"requestId":42,"inputData":{"value":"x"}}`)
	problems := Validate(doc, workflowInputSchema())
	require.Len(t, problems, 1)
	assert.Equal(t, "requestId", problems[0].Path)
	assert.Equal(t, "string", problems[0].Expected)
	assert.Equal(t, "number", problems[0].Actual)
}

func TestValidateEmptyString(t *testing.T) {
	doc := []byte(`{"requestId":"","inputData":{"value":"x"}}`)
	problems := Validate(doc, workflowInputSchema())
	require.Len(t, problems, 1)
	assert.Equal(t, "string is too short", problems[0].Message)
}

func TestValidateNumericRange(t *testing.T) {
	min, max := 1.0, 10.0
	s := &Schema{
		Type: "object",
		Properties: map[string]*Property{
			"count": {Type: "number", Minimum: &min, Maximum: &max},
		},
	}
	assert.Empty(t, Validate([]byte(`{"count":5}`), s))
	problems := Validate([]byte(`{"count":0}`), s)
	require.Len(t, problems, 1)
	assert.Equal(t, "value below minimum", problems[0].Message)
}

func TestValidateEnum(t *testing.T) {
	s := &Schema{
		Type: "object",
		Properties: map[string]*Property{
			"status": {Type: "string", Enum: []string{"RUNNING", "SUCCEEDED"}},
		},
	}
	problems := Validate([]byte(`{"status":"BROKEN"}`), s)
	require.Len(t, problems, 1)
	assert.Equal(t, "status", problems[0].Path)
}

func TestValidateInvalidJSON(t *testing.T) {
	problems := Validate([]byte(`{not json`), workflowInputSchema())
	require.Len(t, problems, 1)
	assert.Equal(t, "document is not valid JSON", problems[0].Message)
}

func TestValidateNonObjectRoot(t *testing.T) {
	problems := Validate([]byte(`[1,2,3]`), workflowInputSchema())
	require.Len(t, problems, 1)
	assert.Equal(t, "array", problems[0].Actual)
}
