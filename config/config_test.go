package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var sampleYAML = []byte(`
Endpoint: http://localhost:8083
Region: us-east-1
StateMachineARN: arn:aws:states:us-east-1:123456789012:stateMachine:TestWorkflow
MaxConcurrency: 2
Scenarios:
  - Name: basic
    Description: basic chain test
    Input:
      requestId: test-001
      inputData:
        value: hello
    TimeoutSeconds: 30
    Expected:
      - Path: finalResult.success
        Equals: true
      - Path: finalResult.finalValue
        Contains: State3_final_
`)

func TestParseYAML(t *testing.T) {
	cfg, err := ParseYAML(sampleYAML)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8083", cfg.Endpoint)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	require.Len(t, cfg.Scenarios, 1)

	scenario := cfg.Scenarios[0]
	assert.Equal(t, "basic", scenario.Name)
	assert.Equal(t, 30*time.Second, scenario.Timeout())

	input, err := scenario.InputJSON()
	require.NoError(t, err)
	assert.Equal(t, "test-001", gjson.GetBytes(input, "requestId").String())
	assert.Equal(t, "hello", gjson.GetBytes(input, "inputData.value").String())

	fields := scenario.ExpectedFields()
	require.Len(t, fields, 2)
	assert.Equal(t, "finalResult.success", fields[0].Path)
	assert.Equal(t, "State3_final_", fields[1].Contains)
}

func TestParseYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := ParseYAML([]byte("StateMachineARN: arn\nBogusKey: true\n"))
	assert.Error(t, err)
}

func TestParseJSON(t *testing.T) {
	cfg, err := ParseJSON([]byte(`{
		"StateMachineARN": "arn:aws:states:local:0:stateMachine:wf",
		"Scenarios": [{"Name": "one", "Input": {"requestId": "r1", "inputData": {"value": "v"}}}]
	}`))
	require.NoError(t, err)
	require.Len(t, cfg.Scenarios, 1)
	assert.Equal(t, "one", cfg.Scenarios[0].Name)
	// No declared timeout falls back to the default budget.
	assert.Equal(t, DefaultTimeoutSeconds*time.Second, cfg.Scenarios[0].Timeout())
}

func TestParseFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	_, err := ParseFile(path)
	assert.ErrorContains(t, err, "unsupported file extension")
}

func TestLoadDirectoryMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-base.yaml"), []byte(`
StateMachineARN: arn:base
Scenarios:
  - Name: alpha
    Input:
      requestId: a-1
  - Name: beta
    Input:
      requestId: b-1
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02-override.yaml"), []byte(`
StateMachineARN: arn:override
Scenarios:
  - Name: beta
    Input:
      requestId: b-2
`), 0o644))

	cfg, err := LoadDirectory(dir)
	require.NoError(t, err)

	assert.Equal(t, "arn:override", cfg.StateMachineARN)
	require.Len(t, cfg.Scenarios, 2)
	assert.Equal(t, "alpha", cfg.Scenarios[0].Name)
	assert.Equal(t, "beta", cfg.Scenarios[1].Name)
	assert.Equal(t, "b-2", cfg.Scenarios[1].Input["requestId"])
}

func TestLoadDirectoryEmpty(t *testing.T) {
	_, err := LoadDirectory(t.TempDir())
	assert.ErrorContains(t, err, "no yaml or json files")
}

func TestValidate(t *testing.T) {
	cfg := Default("arn:aws:states:local:0:stateMachine:wf")
	assert.NoError(t, cfg.Validate())

	missing := &Config{Scenarios: SampleScenarios()}
	assert.ErrorContains(t, missing.Validate(), "StateMachineARN")

	empty := &Config{StateMachineARN: "arn"}
	assert.ErrorContains(t, empty.Validate(), "at least one scenario")

	dup := &Config{
		StateMachineARN: "arn",
		Scenarios: []Scenario{
			{Name: "same"},
			{Name: "same"},
		},
	}
	assert.ErrorContains(t, dup.Validate(), "duplicate scenario name")
}

func TestSampleScenariosAreValid(t *testing.T) {
	cfg := Default("arn:aws:states:local:0:stateMachine:wf")
	require.NoError(t, cfg.Validate())
	for _, scenario := range cfg.Scenarios {
		input, err := scenario.InputJSON()
		require.NoError(t, err)
		assert.True(t, gjson.GetBytes(input, "requestId").Exists(), scenario.Name)
		assert.True(t, gjson.GetBytes(input, "inputData.value").Exists(), scenario.Name)
	}
}
