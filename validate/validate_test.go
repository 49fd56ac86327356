package validate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/deepnoodle-ai/stepcheck"
	"github.com/deepnoodle-ai/stepcheck/history"
	"github.com/deepnoodle-ai/stepcheck/internal/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

func chainRecords(t *testing.T, requestID string) []stepcheck.StateRecord {
	t.Helper()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events, _, err := simulator.BuildHistory(simulator.Input(requestID, "x"), start, time.Second)
	require.NoError(t, err)
	result, err := history.Reconstruct(events)
	require.NoError(t, err)
	return result.Records
}

func TestInputValid(t *testing.T) {
	result := Input(simulator.Input("test-001", "x"), WorkflowInputSchema())
	assert.True(t, result.Passed)
	assert.Empty(t, result.Details)
}

func TestInputMissingRequestID(t *testing.T) {
	result := Input([]byte(`{"inputData":{"value":"x"}}`), WorkflowInputSchema())
	assert.False(t, result.Passed)
	require.Len(t, result.Details, 1)
	assert.Equal(t, "requestId", result.Details[0].Path)
}

func TestStateOutputContractsPass(t *testing.T) {
	records := chainRecords(t, "test-001")
	contracts := ChainContracts()
	require.Len(t, contracts, len(records))
	for i, record := range records {
		result := StateOutput(record.Name, record.Output, contracts[i])
		assert.True(t, result.Passed, "contract for %s: %+v", record.Name, result.Details)
		assert.Empty(t, result.Warnings)
	}
}

func TestStateOutputMissingField(t *testing.T) {
	records := chainRecords(t, "test-001")
	mutated, err := sjson.DeleteBytes(records[0].Output, "state1Output.originalInput")
	require.NoError(t, err)

	result := StateOutput("State1", mutated, ChainContracts()[0])
	assert.False(t, result.Passed)
	require.Len(t, result.Details, 1)
	assert.Equal(t, "state1Output.originalInput", result.Details[0].Path)
	assert.Equal(t, "required field is missing", result.Details[0].Message)
}

func TestStateOutputWrongMetadataState(t *testing.T) {
	records := chainRecords(t, "test-001")
	mutated, err := sjson.SetBytes(records[1].Output, "stateMetadata.state", "State1")
	require.NoError(t, err)

	result := StateOutput("State2", mutated, ChainContracts()[1])
	assert.False(t, result.Passed)
	require.Len(t, result.Details, 1)
	assert.Equal(t, "stateMetadata.state", result.Details[0].Path)
	assert.Equal(t, "State2", result.Details[0].Expected)
	assert.Equal(t, "State1", result.Details[0].Actual)
}

func TestStateOutputNamingPatternWarns(t *testing.T) {
	records := chainRecords(t, "test-001")
	mutated, err := sjson.SetBytes(records[0].Output, "state1Output.processedValue", "renamed_x")
	require.NoError(t, err)

	result := StateOutput("State1", mutated, ChainContracts()[0])
	// Convention deviations warn without failing the contract.
	assert.True(t, result.Passed)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "State1_processed_")
}

func TestStateOutputEmpty(t *testing.T) {
	result := StateOutput("State2", nil, ChainContracts()[1])
	assert.False(t, result.Passed)
}

func TestContinuityPasses(t *testing.T) {
	records := chainRecords(t, "test-001")
	result := Continuity(records, 3)
	assert.True(t, result.Passed, "details: %+v", result.Details)
}

func TestContinuityRequestIDMismatchNamesBothStates(t *testing.T) {
	records := chainRecords(t, "test-001")
	mutated, err := sjson.SetBytes(records[2].Output, "requestId", "test-999")
	require.NoError(t, err)
	records[2].Output = mutated
	// Keep the pass-through rule satisfied so only the identifier check fires.
	records[2].Input = records[1].Output

	result := Continuity(records, 3)
	assert.False(t, result.Passed)
	var found bool
	for _, detail := range result.Details {
		if detail.Path == "requestId" {
			found = true
			assert.Contains(t, detail.Message, "State1")
			assert.Contains(t, detail.Message, "State3")
			assert.Equal(t, "test-001", detail.Expected)
			assert.Equal(t, "test-999", detail.Actual)
		}
	}
	assert.True(t, found, "expected a requestId detail, got %+v", result.Details)
}

func TestContinuityStateCount(t *testing.T) {
	records := chainRecords(t, "test-001")
	result := Continuity(records[:2], 3)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Details[0].Message, "state count")
}

func TestContinuityPassThroughViolation(t *testing.T) {
	records := chainRecords(t, "test-001")
	mutated, err := sjson.SetBytes(records[1].Input, "state1Output.processedValue", "tampered")
	require.NoError(t, err)
	records[1].Input = mutated

	result := Continuity(records, 3)
	assert.False(t, result.Passed)
	var found bool
	for _, detail := range result.Details {
		if detail.Diff != "" {
			found = true
			assert.Contains(t, detail.Message, "State2 input does not match State1 output")
			assert.Contains(t, detail.Diff, "tampered")
		}
	}
	assert.True(t, found)
}

func TestContinuityProgressionViolation(t *testing.T) {
	records := chainRecords(t, "test-001")
	mutated, err := sjson.SetBytes(records[2].Output, "stateMetadata.previousStates", []string{"State1"})
	require.NoError(t, err)
	records[2].Output = mutated
	records[2].Input = records[1].Output

	result := Continuity(records, 3)
	assert.False(t, result.Passed)
	var found bool
	for _, detail := range result.Details {
		if detail.Path == "stateMetadata.previousStates" {
			found = true
			assert.Contains(t, detail.Message, "State2")
			assert.Contains(t, detail.Message, "State3")
		}
	}
	assert.True(t, found)
}

func TestExpectedAssertions(t *testing.T) {
	records := chainRecords(t, "test-001")
	final := records[2].Output

	result := Expected(final, []ExpectedField{
		{Path: "requestId", Equals: "test-001"},
		{Path: "executionSummary.totalStates", Equals: 3},
		{Path: "finalResult.finalValue", Contains: "State3_final_"},
	})
	assert.True(t, result.Passed, "details: %+v", result.Details)

	result = Expected(final, []ExpectedField{
		{Path: "requestId", Equals: "other"},
		{Path: "missing.path", Contains: "x"},
	})
	assert.False(t, result.Passed)
	assert.Len(t, result.Details, 2)
}

func TestValidatorsDoNotMutate(t *testing.T) {
	records := chainRecords(t, "test-001")
	before, err := json.Marshal(records)
	require.NoError(t, err)

	Continuity(records, 3)
	StateOutput("State1", records[0].Output, ChainContracts()[0])

	after, err := json.Marshal(records)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}
