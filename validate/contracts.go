package validate

import "github.com/deepnoodle-ai/stepcheck/schema"

// FieldCheck is one declarative check against a field path in a state's
// output. Equals and Type mismatches fail the contract; a missing Prefix
// only warns, matching the original convention checks.
type FieldCheck struct {
	Path   string
	Equals string
	Prefix string
	Type   string
}

// StateContract declares the output contract of one workflow state:
// fields that must be present, field-level checks, and naming conventions.
type StateContract struct {
	Name          string
	RequiredPaths []string
	Checks        []FieldCheck
}

// WorkflowInputSchema returns the schema every workflow input must
// satisfy before submission: a non-empty request identifier and an
// inputData object carrying at least a value.
func WorkflowInputSchema() *schema.Schema {
	minLen := 1
	return &schema.Schema{
		Type:     "object",
		Required: []string{"requestId", "inputData"},
		Properties: map[string]*schema.Property{
			"requestId": {Type: "string", MinLength: &minLen},
			"inputData": {
				Type:     "object",
				Required: []string{"value"},
				Properties: map[string]*schema.Property{
					"metadata": {Type: "object"},
				},
			},
		},
	}
}

// ChainContracts returns the per-state output contracts of the reference
// three-state chain. Each state must echo the request identifier, name
// itself in its metadata block, and carry forward cumulative data from
// upstream states.
func ChainContracts() []*StateContract {
	return []*StateContract{
		{
			Name: "State1",
			RequiredPaths: []string{
				"requestId",
				"state1Output",
				"state1Output.processedValue",
				"state1Output.originalInput",
				"stateMetadata",
				"stateMetadata.state",
				"stateMetadata.executionTime",
			},
			Checks: []FieldCheck{
				{Path: "stateMetadata.state", Equals: "State1"},
				{Path: "state1Output.processedValue", Type: "string", Prefix: "State1_processed_"},
			},
		},
		{
			Name: "State2",
			RequiredPaths: []string{
				"requestId",
				"state1Output",
				"state1Output.processedValue",
				"state1Output.originalInput",
				"state2Output",
				"state2Output.processedValue",
				"state2Output.previousStateData",
				"state2Output.enhancementData",
				"stateMetadata",
				"stateMetadata.state",
				"stateMetadata.executionTime",
				"dataFlow",
				"dataFlow.inputSource",
				"dataFlow.outputDestination",
				"dataFlow.dataTransformation",
			},
			Checks: []FieldCheck{
				{Path: "stateMetadata.state", Equals: "State2"},
				{Path: "state2Output.processedValue", Type: "string", Prefix: "State2_enhanced_"},
			},
		},
		{
			Name: "State3",
			RequiredPaths: []string{
				"requestId",
				"executionSummary",
				"executionSummary.totalStates",
				"executionSummary.executionStatus",
				"allStatesData",
				"allStatesData.state1Output",
				"allStatesData.state2Output",
				"allStatesData.state3Output",
				"finalResult",
				"finalResult.success",
				"finalResult.finalValue",
				"finalResult.processingChain",
				"stateMetadata",
				"stateMetadata.state",
				"stateMetadata.executionTime",
			},
			Checks: []FieldCheck{
				{Path: "stateMetadata.state", Equals: "State3"},
				{Path: "executionSummary.totalStates", Equals: "3"},
				{Path: "finalResult.success", Type: "boolean"},
				{Path: "finalResult.finalValue", Type: "string", Prefix: "State3_final_"},
			},
		},
	}
}
