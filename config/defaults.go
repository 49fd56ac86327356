package config

// Default builds a suite preconfigured for a local emulator and the
// bundled sample scenarios.
func Default(stateMachineARN string) *Config {
	return &Config{
		Endpoint:        "http://localhost:8083",
		Region:          "us-east-1",
		StateMachineARN: stateMachineARN,
		MaxConcurrency:  3,
		Scenarios:       SampleScenarios(),
	}
}

// SampleScenarios returns the built-in scenarios that exercise the
// three-state chain end to end.
func SampleScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "basic-workflow",
			Description: "Simple value flows through all three states",
			Input: map[string]any{
				"requestId": "test-001",
				"inputData": map[string]any{
					"value": "hello_world",
					"metadata": map[string]any{
						"source": "sample_suite",
					},
				},
			},
			Expected: []ExpectedField{
				{Path: "executionSummary.totalStates", Equals: 3},
				{Path: "finalResult.success", Equals: true},
				{Path: "finalResult.finalValue", Contains: "State3_final_State2_enhanced_State1_processed_hello_world"},
			},
		},
		{
			Name:        "complex-data",
			Description: "Nested metadata survives the full chain",
			Input: map[string]any{
				"requestId": "test-002",
				"inputData": map[string]any{
					"value": "complex_payload",
					"metadata": map[string]any{
						"source":   "sample_suite",
						"priority": "high",
						"tags":     []any{"integration", "data_flow"},
					},
				},
			},
			Expected: []ExpectedField{
				{Path: "requestId", Equals: "test-002"},
				{Path: "allStatesData.state1Output.originalInput", Equals: "complex_payload"},
				{Path: "finalResult.success", Equals: true},
			},
		},
		{
			Name:        "minimal-input",
			Description: "Smallest input accepted by the workflow contract",
			Input: map[string]any{
				"requestId": "test-003",
				"inputData": map[string]any{
					"value": "x",
				},
			},
			Expected: []ExpectedField{
				{Path: "finalResult.finalValue", Contains: "State3_final_"},
			},
		},
	}
}
