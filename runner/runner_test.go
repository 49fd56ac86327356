package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/deepnoodle-ai/stepcheck"
	"github.com/deepnoodle-ai/stepcheck/config"
	"github.com/deepnoodle-ai/stepcheck/internal/simulator"
	"github.com/deepnoodle-ai/stepcheck/sfn"
)

// fakeClient emulates executions locally: Start builds the event log the
// emulator would produce for the input, AwaitCompletion reports the
// terminal status, GetHistory replays the stored log.
type fakeClient struct {
	mu          sync.Mutex
	nextID      int
	histories   map[stepcheck.ExecutionHandle][]stepcheck.ExecutionEvent
	statuses    map[stepcheck.ExecutionHandle]stepcheck.ExecutionStatus
	starts      int
	inflight    int
	maxInflight int
	awaitDelay  time.Duration

	// requestIds that should simulate a hung execution.
	hang map[string]bool
	// requestIds whose execution should fail mid-chain.
	failMidChain map[string]bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		histories:    map[stepcheck.ExecutionHandle][]stepcheck.ExecutionEvent{},
		statuses:     map[stepcheck.ExecutionHandle]stepcheck.ExecutionStatus{},
		hang:         map[string]bool{},
		failMidChain: map[string]bool{},
	}
}

func (f *fakeClient) Start(ctx context.Context, req stepcheck.ExecutionRequest) (stepcheck.ExecutionHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.nextID++
	handle := stepcheck.ExecutionHandle(fmt.Sprintf("arn:exec-%d", f.nextID))

	requestID := gjson.GetBytes(req.Input, "requestId").String()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if f.hang[requestID] {
		f.statuses[handle] = stepcheck.StatusRunning
		return handle, nil
	}

	events, _, err := simulator.BuildHistory(req.Input, start, time.Second)
	if err != nil {
		return "", err
	}
	if f.failMidChain[requestID] {
		// Keep State1 complete, truncate inside State2, then fail.
		events = events[:4]
		events = append(events, stepcheck.ExecutionEvent{
			ID:        5,
			Timestamp: start.Add(2 * time.Second),
			Kind:      stepcheck.KindExecutionFailed,
			RawType:   "ExecutionFailed",
			Error:     "States.TaskFailed",
			Cause:     "state2 crashed",
		})
		f.statuses[handle] = stepcheck.StatusFailed
	} else {
		f.statuses[handle] = stepcheck.StatusSucceeded
	}
	f.histories[handle] = events
	return handle, nil
}

func (f *fakeClient) AwaitCompletion(ctx context.Context, handle stepcheck.ExecutionHandle, timeout time.Duration) (*sfn.ExecutionDescription, error) {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	status := f.statuses[handle]
	delay := f.awaitDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()

	if status == stepcheck.StatusRunning {
		return nil, &stepcheck.ExecutionTimeoutError{Handle: handle, Timeout: timeout}
	}
	return &sfn.ExecutionDescription{Handle: handle, Status: status}, nil
}

func (f *fakeClient) GetHistory(ctx context.Context, handle stepcheck.ExecutionHandle) ([]stepcheck.ExecutionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.histories[handle], nil
}

func newTestRunner(t *testing.T, client ExecutionClient, maxConcurrency int) *Runner {
	t.Helper()
	r, err := New(Options{
		Client:          client,
		StateMachineARN: "arn:aws:states:local:0:stateMachine:wf",
		MaxConcurrency:  maxConcurrency,
	})
	require.NoError(t, err)
	return r
}

func scenario(name, requestID string) config.Scenario {
	return config.Scenario{
		Name: name,
		Input: map[string]any{
			"requestId": requestID,
			"inputData": map[string]any{"value": "payload_" + requestID},
		},
	}
}

func TestRunAllScenariosPass(t *testing.T) {
	client := newFakeClient()
	r := newTestRunner(t, client, 2)

	scenarios := []config.Scenario{
		scenario("alpha", "req-1"),
		scenario("beta", "req-2"),
		scenario("gamma", "req-3"),
	}
	scenarios[0].Expected = []config.ExpectedField{
		{Path: "executionSummary.totalStates", Equals: 3},
		{Path: "finalResult.finalValue", Contains: "State3_final_"},
	}

	report, err := r.Run(context.Background(), scenarios)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 3, report.Summary.Passed)
	assert.Equal(t, 0, report.Summary.Failed)
	assert.Equal(t, 0, report.Summary.Errored)
	assert.Equal(t, 1.0, report.Summary.SuccessRate)
	assert.True(t, report.AllPassed())

	// Results keep suite order regardless of completion order.
	require.Len(t, report.TestDetails, 3)
	assert.Equal(t, "alpha", report.TestDetails[0].Name)
	assert.Equal(t, "beta", report.TestDetails[1].Name)
	assert.Equal(t, "gamma", report.TestDetails[2].Name)

	alpha := report.TestDetails[0]
	assert.Equal(t, StatusPassed, alpha.Status)
	assert.Equal(t, PhaseDone, alpha.Phase)
	assert.Equal(t, stepcheck.StatusSucceeded, alpha.ExecutionStatus)
	require.Len(t, alpha.States, 3)
	assert.Equal(t, "State1", alpha.States[0].Name)
	assert.Equal(t, 3, alpha.States[2].Ordinal)
	assert.Equal(t, int64(3), gjson.GetBytes(alpha.FinalOutput, "executionSummary.totalStates").Int())

	analysis := report.DataFlowAnalysis
	assert.Equal(t, 3, analysis.ScenariosAnalyzed)
	assert.Equal(t, 0, analysis.ContinuityViolations)
	require.NotEmpty(t, analysis.Transitions)
	first := analysis.Transitions[0]
	assert.Equal(t, "State1", first.FromState)
	assert.Equal(t, "State2", first.ToState)
	assert.Contains(t, first.AddedKeys, "state2Output")
}

func TestRunInvalidInputFailsBeforeSubmission(t *testing.T) {
	client := newFakeClient()
	r := newTestRunner(t, client, 1)

	report, err := r.Run(context.Background(), []config.Scenario{
		{
			Name:  "bad-input",
			Input: map[string]any{"inputData": map[string]any{"value": "x"}},
		},
	})
	require.NoError(t, err)

	result := report.TestDetails[0]
	assert.Equal(t, StatusFailed, result.Status)
	assert.Empty(t, result.Handle)
	assert.Equal(t, 0, client.starts)
	require.NotEmpty(t, result.Validations)
	assert.Equal(t, "workflow_input", result.Validations[0].Name)
	assert.False(t, result.Validations[0].Passed)
}

func TestRunTimeoutIsErroredNotFailed(t *testing.T) {
	client := newFakeClient()
	client.hang["req-2"] = true
	r := newTestRunner(t, client, 2)

	report, err := r.Run(context.Background(), []config.Scenario{
		scenario("ok", "req-1"),
		scenario("stuck", "req-2"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Passed)
	assert.Equal(t, 0, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Errored)

	stuck := report.TestDetails[1]
	assert.Equal(t, StatusErrored, stuck.Status)
	assert.Equal(t, "execution_timeout", stuck.ErrorType)
	assert.Equal(t, PhaseDone, stuck.Phase)

	// One hung scenario never contaminates its neighbors.
	assert.Equal(t, StatusPassed, report.TestDetails[0].Status)
}

func TestRunFailedExecutionStillValidatesCompletedStates(t *testing.T) {
	client := newFakeClient()
	client.failMidChain["req-9"] = true
	r := newTestRunner(t, client, 1)

	report, err := r.Run(context.Background(), []config.Scenario{
		scenario("crashing", "req-9"),
	})
	require.NoError(t, err)

	result := report.TestDetails[0]
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, stepcheck.StatusFailed, result.ExecutionStatus)
	assert.Contains(t, result.Error, "FAILED")

	// The completed State1 and the interrupted State2 are both visible.
	require.Len(t, result.States, 2)
	assert.True(t, result.States[0].HasOutput)
	assert.False(t, result.States[1].HasOutput)

	// Validation still ran over what completed.
	var sawState1 bool
	for _, validation := range result.Validations {
		if validation.Name == "state1_output" {
			sawState1 = true
			assert.True(t, validation.Passed)
		}
	}
	assert.True(t, sawState1)
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	client := newFakeClient()
	client.awaitDelay = 20 * time.Millisecond
	r := newTestRunner(t, client, 2)

	var scenarios []config.Scenario
	for i := 0; i < 6; i++ {
		scenarios = append(scenarios, scenario(
			fmt.Sprintf("s%d", i), fmt.Sprintf("req-%d", i)))
	}

	report, err := r.Run(context.Background(), scenarios)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Summary.Passed)
	assert.LessOrEqual(t, client.maxInflight, 2)
	assert.Greater(t, client.maxInflight, 0)
}

func TestRunEmptySuite(t *testing.T) {
	r := newTestRunner(t, newFakeClient(), 1)
	_, err := r.Run(context.Background(), nil)
	assert.ErrorContains(t, err, "no scenarios")
}

func TestReportJSONShape(t *testing.T) {
	client := newFakeClient()
	r := newTestRunner(t, client, 1)

	report, err := r.Run(context.Background(), []config.Scenario{scenario("only", "req-1")})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))

	doc := buf.String()
	assert.True(t, gjson.Get(doc, "summary.total").Exists())
	assert.True(t, gjson.Get(doc, "summary.success_rate").Exists())
	assert.True(t, gjson.Get(doc, "summary.total_duration").Exists())
	assert.True(t, gjson.Get(doc, "test_details").IsArray())
	assert.True(t, gjson.Get(doc, "data_flow_analysis.scenarios_analyzed").Exists())
	assert.Equal(t, "passed", gjson.Get(doc, "test_details.0.status").String())

	// The report round-trips.
	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.Summary.Total, decoded.Summary.Total)
}

func TestWriteText(t *testing.T) {
	client := newFakeClient()
	client.hang["req-2"] = true
	r := newTestRunner(t, client, 2)

	report, err := r.Run(context.Background(), []config.Scenario{
		scenario("good", "req-1"),
		scenario("stuck", "req-2"),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "good")
	assert.Contains(t, out, "stuck")
	assert.Contains(t, out, "execution_timeout")
	assert.Contains(t, out, "2 total")
}
