package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deepnoodle-ai/stepcheck"
	"github.com/deepnoodle-ai/stepcheck/config"
	"github.com/deepnoodle-ai/stepcheck/history"
	"github.com/deepnoodle-ai/stepcheck/schema"
	"github.com/deepnoodle-ai/stepcheck/sfn"
	"github.com/deepnoodle-ai/stepcheck/slogger"
	"github.com/deepnoodle-ai/stepcheck/validate"
)

// DefaultMaxConcurrency bounds parallel scenario execution when the suite
// does not set a limit.
const DefaultMaxConcurrency = 4

// ExecutionClient is the emulator surface the runner needs. *sfn.Client
// satisfies it; tests substitute fakes.
type ExecutionClient interface {
	Start(ctx context.Context, req stepcheck.ExecutionRequest) (stepcheck.ExecutionHandle, error)
	AwaitCompletion(ctx context.Context, handle stepcheck.ExecutionHandle, timeout time.Duration) (*sfn.ExecutionDescription, error)
	GetHistory(ctx context.Context, handle stepcheck.ExecutionHandle) ([]stepcheck.ExecutionEvent, error)
}

// Options configure a Runner.
type Options struct {
	Client          ExecutionClient
	StateMachineARN string
	MaxConcurrency  int
	Logger          slogger.Logger
	Clock           sfn.Clock
}

// Runner executes a scenario suite. Scenarios run concurrently up to the
// configured limit; each is fully isolated with its own execution, its
// own timeline, and its own result slot.
type Runner struct {
	client          ExecutionClient
	stateMachineARN string
	maxConcurrency  int
	logger          slogger.Logger
	clock           sfn.Clock
	inputSchema     *schema.Schema
	contracts       []*validate.StateContract
}

// New creates a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("runner: an execution client is required")
	}
	if opts.StateMachineARN == "" {
		return nil, fmt.Errorf("runner: a state machine arn is required")
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slogger.DefaultLogger
	}
	if opts.Clock == nil {
		opts.Clock = sfn.RealClock()
	}
	return &Runner{
		client:          opts.Client,
		stateMachineARN: opts.StateMachineARN,
		maxConcurrency:  opts.MaxConcurrency,
		logger:          opts.Logger.With("component", "runner"),
		clock:           opts.Clock,
		inputSchema:     validate.WorkflowInputSchema(),
		contracts:       validate.ChainContracts(),
	}, nil
}

// Run executes every scenario and returns the aggregate report. The
// report is produced only after all scenarios complete; one scenario's
// failure or infrastructure error never stops the others.
func (r *Runner) Run(ctx context.Context, scenarios []config.Scenario) (*Report, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("runner: no scenarios to run")
	}

	start := r.clock.Now()
	results := make([]ScenarioResult, len(scenarios))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.maxConcurrency)
	for i, scenario := range scenarios {
		i, scenario := i, scenario
		group.Go(func() error {
			results[i] = r.runScenario(groupCtx, scenario)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	report := BuildReport(results, r.clock.Now().Sub(start), r.clock.Now())
	r.logger.Info("suite complete",
		"total", report.Summary.Total,
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
		"errored", report.Summary.Errored)
	return report, nil
}

// runScenario walks one scenario through its lifecycle. Infrastructure
// errors produce an errored result; contract violations produce a failed
// one. Validation never short-circuits: every applicable check runs and
// every violation is collected.
func (r *Runner) runScenario(ctx context.Context, scenario config.Scenario) (result ScenarioResult) {
	logger := r.logger.With("scenario", scenario.Name)
	result = ScenarioResult{
		Name:      scenario.Name,
		Phase:     PhasePending,
		StartedAt: r.clock.Now(),
	}
	defer func() {
		result.Phase = PhaseDone
		result.DurationSeconds = r.clock.Now().Sub(result.StartedAt).Seconds()
	}()

	input, err := scenario.InputJSON()
	if err != nil {
		r.errored(&result, err, logger)
		return
	}

	// Inputs that violate the workflow contract fail before submission.
	inputCheck := validate.Input(input, r.inputSchema)
	result.Validations = append(result.Validations, inputCheck)
	if !inputCheck.Passed {
		result.Status = StatusFailed
		logger.Warn("input rejected before submission", "problems", len(inputCheck.Details))
		return result
	}

	handle, err := r.client.Start(ctx, stepcheck.ExecutionRequest{
		StateMachineARN: r.stateMachineARN,
		Name:            scenario.Name,
		Input:           input,
	})
	if err != nil {
		r.errored(&result, err, logger)
		return
	}
	result.Phase = PhaseSubmitted
	result.Handle = handle

	result.Phase = PhasePolling
	desc, err := r.client.AwaitCompletion(ctx, handle, scenario.Timeout())
	if err != nil {
		r.errored(&result, err, logger)
		return
	}
	result.ExecutionStatus = desc.Status

	result.Phase = PhaseReconstructing
	events, err := r.client.GetHistory(ctx, handle)
	if err != nil {
		r.errored(&result, err, logger)
		return
	}
	reconstruction, err := history.Reconstruct(events)
	if err != nil {
		r.errored(&result, err, logger)
		return
	}

	result.Phase = PhaseValidating
	r.validateScenario(&result, scenario, reconstruction)

	if desc.Status != stepcheck.StatusSucceeded {
		result.Status = StatusFailed
		result.Error = fmt.Sprintf("execution finished %s: %s",
			desc.Status, reconstruction.Outcome.ErrorCause)
		logger.Warn("execution did not succeed",
			"status", string(desc.Status), "error", reconstruction.Outcome.ErrorType)
		return result
	}

	if result.failedValidations() > 0 {
		result.Status = StatusFailed
		logger.Warn("validation failed", "checks_failed", result.failedValidations())
		return result
	}

	result.Status = StatusPassed
	logger.Info("scenario passed", "states", len(reconstruction.Records))
	return result
}

// validateScenario runs every applicable check over the reconstruction
// and records the evidence needed for the data-flow analysis block.
func (r *Runner) validateScenario(result *ScenarioResult, scenario config.Scenario, reconstruction *history.Result) {
	records := reconstruction.Records

	for _, record := range records {
		result.States = append(result.States, StateSummary{
			Name:            record.Name,
			Ordinal:         record.Ordinal,
			DurationSeconds: record.Duration.Seconds(),
			HasOutput:       len(record.Output) > 0,
		})
	}

	for i, record := range records {
		if i >= len(r.contracts) {
			break
		}
		check := validate.StateOutput(record.Name, record.Output, r.contracts[i])
		result.Validations = append(result.Validations, check)
		result.Warnings = append(result.Warnings, check.Warnings...)
	}

	continuity := validate.Continuity(records, len(r.contracts))
	result.Validations = append(result.Validations, continuity)
	result.continuity = &continuity
	result.transitions = computeTransitions(scenario.Name, records)

	if reconstruction.Outcome.Status == stepcheck.StatusSucceeded {
		result.FinalOutput = reconstruction.Outcome.Output
		if len(scenario.Expected) > 0 {
			expected := validate.Expected(reconstruction.Outcome.Output, scenario.ExpectedFields())
			result.Validations = append(result.Validations, expected)
		}
	}
}

func (r *Runner) errored(result *ScenarioResult, err error, logger slogger.Logger) {
	result.Status = StatusErrored
	result.Error = err.Error()
	result.ErrorType = classifyError(err)
	logger.Error("scenario errored", "phase", string(result.Phase), "error", err.Error())
}
