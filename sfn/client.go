// Package sfn is a thin, retrying client for the Step Functions Local
// emulator. It wraps the AWS SDK with dummy credentials and an endpoint
// override, retries transient transport failures with backoff, and
// converts wire types into the stepcheck domain model at the boundary.
package sfn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awssfn "github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/deepnoodle-ai/stepcheck"
	"github.com/deepnoodle-ai/stepcheck/retry"
	"github.com/deepnoodle-ai/stepcheck/slogger"
)

const (
	DefaultEndpoint     = "http://localhost:8083"
	DefaultRegion       = "us-east-1"
	DefaultPollInterval = 2 * time.Second

	// MinPollInterval is the floor below which the poller will not spin.
	MinPollInterval = 100 * time.Millisecond
)

// API is the subset of the Step Functions service client the package
// uses. The AWS SDK client satisfies it; tests substitute fakes.
type API interface {
	StartExecution(ctx context.Context, params *awssfn.StartExecutionInput, optFns ...func(*awssfn.Options)) (*awssfn.StartExecutionOutput, error)
	DescribeExecution(ctx context.Context, params *awssfn.DescribeExecutionInput, optFns ...func(*awssfn.Options)) (*awssfn.DescribeExecutionOutput, error)
	GetExecutionHistory(ctx context.Context, params *awssfn.GetExecutionHistoryInput, optFns ...func(*awssfn.Options)) (*awssfn.GetExecutionHistoryOutput, error)
	StopExecution(ctx context.Context, params *awssfn.StopExecutionInput, optFns ...func(*awssfn.Options)) (*awssfn.StopExecutionOutput, error)
	ListExecutions(ctx context.Context, params *awssfn.ListExecutionsInput, optFns ...func(*awssfn.Options)) (*awssfn.ListExecutionsOutput, error)
	ListStateMachines(ctx context.Context, params *awssfn.ListStateMachinesInput, optFns ...func(*awssfn.Options)) (*awssfn.ListStateMachinesOutput, error)
	DescribeStateMachine(ctx context.Context, params *awssfn.DescribeStateMachineInput, optFns ...func(*awssfn.Options)) (*awssfn.DescribeStateMachineOutput, error)
}

// Options configure a Client. The zero value works against a default
// local emulator; every field is explicit so nothing is ambient state.
type Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PollInterval    time.Duration
	MaxRetries      int
	RetryBaseWait   time.Duration
	Logger          slogger.Logger
	Clock           Clock

	// API overrides the SDK client, for tests.
	API API
}

// Client talks to the emulator's execution API. It holds no mutable
// shared state; concurrent use from multiple scenarios is safe.
type Client struct {
	api           API
	endpoint      string
	pollInterval  time.Duration
	maxRetries    int
	retryBaseWait time.Duration
	logger        slogger.Logger
	clock         Clock
}

// New creates a Client for the given emulator endpoint. The emulator
// ignores credential values, but the SDK requires them to be present, so
// dummy static credentials are used.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Region == "" {
		opts.Region = DefaultRegion
	}
	if opts.AccessKeyID == "" {
		opts.AccessKeyID = "testing"
	}
	if opts.SecretAccessKey == "" {
		opts.SecretAccessKey = "testing"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = retry.DefaultMaxRetries
	}
	if opts.RetryBaseWait <= 0 {
		opts.RetryBaseWait = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slogger.DefaultLogger
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}

	api := opts.API
	if api == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(opts.Region),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		api = awssfn.NewFromConfig(cfg, func(o *awssfn.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			// Retries are governed here, not in the SDK.
			o.Retryer = aws.NopRetryer{}
		})
	}

	return &Client{
		api:           api,
		endpoint:      opts.Endpoint,
		pollInterval:  opts.PollInterval,
		maxRetries:    opts.MaxRetries,
		retryBaseWait: opts.RetryBaseWait,
		logger:        opts.Logger.With("component", "sfn_client"),
		clock:         opts.Clock,
	}, nil
}

// ExecutionDescription is the emulator's view of one execution.
type ExecutionDescription struct {
	Handle    stepcheck.ExecutionHandle
	Name      string
	Status    stepcheck.ExecutionStatus
	StartTime time.Time
	StopTime  time.Time
	Input     json.RawMessage
	Output    json.RawMessage
}

// Start submits an execution request and returns its handle. Unknown
// state machine identifiers surface immediately as DefinitionNotFoundError;
// transport failures are retried before surfacing as ConnectionError.
func (c *Client) Start(ctx context.Context, req stepcheck.ExecutionRequest) (stepcheck.ExecutionHandle, error) {
	// Names carry a uuid suffix so reruns of the same scenario never
	// collide on the emulator.
	prefix := req.Name
	if prefix == "" {
		prefix = "exec"
	}
	name := prefix + "-" + uuid.NewString()
	input := req.Input
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	var out *awssfn.StartExecutionOutput
	err := c.call(ctx, func() error {
		var err error
		out, err = c.api.StartExecution(ctx, &awssfn.StartExecutionInput{
			StateMachineArn: aws.String(req.StateMachineARN),
			Name:            aws.String(name),
			Input:           aws.String(string(input)),
		})
		return err
	})
	if err != nil {
		return "", c.classify(err, req.StateMachineARN)
	}

	handle := stepcheck.ExecutionHandle(aws.ToString(out.ExecutionArn))
	c.logger.Info("execution started", "handle", string(handle), "name", name)
	return handle, nil
}

// Describe fetches the current status of an execution.
func (c *Client) Describe(ctx context.Context, handle stepcheck.ExecutionHandle) (*ExecutionDescription, error) {
	var out *awssfn.DescribeExecutionOutput
	err := c.call(ctx, func() error {
		var err error
		out, err = c.api.DescribeExecution(ctx, &awssfn.DescribeExecutionInput{
			ExecutionArn: aws.String(string(handle)),
		})
		return err
	})
	if err != nil {
		return nil, c.classify(err, string(handle))
	}

	desc := &ExecutionDescription{
		Handle: handle,
		Name:   aws.ToString(out.Name),
		Status: stepcheck.ExecutionStatus(out.Status),
		Input:  rawJSON(out.Input),
		Output: rawJSON(out.Output),
	}
	if out.StartDate != nil {
		desc.StartTime = *out.StartDate
	}
	if out.StopDate != nil {
		desc.StopTime = *out.StopDate
	}
	return desc, nil
}

// AwaitCompletion polls the execution at the configured interval until it
// reaches a terminal status or the timeout elapses. On timeout the handle
// stays valid for inspection; the execution is not cancelled.
func (c *Client) AwaitCompletion(ctx context.Context, handle stepcheck.ExecutionHandle, timeout time.Duration) (*ExecutionDescription, error) {
	deadline := c.clock.Now().Add(timeout)
	for {
		desc, err := c.Describe(ctx, handle)
		if err != nil {
			return nil, err
		}
		if desc.Status.IsTerminal() {
			c.logger.Info("execution completed", "handle", string(handle), "status", string(desc.Status))
			return desc, nil
		}
		if !c.clock.Now().Add(c.pollInterval).Before(deadline) {
			c.logger.Warn("execution did not complete in time",
				"handle", string(handle), "timeout", timeout.String())
			return nil, &stepcheck.ExecutionTimeoutError{Handle: handle, Timeout: timeout}
		}
		if err := c.clock.Sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
}

// GetHistory fetches the complete ordered event log for an execution.
// It is idempotent and never caches: every call refetches from the
// emulator, paging through the full log.
func (c *Client) GetHistory(ctx context.Context, handle stepcheck.ExecutionHandle) ([]stepcheck.ExecutionEvent, error) {
	var events []stepcheck.ExecutionEvent
	var nextToken *string
	for {
		var out *awssfn.GetExecutionHistoryOutput
		err := c.call(ctx, func() error {
			var err error
			out, err = c.api.GetExecutionHistory(ctx, &awssfn.GetExecutionHistoryInput{
				ExecutionArn: aws.String(string(handle)),
				NextToken:    nextToken,
			})
			return err
		})
		if err != nil {
			return nil, c.classify(err, string(handle))
		}
		for _, event := range out.Events {
			events = append(events, convertEvent(event))
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	c.logger.Debug("fetched execution history", "handle", string(handle), "events", len(events))
	return events, nil
}

// Stop aborts an in-flight execution. The orchestrator never calls this
// for timed-out scenarios; it exists for manual cleanup.
func (c *Client) Stop(ctx context.Context, handle stepcheck.ExecutionHandle, errType, cause string) error {
	err := c.call(ctx, func() error {
		_, err := c.api.StopExecution(ctx, &awssfn.StopExecutionInput{
			ExecutionArn: aws.String(string(handle)),
			Error:        aws.String(errType),
			Cause:        aws.String(cause),
		})
		return err
	})
	if err != nil {
		return c.classify(err, string(handle))
	}
	return nil
}

// ExecutionSummary is one row of a ListExecutions response.
type ExecutionSummary struct {
	Handle    stepcheck.ExecutionHandle
	Name      string
	Status    stepcheck.ExecutionStatus
	StartTime time.Time
	StopTime  time.Time
}

// ListExecutions lists executions of a state machine, optionally filtered
// by status.
func (c *Client) ListExecutions(ctx context.Context, stateMachineARN string, statusFilter stepcheck.ExecutionStatus) ([]ExecutionSummary, error) {
	input := &awssfn.ListExecutionsInput{
		StateMachineArn: aws.String(stateMachineARN),
	}
	if statusFilter != "" {
		input.StatusFilter = types.ExecutionStatus(statusFilter)
	}

	var out *awssfn.ListExecutionsOutput
	err := c.call(ctx, func() error {
		var err error
		out, err = c.api.ListExecutions(ctx, input)
		return err
	})
	if err != nil {
		return nil, c.classify(err, stateMachineARN)
	}

	summaries := make([]ExecutionSummary, 0, len(out.Executions))
	for _, item := range out.Executions {
		summary := ExecutionSummary{
			Handle: stepcheck.ExecutionHandle(aws.ToString(item.ExecutionArn)),
			Name:   aws.ToString(item.Name),
			Status: stepcheck.ExecutionStatus(item.Status),
		}
		if item.StartDate != nil {
			summary.StartTime = *item.StartDate
		}
		if item.StopDate != nil {
			summary.StopTime = *item.StopDate
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Ping verifies the emulator is reachable.
func (c *Client) Ping(ctx context.Context) error {
	err := c.call(ctx, func() error {
		_, err := c.api.ListStateMachines(ctx, &awssfn.ListStateMachinesInput{
			MaxResults: 1,
		})
		return err
	})
	if err != nil {
		return c.classify(err, "")
	}
	return nil
}

// CheckStateMachine verifies the target workflow definition exists and is
// describable on the emulator.
func (c *Client) CheckStateMachine(ctx context.Context, stateMachineARN string) error {
	err := c.call(ctx, func() error {
		_, err := c.api.DescribeStateMachine(ctx, &awssfn.DescribeStateMachineInput{
			StateMachineArn: aws.String(stateMachineARN),
		})
		return err
	})
	if err != nil {
		return c.classify(err, stateMachineARN)
	}
	return nil
}

// call runs one API invocation under the retry policy: transient errors
// are retried with backoff, everything else returns immediately.
func (c *Client) call(ctx context.Context, fn func() error) error {
	return retry.Do(ctx, func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if isTransient(err) {
			c.logger.Debug("transient emulator error, will retry", "error", err.Error())
			return retry.NewRecoverableError(err)
		}
		return err
	}, retry.WithMaxRetries(c.maxRetries), retry.WithBaseWait(c.retryBaseWait))
}

// classify maps an exhausted or fatal API error onto the stepcheck error
// taxonomy.
func (c *Client) classify(err error, arn string) error {
	var notFound *types.StateMachineDoesNotExist
	if errors.As(err, &notFound) {
		return &stepcheck.DefinitionNotFoundError{StateMachineARN: arn, Err: err}
	}
	var deleting *types.StateMachineDeleting
	if errors.As(err, &deleting) {
		return &stepcheck.DefinitionNotFoundError{StateMachineARN: arn, Err: err}
	}
	if isTransient(err) {
		return &stepcheck.ConnectionError{Endpoint: c.endpoint, Err: err}
	}
	return err
}

// isTransient reports whether an error is worth retrying: server faults
// and transport-level failures are; client faults and context
// cancellation are not.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorFault() == smithy.FaultServer
	}
	// Not an API-level error: connection refused, reset, DNS failure.
	return true
}
