package logs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// LogsAPI is the CloudWatch Logs surface the handlers call.
type LogsAPI interface {
	StartQuery(ctx context.Context, params *cloudwatchlogs.StartQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StartQueryOutput, error)
	GetQueryResults(ctx context.Context, params *cloudwatchlogs.GetQueryResultsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetQueryResultsOutput, error)
	StopQuery(ctx context.Context, params *cloudwatchlogs.StopQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StopQueryOutput, error)
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
	DescribeQueryDefinitions(ctx context.Context, params *cloudwatchlogs.DescribeQueryDefinitionsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeQueryDefinitionsOutput, error)
	ListLogAnomalyDetectors(ctx context.Context, params *cloudwatchlogs.ListLogAnomalyDetectorsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.ListLogAnomalyDetectorsOutput, error)
	ListAnomalies(ctx context.Context, params *cloudwatchlogs.ListAnomaliesInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.ListAnomaliesOutput, error)
}

// QueryRequest carries a Logs Insights query submission.
type QueryRequest struct {
	LogGroupNames       []string
	LogGroupIdentifiers []string
	StartTime           string
	EndTime             string
	QueryString         string
	Limit               int
}

// QueryResult is the caller-facing shape for every query outcome, including
// the synthesized "Polling Timeout" and "Error" statuses. Handlers return it
// instead of raising, so the caller always gets a structured result.
type QueryResult struct {
	QueryID    string              `json:"queryId"`
	Status     string              `json:"status"`
	Statistics map[string]float64  `json:"statistics"`
	Results    []map[string]string `json:"results"`
	Message    string              `json:"message,omitempty"`
}

const (
	statusPollingTimeout = "Polling Timeout"
	statusError          = "Error"
)

// validateLogGroupSelection enforces that exactly one of the two target
// selectors is present.
func validateLogGroupSelection(names, identifiers []string) error {
	if (len(names) > 0) == (len(identifiers) > 0) {
		return errors.New("exactly one of log_group_names or log_group_identifiers must be provided")
	}
	return nil
}

// buildStartQueryInput translates a QueryRequest into the StartQuery call
// shape. Start and end times are ISO 8601 and become epoch seconds. The
// unused selector stays nil so the API sees only the one that applies.
func buildStartQueryInput(req QueryRequest) (*cloudwatchlogs.StartQueryInput, error) {
	startTime, err := parseQueryTime(req.StartTime, "start_time")
	if err != nil {
		return nil, err
	}
	endTime, err := parseQueryTime(req.EndTime, "end_time")
	if err != nil {
		return nil, err
	}
	input := &cloudwatchlogs.StartQueryInput{
		StartTime:   aws.Int64(startTime),
		EndTime:     aws.Int64(endTime),
		QueryString: aws.String(req.QueryString),
	}
	if len(req.LogGroupNames) > 0 {
		input.LogGroupNames = req.LogGroupNames
	}
	if len(req.LogGroupIdentifiers) > 0 {
		input.LogGroupIdentifiers = req.LogGroupIdentifiers
	}
	if req.Limit > 0 {
		input.Limit = aws.Int32(int32(req.Limit))
	}
	return input, nil
}

func parseQueryTime(value, field string) (int64, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an ISO 8601 timestamp: %w", field, err)
	}
	return parsed.Unix(), nil
}

// normalizeQueryResults flattens the provider's field/value row pairs into
// maps. Absent optional fields become empty collections, never errors, and
// the query id echo falls back to the caller-supplied one.
func normalizeQueryResults(out *cloudwatchlogs.GetQueryResultsOutput, queryID string) QueryResult {
	result := QueryResult{
		QueryID:    queryID,
		Statistics: map[string]float64{},
		Results:    []map[string]string{},
	}
	if out == nil {
		return result
	}
	result.Status = string(out.Status)
	if out.Statistics != nil {
		result.Statistics["bytesScanned"] = out.Statistics.BytesScanned
		result.Statistics["recordsMatched"] = out.Statistics.RecordsMatched
		result.Statistics["recordsScanned"] = out.Statistics.RecordsScanned
	}
	for _, row := range out.Results {
		mapped := map[string]string{}
		for _, field := range row {
			mapped[aws.ToString(field.Field)] = aws.ToString(field.Value)
		}
		result.Results = append(result.Results, mapped)
	}
	return result
}

// Runner drives a submitted query to a terminal state within a time budget.
type Runner struct {
	api      LogsAPI
	interval time.Duration
	log      func(level, msg string)
}

func NewRunner(api LogsAPI, interval time.Duration, log func(level, msg string)) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = func(string, string) {}
	}
	return &Runner{api: api, interval: interval, log: log}
}

// Poll fetches query status until the query leaves Scheduled/Running or the
// budget runs out. The deadline check happens after each fetch and before
// any sleep: when the next poll would land past the deadline the loop
// returns "Polling Timeout" immediately, so a budget shorter than the
// interval still gets exactly one status fetch and no sleep.
//
// Status-fetch errors are captured as an "Error" status result rather than
// returned up the stack.
func (r *Runner) Poll(ctx context.Context, queryID string, timeout time.Duration) QueryResult {
	deadline := time.Now().Add(timeout)
	for {
		out, err := r.api.GetQueryResults(ctx, &cloudwatchlogs.GetQueryResultsInput{QueryId: aws.String(queryID)})
		if err != nil {
			msg := fmt.Sprintf("query %s status fetch failed: %v", queryID, err)
			r.log("error", msg)
			return QueryResult{
				QueryID:    queryID,
				Status:     statusError,
				Statistics: map[string]float64{},
				Results:    []map[string]string{},
				Message:    err.Error(),
			}
		}
		switch out.Status {
		case logstypes.QueryStatusScheduled, logstypes.QueryStatusRunning:
		default:
			r.log("info", fmt.Sprintf("query %s finished with status %s", queryID, out.Status))
			return normalizeQueryResults(out, queryID)
		}

		if time.Now().Add(r.interval).After(deadline) {
			msg := fmt.Sprintf("query %s did not complete within %s; call logs.get_insights_query_results with the returned queryId to retrieve results later", queryID, timeout)
			r.log("warn", msg)
			return QueryResult{
				QueryID:    queryID,
				Status:     statusPollingTimeout,
				Statistics: map[string]float64{},
				Results:    []map[string]string{},
				Message:    msg,
			}
		}
		select {
		case <-time.After(r.interval):
		case <-ctx.Done():
			msg := fmt.Sprintf("query %s poll interrupted: %v", queryID, ctx.Err())
			r.log("error", msg)
			return QueryResult{
				QueryID:    queryID,
				Status:     statusError,
				Statistics: map[string]float64{},
				Results:    []map[string]string{},
				Message:    ctx.Err().Error(),
			}
		}
	}
}
