package logs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

func TestValidateLogGroupSelection(t *testing.T) {
	if err := validateLogGroupSelection([]string{"app"}, nil); err != nil {
		t.Fatalf("names only should pass: %v", err)
	}
	if err := validateLogGroupSelection(nil, []string{"arn:aws:logs:us-east-1:123456789012:log-group:app"}); err != nil {
		t.Fatalf("identifiers only should pass: %v", err)
	}
	if err := validateLogGroupSelection(nil, nil); err == nil {
		t.Fatalf("expected error when both absent")
	}
	if err := validateLogGroupSelection([]string{"app"}, []string{"other"}); err == nil {
		t.Fatalf("expected error when both present")
	}
}

func TestBuildStartQueryInput(t *testing.T) {
	input, err := buildStartQueryInput(QueryRequest{
		LogGroupNames: []string{"app"},
		StartTime:     "2026-01-01T00:00:00Z",
		EndTime:       "2026-01-01T01:00:00Z",
		QueryString:   "fields @timestamp, @message",
		Limit:         50,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if aws.ToInt64(input.StartTime) != 1767225600 {
		t.Fatalf("unexpected start time: %d", aws.ToInt64(input.StartTime))
	}
	if aws.ToInt64(input.EndTime)-aws.ToInt64(input.StartTime) != 3600 {
		t.Fatalf("expected one hour window")
	}
	if input.LogGroupIdentifiers != nil {
		t.Fatalf("unused selector should stay nil")
	}
	if aws.ToInt32(input.Limit) != 50 {
		t.Fatalf("unexpected limit: %d", aws.ToInt32(input.Limit))
	}
}

func TestBuildStartQueryInputBadTime(t *testing.T) {
	_, err := buildStartQueryInput(QueryRequest{
		LogGroupNames: []string{"app"},
		StartTime:     "yesterday",
		EndTime:       "2026-01-01T01:00:00Z",
		QueryString:   "fields @message",
	})
	if err == nil {
		t.Fatalf("expected error for bad start time")
	}
}

func TestNormalizeQueryResults(t *testing.T) {
	out := &cloudwatchlogs.GetQueryResultsOutput{
		Status: logstypes.QueryStatusComplete,
		Statistics: &logstypes.QueryStatistics{
			BytesScanned:   1024,
			RecordsMatched: 2,
			RecordsScanned: 10,
		},
		Results: [][]logstypes.ResultField{
			{
				{Field: aws.String("@timestamp"), Value: aws.String("2026-01-01 00:00:00.000")},
				{Field: aws.String("@message"), Value: aws.String("hello")},
			},
		},
	}
	result := normalizeQueryResults(out, "q-1")
	if result.QueryID != "q-1" || result.Status != "Complete" {
		t.Fatalf("unexpected result header: %#v", result)
	}
	if result.Statistics["recordsMatched"] != 2 {
		t.Fatalf("unexpected statistics: %#v", result.Statistics)
	}
	if len(result.Results) != 1 || result.Results[0]["@message"] != "hello" {
		t.Fatalf("unexpected rows: %#v", result.Results)
	}
}

func TestNormalizeQueryResultsEmpty(t *testing.T) {
	result := normalizeQueryResults(&cloudwatchlogs.GetQueryResultsOutput{Status: logstypes.QueryStatusComplete}, "q-2")
	if result.Results == nil || len(result.Results) != 0 {
		t.Fatalf("expected empty, non-nil rows: %#v", result.Results)
	}
	if result.Statistics == nil {
		t.Fatalf("expected empty, non-nil statistics")
	}
	if normalizeQueryResults(nil, "q-3").QueryID != "q-3" {
		t.Fatalf("expected query id fallback for nil output")
	}
}

type fakePollAPI struct {
	statuses []logstypes.QueryStatus
	errs     []error
	calls    int
	rows     [][]logstypes.ResultField
}

func (f *fakePollAPI) GetQueryResults(ctx context.Context, params *cloudwatchlogs.GetQueryResultsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetQueryResultsOutput, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	status := f.statuses[len(f.statuses)-1]
	if idx < len(f.statuses) {
		status = f.statuses[idx]
	}
	out := &cloudwatchlogs.GetQueryResultsOutput{Status: status}
	if status == logstypes.QueryStatusComplete {
		out.Results = [][]logstypes.ResultField{f.rows[0]}
	}
	return out, nil
}

func (f *fakePollAPI) StartQuery(ctx context.Context, params *cloudwatchlogs.StartQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StartQueryOutput, error) {
	return &cloudwatchlogs.StartQueryOutput{QueryId: aws.String("q-fake")}, nil
}

func (f *fakePollAPI) StopQuery(ctx context.Context, params *cloudwatchlogs.StopQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StopQueryOutput, error) {
	return &cloudwatchlogs.StopQueryOutput{Success: true}, nil
}

func (f *fakePollAPI) DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error) {
	return &cloudwatchlogs.DescribeLogGroupsOutput{}, nil
}

func (f *fakePollAPI) DescribeQueryDefinitions(ctx context.Context, params *cloudwatchlogs.DescribeQueryDefinitionsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeQueryDefinitionsOutput, error) {
	return &cloudwatchlogs.DescribeQueryDefinitionsOutput{}, nil
}

func (f *fakePollAPI) ListLogAnomalyDetectors(ctx context.Context, params *cloudwatchlogs.ListLogAnomalyDetectorsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.ListLogAnomalyDetectorsOutput, error) {
	return &cloudwatchlogs.ListLogAnomalyDetectorsOutput{}, nil
}

func (f *fakePollAPI) ListAnomalies(ctx context.Context, params *cloudwatchlogs.ListAnomaliesInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.ListAnomaliesOutput, error) {
	return &cloudwatchlogs.ListAnomaliesOutput{}, nil
}

type logRecorder struct {
	warns  int
	errors int
	infos  int
}

func (l *logRecorder) log(level, msg string) {
	switch level {
	case "warn":
		l.warns++
	case "error":
		l.errors++
	default:
		l.infos++
	}
}

func TestPollRunningThenComplete(t *testing.T) {
	api := &fakePollAPI{
		statuses: []logstypes.QueryStatus{
			logstypes.QueryStatusRunning,
			logstypes.QueryStatusRunning,
			logstypes.QueryStatusComplete,
		},
		rows: [][]logstypes.ResultField{
			{{Field: aws.String("@message"), Value: aws.String("done")}},
		},
	}
	rec := &logRecorder{}
	runner := NewRunner(api, 5*time.Millisecond, rec.log)
	result := runner.Poll(context.Background(), "q-1", time.Minute)
	if result.Status != "Complete" {
		t.Fatalf("expected Complete, got %s", result.Status)
	}
	if api.calls != 3 {
		t.Fatalf("expected exactly three status fetches, got %d", api.calls)
	}
	if len(result.Results) != 1 || result.Results[0]["@message"] != "done" {
		t.Fatalf("unexpected rows: %#v", result.Results)
	}
}

func TestPollScheduledIsNotTerminal(t *testing.T) {
	api := &fakePollAPI{
		statuses: []logstypes.QueryStatus{
			logstypes.QueryStatusScheduled,
			logstypes.QueryStatusComplete,
		},
		rows: [][]logstypes.ResultField{{}},
	}
	runner := NewRunner(api, time.Millisecond, nil)
	result := runner.Poll(context.Background(), "q-1", time.Minute)
	if result.Status != "Complete" {
		t.Fatalf("expected poll through Scheduled, got %s", result.Status)
	}
	if api.calls != 2 {
		t.Fatalf("expected two fetches, got %d", api.calls)
	}
}

func TestPollFailedPassedThrough(t *testing.T) {
	api := &fakePollAPI{statuses: []logstypes.QueryStatus{logstypes.QueryStatusFailed}}
	runner := NewRunner(api, time.Millisecond, nil)
	result := runner.Poll(context.Background(), "q-1", time.Minute)
	if result.Status != "Failed" {
		t.Fatalf("expected Failed passed through, got %s", result.Status)
	}
	if api.calls != 1 {
		t.Fatalf("terminal status should end polling immediately, got %d calls", api.calls)
	}
}

func TestPollTimeout(t *testing.T) {
	api := &fakePollAPI{statuses: []logstypes.QueryStatus{logstypes.QueryStatusRunning}}
	rec := &logRecorder{}
	runner := NewRunner(api, 10*time.Millisecond, rec.log)
	result := runner.Poll(context.Background(), "q-1", 25*time.Millisecond)
	if result.Status != statusPollingTimeout {
		t.Fatalf("expected Polling Timeout, got %s", result.Status)
	}
	if rec.warns != 1 {
		t.Fatalf("expected exactly one warning, got %d", rec.warns)
	}
	if result.Message == "" {
		t.Fatalf("expected truncation message")
	}
	if len(result.Results) != 0 {
		t.Fatalf("expected empty result set on timeout")
	}
}

func TestPollTimeoutShorterThanInterval(t *testing.T) {
	api := &fakePollAPI{statuses: []logstypes.QueryStatus{logstypes.QueryStatusRunning}}
	rec := &logRecorder{}
	runner := NewRunner(api, 50*time.Millisecond, rec.log)
	start := time.Now()
	result := runner.Poll(context.Background(), "q-1", 5*time.Millisecond)
	if result.Status != statusPollingTimeout {
		t.Fatalf("expected Polling Timeout, got %s", result.Status)
	}
	if api.calls != 1 {
		t.Fatalf("expected exactly one fetch before timing out, got %d", api.calls)
	}
	if time.Since(start) > 40*time.Millisecond {
		t.Fatalf("timeout shorter than interval must not sleep")
	}
	if rec.warns != 1 {
		t.Fatalf("expected exactly one warning, got %d", rec.warns)
	}
}

func TestPollFetchErrorBecomesErrorStatus(t *testing.T) {
	api := &fakePollAPI{
		statuses: []logstypes.QueryStatus{logstypes.QueryStatusRunning},
		errs:     []error{errors.New("throttled")},
	}
	rec := &logRecorder{}
	runner := NewRunner(api, time.Millisecond, rec.log)
	result := runner.Poll(context.Background(), "q-1", time.Minute)
	if result.Status != statusError {
		t.Fatalf("expected Error status, got %s", result.Status)
	}
	if result.Message != "throttled" {
		t.Fatalf("expected cause embedded, got %q", result.Message)
	}
	if rec.errors != 1 {
		t.Fatalf("expected exactly one error log, got %d", rec.errors)
	}
	if api.calls != 1 {
		t.Fatalf("fetch error must terminate the loop, got %d calls", api.calls)
	}
}

func TestPollUnknownStatusIsTerminal(t *testing.T) {
	api := &fakePollAPI{statuses: []logstypes.QueryStatus{logstypes.QueryStatus("Rebalancing")}}
	runner := NewRunner(api, time.Millisecond, nil)
	result := runner.Poll(context.Background(), "q-1", time.Minute)
	if result.Status != "Rebalancing" {
		t.Fatalf("unknown status should pass through as terminal, got %s", result.Status)
	}
	if api.calls != 1 {
		t.Fatalf("expected a single fetch, got %d", api.calls)
	}
}

func TestPollContextCanceled(t *testing.T) {
	api := &fakePollAPI{statuses: []logstypes.QueryStatus{logstypes.QueryStatusRunning}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := NewRunner(api, 50*time.Millisecond, nil)
	result := runner.Poll(ctx, "q-1", time.Minute)
	if result.Status != statusError {
		t.Fatalf("expected Error on canceled context, got %s", result.Status)
	}
}
