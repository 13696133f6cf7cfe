package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"awsops/internal/mcp"
)

const (
	topPatternsQuery   = "pattern @message | sort @sampleCount desc | limit 5"
	errorPatternsQuery = `fields @timestamp, @message | filter @message like /(?i)(error|exception|fail|timeout|fatal)/ | pattern @message | limit 5`
)

func (s *Service) handleAnalyzeLogGroup(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	logGroupArn := strings.TrimSpace(toString(req.Arguments["log_group_arn"]))
	if logGroupArn == "" {
		err := errors.New("log_group_arn is required")
		return errorResult(err), err
	}
	startTime := strings.TrimSpace(toString(req.Arguments["start_time"]))
	endTime := strings.TrimSpace(toString(req.Arguments["end_time"]))
	start, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		err = fmt.Errorf("start_time must be an ISO 8601 timestamp: %w", err)
		return errorResult(err), err
	}
	end, err := time.Parse(time.RFC3339, endTime)
	if err != nil {
		err = fmt.Errorf("end_time must be an ISO 8601 timestamp: %w", err)
		return errorResult(err), err
	}

	client, usedRegion, err := s.client(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}
	detectors, anomalies, err := s.anomalySurvey(ctx, client, logGroupArn, start, end)
	if err != nil {
		return errorResult(err), err
	}
	data := map[string]any{
		"region":                      usedRegion,
		"logGroupArn":                 logGroupArn,
		"anomalyDetectors":            detectors,
		"anomalies":                   anomalies,
		"topPatterns":                 s.runAnalysisQuery(ctx, client, logGroupArn, startTime, endTime, topPatternsQuery),
		"topPatternsContainingErrors": s.runAnalysisQuery(ctx, client, logGroupArn, startTime, endTime, errorPatternsQuery),
	}
	return mcp.ToolResult{
		Data:     s.ctx.Redactor.RedactValue(data),
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}, Resources: []string{logGroupArn}},
	}, nil
}

// anomalySurvey lists the anomaly detectors watching the log group and the
// unsuppressed anomalies they raised that overlap the analysis window.
func (s *Service) anomalySurvey(ctx context.Context, client LogsAPI, logGroupArn string, start, end time.Time) ([]map[string]any, []map[string]any, error) {
	detectors := []map[string]any{}
	var detectorArns []string
	detectorPages := cloudwatchlogs.NewListLogAnomalyDetectorsPaginator(client, &cloudwatchlogs.ListLogAnomalyDetectorsInput{
		FilterLogGroupArn: aws.String(logGroupArn),
	})
	for detectorPages.HasMorePages() {
		page, err := detectorPages.NextPage(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, detector := range page.AnomalyDetectors {
			detectors = append(detectors, map[string]any{
				"anomalyDetectorArn":    aws.ToString(detector.AnomalyDetectorArn),
				"detectorName":          aws.ToString(detector.DetectorName),
				"anomalyDetectorStatus": string(detector.AnomalyDetectorStatus),
			})
			detectorArns = append(detectorArns, aws.ToString(detector.AnomalyDetectorArn))
		}
	}

	anomalies := []map[string]any{}
	for _, detectorArn := range detectorArns {
		anomalyPages := cloudwatchlogs.NewListAnomaliesPaginator(client, &cloudwatchlogs.ListAnomaliesInput{
			AnomalyDetectorArn: aws.String(detectorArn),
			SuppressionState:   logstypes.SuppressionStateUnsuppressed,
		})
		for anomalyPages.HasMorePages() {
			page, err := anomalyPages.NextPage(ctx)
			if err != nil {
				return nil, nil, err
			}
			for _, anomaly := range page.Anomalies {
				if !anomalyApplies(anomaly, logGroupArn, start, end) {
					continue
				}
				anomalies = append(anomalies, summarizeAnomaly(anomaly))
			}
		}
	}
	return detectors, anomalies, nil
}

// anomalyApplies keeps anomalies whose seen range overlaps the window and
// that name the analyzed log group.
func anomalyApplies(anomaly logstypes.Anomaly, logGroupArn string, start, end time.Time) bool {
	if anomaly.FirstSeen > end.UnixMilli() {
		return false
	}
	if anomaly.LastSeen != 0 && anomaly.LastSeen < start.UnixMilli() {
		return false
	}
	for _, arn := range anomaly.LogGroupArnList {
		if arn == logGroupArn {
			return true
		}
	}
	return false
}

func summarizeAnomaly(anomaly logstypes.Anomaly) map[string]any {
	out := map[string]any{
		"anomalyId":     aws.ToString(anomaly.AnomalyId),
		"description":   aws.ToString(anomaly.Description),
		"priority":      aws.ToString(anomaly.Priority),
		"patternString": aws.ToString(anomaly.PatternString),
		"patternRegex":  aws.ToString(anomaly.PatternRegex),
		"firstSeen":     epochMillisISO(anomaly.FirstSeen),
		"lastSeen":      epochMillisISO(anomaly.LastSeen),
	}
	// One sample is enough to show the anomaly's shape.
	if len(anomaly.LogSamples) > 0 {
		sample := anomaly.LogSamples[0]
		out["logSample"] = map[string]any{
			"timestamp": epochMillisISO(aws.ToInt64(sample.Timestamp)),
			"message":   aws.ToString(sample.Message),
		}
	}
	return out
}

func epochMillisISO(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// runAnalysisQuery submits one Insights query over the log group and waits
// for it the way execute_insights_query does. Failures come back as
// Error-status payloads so one failed leg does not sink the analysis.
func (s *Service) runAnalysisQuery(ctx context.Context, client LogsAPI, logGroupArn, startTime, endTime, query string) map[string]any {
	input, err := buildStartQueryInput(QueryRequest{
		LogGroupIdentifiers: []string{logGroupArn},
		StartTime:           startTime,
		EndTime:             endTime,
		QueryString:         query,
		Limit:               5,
	})
	if err != nil {
		return map[string]any{"status": statusError, "message": err.Error()}
	}
	startOut, err := client.StartQuery(ctx, input)
	if err != nil {
		s.logEvent("error", fmt.Sprintf("start query failed: %v", err))
		return map[string]any{"status": statusError, "message": err.Error()}
	}
	runner := NewRunner(client, s.pollInterval, s.logEvent)
	result := runner.Poll(ctx, aws.ToString(startOut.QueryId), defaultPollTimeoutSeconds*time.Second)
	trimPatternRows(result.Results)
	data := map[string]any{
		"queryId": result.QueryID,
		"status":  result.Status,
		"results": result.Results,
	}
	if result.Message != "" {
		data["message"] = result.Message
	}
	return data
}

// trimPatternRows drops the bulky pattern-query columns and keeps a single
// log sample per row.
func trimPatternRows(rows []map[string]string) {
	for _, row := range rows {
		delete(row, "@tokens")
		delete(row, "@visualization")
		samples, ok := row["@logSamples"]
		if !ok {
			continue
		}
		var parsed []any
		if err := json.Unmarshal([]byte(samples), &parsed); err != nil || len(parsed) <= 1 {
			continue
		}
		if first, err := json.Marshal(parsed[:1]); err == nil {
			row["@logSamples"] = string(first)
		}
	}
}
