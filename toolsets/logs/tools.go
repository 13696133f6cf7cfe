package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/jmespath/go-jmespath"

	"awsops/internal/mcp"
)

const defaultPollTimeoutSeconds = 30

type Service struct {
	ctx          mcp.ToolsetContext
	client       func(context.Context, string) (LogsAPI, string, error)
	toolsetID    string
	pollInterval time.Duration
}

func ToolSpecs(ctx mcp.ToolsetContext, toolsetID string, client func(context.Context, string) (LogsAPI, string, error)) []mcp.ToolSpec {
	svc := &Service{ctx: ctx, client: client, toolsetID: toolsetID, pollInterval: time.Second}
	return svc.specs()
}

func (s *Service) specs() []mcp.ToolSpec {
	return []mcp.ToolSpec{
		{
			Name:        "logs.describe_log_groups",
			Description: "List CloudWatch log groups and the saved Insights queries that target them.",
			ToolsetID:   s.toolsetID,
			InputSchema: schemaDescribeLogGroups(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     s.handleDescribeLogGroups,
		},
		{
			Name:        "logs.analyze_log_group",
			Description: "Analyze a log group for anomalies, top message patterns, and error patterns over a time window.",
			ToolsetID:   s.toolsetID,
			InputSchema: schemaAnalyzeLogGroup(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     s.handleAnalyzeLogGroup,
		},
		{
			Name:        "logs.execute_insights_query",
			Description: "Start a Logs Insights query and poll it to completion within a timeout. Exactly one of log_group_names or log_group_identifiers is required.",
			ToolsetID:   s.toolsetID,
			InputSchema: schemaExecuteInsightsQuery(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     s.handleExecuteInsightsQuery,
		},
		{
			Name:        "logs.get_insights_query_results",
			Description: "Fetch current results for a Logs Insights query by queryId.",
			ToolsetID:   s.toolsetID,
			InputSchema: schemaGetInsightsQueryResults(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     s.handleGetInsightsQueryResults,
		},
		{
			Name:        "logs.cancel_insights_query",
			Description: "Stop an in-progress Logs Insights query.",
			ToolsetID:   s.toolsetID,
			InputSchema: schemaCancelInsightsQuery(),
			Safety:      mcp.SafetyWrite,
			Handler:     s.handleCancelInsightsQuery,
		},
	}
}

func (s *Service) handleDescribeLogGroups(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.client(ctx, region)
	if err != nil {
		return errorResult(err), err
	}

	input := &cloudwatchlogs.DescribeLogGroupsInput{}
	if prefix := strings.TrimSpace(toString(req.Arguments["log_group_name_prefix"])); prefix != "" {
		input.LogGroupNamePrefix = aws.String(prefix)
	}
	if class := strings.TrimSpace(toString(req.Arguments["log_group_class"])); class != "" {
		input.LogGroupClass = logstypes.LogGroupClass(class)
	}
	if accounts := toStringSlice(req.Arguments["account_identifiers"]); len(accounts) > 0 {
		input.AccountIdentifiers = accounts
	}
	if include, ok := req.Arguments["include_linked_accounts"].(bool); ok && include {
		input.IncludeLinkedAccounts = aws.Bool(true)
	}
	maxItems := toInt(req.Arguments["max_items"], 0)

	var groups []map[string]any
	groupNames := map[string]struct{}{}
	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(client, input)
pages:
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return errorResult(err), err
		}
		for _, group := range page.LogGroups {
			groups = append(groups, summarizeLogGroup(group))
			groupNames[aws.ToString(group.LogGroupName)] = struct{}{}
			if maxItems > 0 && len(groups) >= maxItems {
				break pages
			}
		}
	}
	savedQueries, err := s.savedQueriesFor(ctx, client, groupNames)
	if err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{
		Data: s.ctx.Redactor.RedactValue(map[string]any{
			"region":       usedRegion,
			"logGroups":    groups,
			"savedQueries": savedQueries,
		}),
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}},
	}, nil
}

// savedQueriesFor lists saved CWLI query definitions and keeps the ones that
// apply to at least one of the given log groups, either by exact name or by
// a namePrefix in the query's SOURCE command. There is no paginator for
// DescribeQueryDefinitions, so the token loop is manual.
func (s *Service) savedQueriesFor(ctx context.Context, client LogsAPI, groupNames map[string]struct{}) ([]map[string]any, error) {
	var saved []map[string]any
	var nextToken *string
	for {
		input := &cloudwatchlogs.DescribeQueryDefinitionsInput{
			QueryLanguage: logstypes.QueryLanguageCwli,
			NextToken:     nextToken,
		}
		out, err := client.DescribeQueryDefinitions(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, def := range out.QueryDefinitions {
			if !targetsAnyGroup(def.LogGroupNames, groupNames) &&
				!prefixesAnyGroup(queryPrefixes(aws.ToString(def.QueryString)), groupNames) {
				continue
			}
			saved = append(saved, map[string]any{
				"queryDefinitionId": aws.ToString(def.QueryDefinitionId),
				"name":              aws.ToString(def.Name),
				"queryString":       aws.ToString(def.QueryString),
				"logGroupNames":     def.LogGroupNames,
			})
		}
		if aws.ToString(out.NextToken) == "" {
			return saved, nil
		}
		nextToken = out.NextToken
	}
}

func targetsAnyGroup(targets []string, groupNames map[string]struct{}) bool {
	for _, target := range targets {
		if _, ok := groupNames[target]; ok {
			return true
		}
	}
	return false
}

// sourcePrefixPattern matches the namePrefix list of a CWLI SOURCE command,
// e.g. SOURCE logGroups(namePrefix: ["/aws/lambda", "/aws/ec2"]).
var (
	sourcePrefixPattern = regexp.MustCompile(`logGroups\(\s*namePrefix:\s*\[([^\]]*)\]`)
	quotedNamePattern   = regexp.MustCompile(`['"]([^'"]+)['"]`)
)

// queryPrefixes extracts log group name prefixes from a saved query's SOURCE
// command. Queries without one yield nothing.
func queryPrefixes(queryString string) []string {
	match := sourcePrefixPattern.FindStringSubmatch(queryString)
	if match == nil {
		return nil
	}
	var prefixes []string
	for _, quoted := range quotedNamePattern.FindAllStringSubmatch(match[1], -1) {
		prefixes = append(prefixes, quoted[1])
	}
	return prefixes
}

func prefixesAnyGroup(prefixes []string, groupNames map[string]struct{}) bool {
	for name := range groupNames {
		for _, prefix := range prefixes {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}
	return false
}

func (s *Service) handleExecuteInsightsQuery(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	queryReq := QueryRequest{
		LogGroupNames:       toStringSlice(req.Arguments["log_group_names"]),
		LogGroupIdentifiers: toStringSlice(req.Arguments["log_group_identifiers"]),
		StartTime:           strings.TrimSpace(toString(req.Arguments["start_time"])),
		EndTime:             strings.TrimSpace(toString(req.Arguments["end_time"])),
		QueryString:         toString(req.Arguments["query_string"]),
		Limit:               toInt(req.Arguments["limit"], 0),
	}
	if queryReq.QueryString == "" {
		err := errors.New("query_string is required")
		return errorResult(err), err
	}
	if err := validateLogGroupSelection(queryReq.LogGroupNames, queryReq.LogGroupIdentifiers); err != nil {
		return errorResult(err), err
	}
	input, err := buildStartQueryInput(queryReq)
	if err != nil {
		return errorResult(err), err
	}

	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.client(ctx, region)
	if err != nil {
		return errorResult(err), err
	}

	timeout := time.Duration(toInt(req.Arguments["max_timeout"], defaultPollTimeoutSeconds)) * time.Second
	runner := NewRunner(client, s.pollInterval, s.logEvent)

	// Submission failures become an Error-status result, not a raised fault.
	startOut, err := client.StartQuery(ctx, input)
	if err != nil {
		s.logEvent("error", fmt.Sprintf("start query failed: %v", err))
		return s.queryResultData(QueryResult{
			Status:     statusError,
			Statistics: map[string]float64{},
			Results:    []map[string]string{},
			Message:    err.Error(),
		}, usedRegion, "")
	}
	queryID := aws.ToString(startOut.QueryId)
	result := runner.Poll(ctx, queryID, timeout)
	return s.queryResultData(result, usedRegion, toString(req.Arguments["filter"]))
}

func (s *Service) handleGetInsightsQueryResults(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	queryID := strings.TrimSpace(toString(req.Arguments["query_id"]))
	if queryID == "" {
		err := errors.New("query_id is required")
		return errorResult(err), err
	}
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.client(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	out, err := client.GetQueryResults(ctx, &cloudwatchlogs.GetQueryResultsInput{QueryId: aws.String(queryID)})
	if err != nil {
		s.logEvent("error", fmt.Sprintf("query %s status fetch failed: %v", queryID, err))
		return s.queryResultData(QueryResult{
			QueryID:    queryID,
			Status:     statusError,
			Statistics: map[string]float64{},
			Results:    []map[string]string{},
			Message:    err.Error(),
		}, usedRegion, "")
	}
	return s.queryResultData(normalizeQueryResults(out, queryID), usedRegion, toString(req.Arguments["filter"]))
}

func (s *Service) handleCancelInsightsQuery(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	queryID := strings.TrimSpace(toString(req.Arguments["query_id"]))
	if queryID == "" {
		err := errors.New("query_id is required")
		return errorResult(err), err
	}
	region := toString(req.Arguments["region"])
	client, usedRegion, err := s.client(ctx, region)
	if err != nil {
		return errorResult(err), err
	}
	out, err := client.StopQuery(ctx, &cloudwatchlogs.StopQueryInput{QueryId: aws.String(queryID)})
	if err != nil {
		return errorResult(err), err
	}
	return mcp.ToolResult{
		Data: map[string]any{
			"region":  usedRegion,
			"queryId": queryID,
			"success": out.Success,
		},
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}},
	}, nil
}

// queryResultData renders a QueryResult, applying an optional JMESPath
// expression over the JSON form. Filter errors are reported alongside the
// unfiltered result instead of failing the call.
func (s *Service) queryResultData(result QueryResult, region, filterExpr string) (mcp.ToolResult, error) {
	data := map[string]any{
		"region":     region,
		"queryId":    result.QueryID,
		"status":     result.Status,
		"statistics": result.Statistics,
		"results":    result.Results,
	}
	if result.Message != "" {
		data["message"] = result.Message
	}
	if expr := strings.TrimSpace(filterExpr); expr != "" {
		filtered, err := applyJMESPathFilter(result, expr)
		if err != nil {
			data["filterError"] = err.Error()
		} else {
			data["filtered"] = filtered
		}
	}
	return mcp.ToolResult{
		Data:     s.ctx.Redactor.RedactValue(data),
		Metadata: mcp.ToolMetadata{Regions: []string{region}, Resources: queryResources(result.QueryID)},
	}, nil
}

func applyJMESPathFilter(result QueryResult, expr string) (any, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return jmespath.Search(expr, generic)
}

func queryResources(queryID string) []string {
	if queryID == "" {
		return nil
	}
	return []string{"insights-query/" + queryID}
}

func (s *Service) logEvent(level, msg string) {
	if s.ctx.Audit == nil {
		return
	}
	s.ctx.Audit.Diagnostic(s.toolsetID, level, msg)
}

func summarizeLogGroup(group logstypes.LogGroup) map[string]any {
	return map[string]any{
		"logGroupName":    aws.ToString(group.LogGroupName),
		"logGroupArn":     aws.ToString(group.LogGroupArn),
		"creationTime":    aws.ToInt64(group.CreationTime),
		"retentionInDays": aws.ToInt32(group.RetentionInDays),
		"storedBytes":     aws.ToInt64(group.StoredBytes),
		"kmsKeyId":        aws.ToString(group.KmsKeyId),
		"logGroupClass":   string(group.LogGroupClass),
	}
}

func errorResult(err error) mcp.ToolResult {
	return mcp.ToolResult{Data: map[string]any{"error": err.Error()}}
}

func toString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func toInt(value any, fallback int) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed)
		}
	}
	return fallback
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
