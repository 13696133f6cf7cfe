package cost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/trustedadvisor"
	tatypes "github.com/aws/aws-sdk-go-v2/service/trustedadvisor/types"

	"awsops/internal/mcp"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxAttempts  = 6
)

// TrustedAdvisorAPI is the Trusted Advisor surface the recommendation
// survey calls.
type TrustedAdvisorAPI interface {
	ListRecommendations(ctx context.Context, params *trustedadvisor.ListRecommendationsInput, optFns ...func(*trustedadvisor.Options)) (*trustedadvisor.ListRecommendationsOutput, error)
	ListRecommendationResources(ctx context.Context, params *trustedadvisor.ListRecommendationResourcesInput, optFns ...func(*trustedadvisor.Options)) (*trustedadvisor.ListRecommendationResourcesOutput, error)
}

// AthenaAPI is the Athena surface used for cost-and-usage report queries.
type AthenaAPI interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type Service struct {
	ctx          mcp.ToolsetContext
	advisor      func(context.Context, string) (TrustedAdvisorAPI, string, error)
	athena       func(context.Context, string) (AthenaAPI, string, error)
	toolsetID    string
	pollInterval time.Duration
	maxAttempts  int
}

func ToolSpecs(ctx mcp.ToolsetContext, toolsetID string,
	advisorFn func(context.Context, string) (TrustedAdvisorAPI, string, error),
	athenaFn func(context.Context, string) (AthenaAPI, string, error)) []mcp.ToolSpec {
	svc := &Service{
		ctx:          ctx,
		advisor:      advisorFn,
		athena:       athenaFn,
		toolsetID:    toolsetID,
		pollInterval: defaultPollInterval,
		maxAttempts:  defaultMaxAttempts,
	}
	return []mcp.ToolSpec{
		{
			Name:        "cost.get_recommendations",
			Description: "Gets Trusted Advisor cost-optimization and performance recommendations with affected resources.",
			ToolsetID:   toolsetID,
			InputSchema: schemaGetRecommendations(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleGetRecommendations,
		},
		{
			Name:        "cost.execute_cost_query",
			Description: costQueryDescription(ctx),
			ToolsetID:   toolsetID,
			InputSchema: schemaExecuteCostQuery(),
			Safety:      mcp.SafetyReadOnly,
			Handler:     svc.handleExecuteCostQuery,
		},
	}
}

// costQueryDescription names the configured CUR table so callers write SQL
// against the right one.
func costQueryDescription(ctx mcp.ToolsetContext) string {
	base := "Runs an Athena query against the cost-and-usage report and waits briefly for the result."
	if ctx.Config == nil {
		return base
	}
	table := strings.TrimSpace(ctx.Config.Cost.CURTableName)
	if table == "" {
		return base
	}
	return fmt.Sprintf("%s Always use table %s.", base, table)
}

var recommendationPillars = []tatypes.RecommendationPillar{
	tatypes.RecommendationPillarCostOptimizing,
	tatypes.RecommendationPillarPerformance,
}

var recommendationStatuses = []tatypes.RecommendationStatus{
	tatypes.RecommendationStatusWarning,
	tatypes.RecommendationStatusError,
}

func (s *Service) handleGetRecommendations(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	client, usedRegion, err := s.advisor(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}

	var results []map[string]any
	for _, pillar := range recommendationPillars {
		for _, status := range recommendationStatuses {
			paginator := trustedadvisor.NewListRecommendationsPaginator(client, &trustedadvisor.ListRecommendationsInput{
				Pillar: pillar,
				Status: status,
			})
			for paginator.HasMorePages() {
				page, err := paginator.NextPage(ctx)
				if err != nil {
					return errorResult(err), err
				}
				for _, check := range page.RecommendationSummaries {
					resources, err := s.recommendationResources(ctx, client, aws.ToString(check.Arn))
					if err != nil {
						return errorResult(err), err
					}
					aggregates, _ := structToMap(check.PillarSpecificAggregates)
					results = append(results, map[string]any{
						"checkName": aws.ToString(check.Name),
						"pillar":    string(pillar),
						"status":    string(status),
						"resources": resources,
						"metadata":  aggregates,
					})
				}
			}
		}
	}

	return mcp.ToolResult{
		Data: s.ctx.Redactor.RedactValue(map[string]any{
			"region":          usedRegion,
			"recommendations": results,
		}),
		Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}},
	}, nil
}

// recommendationResources collects the metadata of every resource the check
// flags, skipping excluded ones.
func (s *Service) recommendationResources(ctx context.Context, client TrustedAdvisorAPI, recommendationArn string) ([]map[string]string, error) {
	var resources []map[string]string
	paginator := trustedadvisor.NewListRecommendationResourcesPaginator(client, &trustedadvisor.ListRecommendationResourcesInput{
		RecommendationIdentifier: aws.String(recommendationArn),
		ExclusionStatus:          tatypes.ExclusionStatusIncluded,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, summary := range page.RecommendationResourceSummaries {
			resources = append(resources, summary.Metadata)
		}
	}
	return resources, nil
}

func (s *Service) handleExecuteCostQuery(ctx context.Context, req mcp.ToolRequest) (mcp.ToolResult, error) {
	query := strings.TrimSpace(toString(req.Arguments["query"]))
	if query == "" {
		err := errors.New("query is required")
		return errorResult(err), err
	}
	costCfg := s.ctx.Config.Cost
	if costCfg.AthenaDatabase == "" || costCfg.AthenaOutputLocation == "" {
		err := errors.New("cost query support is not configured: set cost.athena_database and cost.athena_output_location (or AWS_CUR_DB_NAME / AWS_ATHENA_RESULTS_BUCKET)")
		return errorResult(err), err
	}

	client, usedRegion, err := s.athena(ctx, toString(req.Arguments["region"]))
	if err != nil {
		return errorResult(err), err
	}

	input := &athena.StartQueryExecutionInput{
		QueryString:           aws.String(query),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{Database: aws.String(costCfg.AthenaDatabase)},
		ResultConfiguration:   &athenatypes.ResultConfiguration{OutputLocation: aws.String(costCfg.AthenaOutputLocation)},
	}
	if costCfg.AthenaWorkgroup != "" {
		input.WorkGroup = aws.String(costCfg.AthenaWorkgroup)
	}
	started, err := client.StartQueryExecution(ctx, input)
	if err != nil {
		return mcp.ToolResult{Data: map[string]any{
			"status":  "error",
			"message": fmt.Sprintf("failed to start query: %v", err),
		}}, nil
	}
	executionID := aws.ToString(started.QueryExecutionId)

	state, reason, err := s.waitForQuery(ctx, client, executionID)
	if err != nil {
		return mcp.ToolResult{Data: map[string]any{
			"status":           "error",
			"queryExecutionId": executionID,
			"message":          fmt.Sprintf("failed to poll query state: %v", err),
		}}, nil
	}

	switch state {
	case athenatypes.QueryExecutionStateSucceeded:
		results, err := client.GetQueryResults(ctx, &athena.GetQueryResultsInput{QueryExecutionId: aws.String(executionID)})
		if err != nil {
			return errorResult(err), err
		}
		resultSet, err := structToMap(results.ResultSet)
		if err != nil {
			return errorResult(err), err
		}
		return mcp.ToolResult{
			Data: map[string]any{
				"region":           usedRegion,
				"queryExecutionId": executionID,
				"status":           string(state),
				"resultSet":        resultSet,
			},
			Metadata: mcp.ToolMetadata{Regions: []string{usedRegion}},
		}, nil
	case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
		return mcp.ToolResult{Data: map[string]any{
			"status":           "error",
			"queryExecutionId": executionID,
			"message":          fmt.Sprintf("query failed with state %s", state),
			"details":          map[string]any{"error": reason},
		}}, nil
	default:
		return mcp.ToolResult{Data: map[string]any{
			"status":           "error",
			"queryExecutionId": executionID,
			"message": fmt.Sprintf("query still %s after %s; retry cost.execute_cost_query later or inspect execution %s in Athena",
				state, time.Duration(s.maxAttempts)*s.pollInterval, executionID),
		}}, nil
	}
}

// waitForQuery polls the execution state a bounded number of times. The
// final known state is returned even when the query never reached a
// terminal one.
func (s *Service) waitForQuery(ctx context.Context, client AthenaAPI, executionID string) (athenatypes.QueryExecutionState, string, error) {
	var state athenatypes.QueryExecutionState
	var reason string
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		out, err := client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{QueryExecutionId: aws.String(executionID)})
		if err != nil {
			return state, reason, err
		}
		if out.QueryExecution == nil || out.QueryExecution.Status == nil {
			return state, reason, errors.New("query execution status missing from response")
		}
		state = out.QueryExecution.Status.State
		reason = aws.ToString(out.QueryExecution.Status.StateChangeReason)

		switch state {
		case athenatypes.QueryExecutionStateSucceeded,
			athenatypes.QueryExecutionStateFailed,
			athenatypes.QueryExecutionStateCancelled:
			return state, reason, nil
		}
		if attempt == s.maxAttempts-1 {
			break
		}
		select {
		case <-time.After(s.pollInterval):
		case <-ctx.Done():
			return state, reason, ctx.Err()
		}
	}
	return state, reason, nil
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

func structToMap(v any) (map[string]any, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}
